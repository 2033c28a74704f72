package objinspect

import "testing"

func TestMagicSniffing(t *testing.T) {
	elfMagic := []byte{0x7f, 'E', 'L', 'F', 0, 0, 0, 0}
	if !isELFMagic(elfMagic) {
		t.Error("expected ELF magic to be recognized")
	}
	if isMachOMagic(elfMagic) || isPEMagic(elfMagic) {
		t.Error("ELF magic misclassified")
	}

	macho64 := []byte{0xfe, 0xed, 0xfa, 0xcf, 0, 0, 0, 0}
	if !isMachOMagic(macho64) {
		t.Error("expected Mach-O 64-bit magic to be recognized")
	}

	fat := []byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 0}
	if !isMachOMagic(fat) {
		t.Error("expected fat Mach-O magic to be recognized")
	}

	pe := []byte{'M', 'Z', 0, 0, 0, 0, 0, 0}
	if !isPEMagic(pe) {
		t.Error("expected PE/MZ magic to be recognized")
	}

	coffAmd64 := []byte{0x64, 0x86, 0, 0}
	if !isCOFFMagic(coffAmd64) {
		t.Error("expected amd64 COFF machine constant to be recognized")
	}
}
