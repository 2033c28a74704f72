package objinspect

import (
	"encoding/binary"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/xyproto/weaklink/wkerrors"
)

// readMagic memory-maps path (the same strategy saferwall/pe.File uses to
// avoid a full read of multi-gigabyte images) and returns its first 8 bytes,
// enough to distinguish ELF, Mach-O (thin/fat, either endianness) and
// PE/COFF containers.
func readMagic(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindIO, "open", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindIO, "stat", err)
	}
	if info.Size() < 8 {
		return nil, wkerrors.New(wkerrors.KindFormat, "file too small to be a recognized container", nil)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindIO, "mmap", err)
	}
	defer m.Unmap()

	magic := make([]byte, 8)
	copy(magic, m[:8])
	return magic, nil
}

const (
	machoMagic32       = 0xfeedface
	machoMagic64       = 0xfeedfacf
	machoCigam32       = 0xcefaedfe
	machoCigam64       = 0xcffaedfe
	machoFatMagic      = 0xcafebabe
	machoFatCigam      = 0xbebafeca
	coffMachineI386    = 0x014c
	coffMachineAMD64   = 0x8664
	coffMachineARM64   = 0xaa64
	coffMachineARM     = 0x01c0
	coffMachineLoong64 = 0x6264
)

func isELFMagic(b []byte) bool {
	return len(b) >= 4 && b[0] == 0x7f && b[1] == 'E' && b[2] == 'L' && b[3] == 'F'
}

func isMachOMagic(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	v := binary.BigEndian.Uint32(b[:4])
	switch v {
	case machoMagic32, machoMagic64, machoCigam32, machoCigam64, machoFatMagic, machoFatCigam:
		return true
	}
	return false
}

func isPEMagic(b []byte) bool {
	return len(b) >= 2 && b[0] == 'M' && b[1] == 'Z'
}

// isCOFFMagic recognizes a bare COFF object file (no MZ/PE stub), as found
// inside a static archive: its first two bytes are a little-endian machine
// constant rather than a magic string (spec.md §4.1 COFF row).
func isCOFFMagic(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	machine := binary.LittleEndian.Uint16(b[:2])
	switch machine {
	case coffMachineI386, coffMachineAMD64, coffMachineARM64, coffMachineARM, coffMachineLoong64:
		return true
	}
	return false
}
