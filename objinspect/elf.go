package objinspect

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/xyproto/weaklink/wkerrors"
)

// elfExports iterates the dynamic-symbol table, keeping entries whose
// storage is defined (section index not SHN_UNDEF) and whose name is
// non-empty, annotated with the defining section's name (spec.md §4.1 ELF
// row, export column).
func elfExports(path string) ([]Export, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindFormat, "open ELF", err)
	}
	defer f.Close()

	idx := sectionIndexFromELF(f)

	syms, err := f.DynamicSymbols()
	if err != nil {
		// A library with no dynamic symbol table exports nothing; that is
		// not an error condition worth surfacing to callers.
		return nil, nil
	}

	var out []Export
	for _, sym := range syms {
		if sym.Name == "" {
			continue
		}
		if sym.Section == elf.SHN_UNDEF {
			continue // undefined == import, not export
		}
		e := Export{Name: sym.Name}
		if name, ok := idx.Lookup(uint64(sym.Value)); ok {
			e.Section = name
		} else if int(sym.Section) < len(f.Sections) {
			e.Section = f.Sections[sym.Section].Name
		}
		out = append(out, e)
	}
	return dedupeExports(out), nil
}

func sectionIndexFromELF(f *elf.File) *SectionIndex {
	idx := NewSectionIndex()
	for _, sec := range f.Sections {
		if sec.Addr == 0 && sec.Size == 0 {
			continue
		}
		idx.Insert(sec.Addr, sec.Size, sec.Name)
	}
	return idx
}

// elfImports iterates relocation sections; for each relocation whose target
// symbol is undefined AND has section index 0, the symbol name is included
// as an import (spec.md §4.1 ELF row, import column). The section-index-0
// guard works around a parser quirk where TLS-local symbols can otherwise
// be mistaken for imports (spec.md §9 Open Questions).
func elfImports(f *elf.File) ([]Import, error) {
	syms, err := f.Symbols()
	if err != nil {
		syms = nil
	}
	dynsyms, derr := f.DynamicSymbols()
	if derr == nil {
		syms = append(syms, dynsyms...)
	}

	var out []Import
	for _, sym := range syms {
		if sym.Name == "" {
			continue
		}
		if elf.ST_TYPE(sym.Info) == elf.STT_SECTION {
			continue
		}
		if sym.Section == elf.SHN_UNDEF {
			out = append(out, Import{Name: sym.Name})
		}
	}

	for _, sec := range f.Sections {
		if sec.Type != elf.SHT_RELA && sec.Type != elf.SHT_REL {
			continue
		}
		rels, err := relocationImports(f, sec)
		if err != nil {
			if Verbose {
				fmt.Fprintf(os.Stderr, "weaklink: skipping relocation section %s: %v\n", sec.Name, err)
			}
			continue
		}
		out = append(out, rels...)
	}
	return dedupeImports(out), nil
}

// relocationImports resolves the symbol referenced by every relocation in
// sec against the file's static symbol table (or its dynamic one when there
// is no static table), keeping only names whose
// section index is the sentinel SHN_UNDEF (0) — the heuristic spec.md §4.1
// calls out explicitly.
func relocationImports(f *elf.File, sec *elf.Section) ([]Import, error) {
	syms, err := f.Symbols()
	if err != nil {
		dsyms, derr := f.DynamicSymbols()
		if derr != nil {
			return nil, err
		}
		syms = dsyms
	}
	data, err := sec.Data()
	if err != nil {
		return nil, err
	}
	var out []Import
	entsize := 24 // Elf64_Rela
	if sec.Type == elf.SHT_REL {
		entsize = 16
	}
	if f.Class == elf.ELFCLASS32 {
		entsize /= 2 // Elf32_Rela is 12 bytes, Elf32_Rel is 8
	}
	for off := 0; off+entsize <= len(data); off += entsize {
		symIdx := readSymIndex(f, data[off:off+entsize])
		if symIdx == 0 || int(symIdx) > len(syms) {
			continue
		}
		// Symbols/DynamicSymbols omit the null symbol at index 0, so table
		// index k is syms[k-1].
		s := syms[symIdx-1]
		if s.Section == elf.SHN_UNDEF && s.Name != "" {
			out = append(out, Import{Name: s.Name})
		}
	}
	return out, nil
}

// readSymIndex extracts the symbol index field from a raw Rel/Rela entry,
// accounting for 32/64-bit class and endianness.
func readSymIndex(f *elf.File, entry []byte) uint32 {
	bo := f.ByteOrder
	if f.Class == elf.ELFCLASS64 {
		info := bo.Uint64(entry[8:16])
		return uint32(info >> 32)
	}
	info := bo.Uint32(entry[4:8])
	return info >> 8
}
