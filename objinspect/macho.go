package objinspect

import (
	macho "github.com/blacktop/go-macho"
	"github.com/xyproto/weaklink/wkerrors"
)

// machoExports enumerates the export trie and maps each export's address to
// a "segment.section" name via the Section Range Index (spec.md §4.1
// Mach-O row). Fat binaries are reduced to their first architecture slice
// before this is called; see machoDylibExports.
func machoExports(f *macho.File) ([]Export, error) {
	idx := sectionIndexFromMacho(f)

	entries, err := f.DyldExports()
	if err != nil {
		// Some dylibs use the older nlist-based export table instead of the
		// dyld export trie; fall back to exported symbols from the symtab.
		return machoExportsFromSymtab(f, idx)
	}

	var out []Export
	for _, e := range entries {
		if e.Name == "" || e.ReExport != "" {
			continue
		}
		exp := Export{Name: e.Name}
		if name, ok := idx.Lookup(e.Address); ok {
			exp.Section = name
		}
		out = append(out, exp)
	}
	return dedupeExports(out), nil
}

// machoExportsFromSymtab is the fallback path for Mach-O files with no dyld
// export trie (e.g. older binaries, or ones built without
// LC_DYLD_EXPORTS_TRIE); it walks the symbol table directly.
func machoExportsFromSymtab(f *macho.File, idx *SectionIndex) ([]Export, error) {
	if f.Symtab == nil {
		return nil, nil
	}
	var out []Export
	for _, sym := range f.Symtab.Syms {
		// Sect == 0 is Mach-O's NO_SECT: the symbol is undefined, not
		// exported. Any other section index places the symbol in this
		// binary and makes it a candidate export.
		if sym.Name == "" || sym.Sect == 0 {
			continue
		}
		exp := Export{Name: sym.Name}
		if name, ok := idx.Lookup(sym.Value); ok {
			exp.Section = name
		}
		out = append(out, exp)
	}
	return dedupeExports(out), nil
}

func sectionIndexFromMacho(f *macho.File) *SectionIndex {
	idx := NewSectionIndex()
	for _, sec := range f.Sections {
		if sec.Size == 0 {
			continue
		}
		idx.Insert(sec.Addr, sec.Size, sec.Seg+"."+sec.Name)
	}
	return idx
}

// machoImports consults every relocation entry (text + data) and keeps the
// referenced symbol name when the relocation is external (spec.md §4.1
// Mach-O row, import column).
func machoImports(f *macho.File) ([]Import, error) {
	if f.Symtab == nil {
		return nil, nil
	}
	var out []Import
	for _, sec := range f.Sections {
		for _, r := range sec.Relocs {
			if !r.Extern {
				continue
			}
			if int(r.Value) >= len(f.Symtab.Syms) {
				continue
			}
			name := f.Symtab.Syms[r.Value].Name
			if name != "" {
				out = append(out, Import{Name: name})
			}
		}
	}
	return dedupeImports(out), nil
}

// machoDylibExports opens path as Mach-O (fat or thin) and returns its
// exports. A fat binary is reduced to its first architecture slice; an
// error is returned if that slice is not Mach-O (spec.md §4.1 Fat Mach-O
// row — the only format-level failure mode unique to this container).
func machoDylibExports(path string) ([]Export, error) {
	if fat, err := macho.OpenFat(path); err == nil {
		defer fat.Close()
		if len(fat.Arches) == 0 {
			return nil, wkerrors.New(wkerrors.KindFormat, "fat Mach-O has no architecture slices", nil)
		}
		return machoExports(fat.Arches[0].File)
	}

	f, err := macho.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindFormat, "open Mach-O", err)
	}
	defer f.Close()
	return machoExports(f)
}

// machoArchiveImports is used by the AR archive walker (archive.go) for
// members that turn out to be Mach-O object files.
func machoArchiveImports(path string) ([]Import, error) {
	if fat, err := macho.OpenFat(path); err == nil {
		defer fat.Close()
		if len(fat.Arches) == 0 {
			return nil, wkerrors.New(wkerrors.KindFormat, "fat Mach-O has no architecture slices", nil)
		}
		return machoImports(fat.Arches[0].File)
	}
	f, err := macho.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindFormat, "open Mach-O", err)
	}
	defer f.Close()
	return machoImports(f)
}
