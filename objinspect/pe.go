package objinspect

import (
	"bytes"
	"debug/pe"

	saferwall "github.com/saferwall/pe"
	"github.com/xyproto/weaklink/wkerrors"
)

// peExports iterates the export directory and annotates each entry by RVA
// via the Section Range Index over virtual addresses (spec.md §4.1 PE row).
// Parsing is delegated to saferwall/pe, which (like this package's own
// readMagic) memory-maps the input instead of reading it whole.
func peExports(path string) ([]Export, error) {
	f, err := saferwall.New(path, &saferwall.Options{})
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindIO, "open PE", err)
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		return nil, wkerrors.New(wkerrors.KindFormat, "parse PE", err)
	}

	idx := NewSectionIndex()
	for _, sec := range f.Sections {
		name := string(bytes.TrimRight(sec.Header.Name[:], "\x00"))
		idx.Insert(uint64(sec.Header.VirtualAddress), uint64(sec.Header.VirtualSize), name)
	}

	var out []Export
	for _, fn := range f.Export.Functions {
		if fn.Name == "" {
			continue
		}
		exp := Export{Name: fn.Name}
		if name, ok := idx.Lookup(uint64(fn.FunctionRVA)); ok {
			exp.Section = name
		}
		out = append(out, exp)
	}
	return dedupeExports(out), nil
}

// coffImports handles PE/COFF object files encountered as archive members
// (spec.md §4.1 COFF row): every symbol whose section number is
// IMAGE_SYM_UNDEFINED is an import, with the long name resolved via the
// COFF string table. debug/pe's File type parses raw .obj COFF the same way
// it parses full PE images, so no third-party COFF reader is needed here —
// see DESIGN.md for why this one reader stays on the standard library.
func coffImports(path string) ([]Import, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindFormat, "open COFF object", err)
	}
	defer f.Close()

	var out []Import
	for _, sym := range f.COFFSymbols {
		if sym.SectionNumber != 0 { // only IMAGE_SYM_UNDEFINED is an import
			continue
		}
		name, err := sym.FullName(f.StringTable)
		if err != nil || name == "" {
			continue
		}
		out = append(out, Import{Name: name})
	}
	return dedupeImports(out), nil
}
