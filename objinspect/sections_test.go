package objinspect

import "testing"

func TestSectionIndexLookup(t *testing.T) {
	idx := NewSectionIndex()
	idx.Insert(0x1000, 0x100, ".text")
	idx.Insert(0x2000, 0x50, ".data")
	idx.Insert(0x100, 0x10, ".header")

	tests := []struct {
		offset   uint64
		wantName string
		wantOK   bool
	}{
		{0x1000, ".text", true},
		{0x1050, ".text", true},
		{0x10ff, ".text", true},
		{0x1100, "", false}, // one past .text's end
		{0x2010, ".data", true},
		{0x50, "", false}, // before any section
		{0x2050, "", false},
	}

	for _, tt := range tests {
		name, ok := idx.Lookup(tt.offset)
		if ok != tt.wantOK || name != tt.wantName {
			t.Errorf("Lookup(%#x) = (%q, %v), want (%q, %v)", tt.offset, name, ok, tt.wantName, tt.wantOK)
		}
	}
}

func TestSectionIndexTieBreak(t *testing.T) {
	idx := NewSectionIndex()
	// Two adjacent ranges; offset sits exactly on the boundary.
	idx.Insert(0x0, 0x10, "first")
	idx.Insert(0x10, 0x10, "second")

	if name, ok := idx.Lookup(0x10); !ok || name != "second" {
		t.Errorf("boundary offset should resolve to the later range starting there, got (%q, %v)", name, ok)
	}
	if name, ok := idx.Lookup(0xf); !ok || name != "first" {
		t.Errorf("offset just before boundary should resolve to the earlier range, got (%q, %v)", name, ok)
	}
}

func TestDedupeExportsKeepsFirstSeenKeepsSection(t *testing.T) {
	in := []Export{
		{Name: "foo", Section: ""},
		{Name: "foo", Section: ".text"},
		{Name: "bar", Section: ".data"},
	}
	out := dedupeExports(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped exports, got %d: %+v", len(out), out)
	}
	if out[0].Name != "foo" || out[0].Section != ".text" {
		t.Errorf("expected duplicate's section to backfill the empty one, got %+v", out[0])
	}
}

func TestDedupeImports(t *testing.T) {
	in := []Import{{Name: "a"}, {Name: "b"}, {Name: "a"}}
	out := dedupeImports(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped imports, got %d: %+v", len(out), out)
	}
}
