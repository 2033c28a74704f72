package config

import (
	"errors"
	"testing"

	"github.com/xyproto/weaklink/wkerrors"
)

func TestAddSymbolGroupDuplicateGroupName(t *testing.T) {
	c := New("libfoo")
	if err := c.AddSymbolGroup("g1", []SymbolStub{{ImportName: "foo", ExportName: "foo"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.AddSymbolGroup("g1", []SymbolStub{{ImportName: "bar", ExportName: "bar"}})
	var wkErr *wkerrors.Error
	if !errors.As(err, &wkErr) || wkErr.Kind != wkerrors.KindDuplicateGroup {
		t.Fatalf("expected KindDuplicateGroup, got %v", err)
	}
	// Config must be unchanged: "bar" must not have been added.
	if len(c.Stubs()) != 1 {
		t.Errorf("expected stub table untouched after rejected duplicate group, got %+v", c.Stubs())
	}
}

func TestAddSymbolGroupIncompatibleRedefinitionLeavesConfigUnchanged(t *testing.T) {
	c := New("libfoo")
	if err := c.AddSymbolGroup("g1", []SymbolStub{{ImportName: "foo", ExportName: "foo"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.AddSymbolGroup("g2", []SymbolStub{{ImportName: "other", ExportName: "foo"}})
	var wkErr *wkerrors.Error
	if !errors.As(err, &wkErr) || wkErr.Kind != wkerrors.KindIncompatibleRedefinition {
		t.Fatalf("expected KindIncompatibleRedefinition, got %v", err)
	}
	if _, ok := c.Group("g2"); ok {
		t.Errorf("rejected group must not be registered")
	}
	if len(c.Stubs()) != 1 {
		t.Errorf("expected stub table untouched after rejected redefinition, got %+v", c.Stubs())
	}
}

func TestAddSymbolGroupReusesExistingCompatibleStub(t *testing.T) {
	c := New("libfoo")
	c.AddSymbolGroup("g1", []SymbolStub{{ImportName: "foo", ExportName: "foo"}})
	c.AddSymbolGroup("g2", []SymbolStub{{ImportName: "foo", ExportName: "foo"}, {ImportName: "bar", ExportName: "bar"}})

	if len(c.Stubs()) != 2 {
		t.Fatalf("expected 2 stubs after reuse, got %+v", c.Stubs())
	}
	idxG1, _ := c.Group("g1")
	idxG2, _ := c.Group("g2")
	if idxG1[0] != idxG2[0] {
		t.Errorf("expected g1 and g2 to share the same stub index for foo, got %v and %v", idxG1, idxG2)
	}
}

func TestGroupNamesPreservesInsertionOrder(t *testing.T) {
	c := New("libfoo")
	c.AddSymbolGroup("zeta", []SymbolStub{{ImportName: "a", ExportName: "a"}})
	c.AddSymbolGroup("alpha", []SymbolStub{{ImportName: "b", ExportName: "b"}})

	names := c.GroupNames()
	if len(names) != 2 || names[0] != "zeta" || names[1] != "alpha" {
		t.Errorf("expected insertion order [zeta alpha], got %v", names)
	}
}

func TestHostTripleKnownPairs(t *testing.T) {
	tests := []struct{ arch, os, want string }{
		{"amd64", "linux", "x86_64-unknown-linux-gnu"},
		{"arm64", "darwin", "aarch64-apple-darwin"},
		{"arm", "linux", "arm-unknown-linux-gnu"},
		{"loong64", "linux", "loongarch64-unknown-linux-gnu"},
		{"amd64", "windows", "x86_64-pc-windows-msvc"},
	}
	for _, tt := range tests {
		got := hostTriple(tt.arch, tt.os)
		if got != tt.want {
			t.Errorf("hostTriple(%q, %q) = %q, want %q", tt.arch, tt.os, got, tt.want)
		}
	}
}
