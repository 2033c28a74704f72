// Package config implements the Stub Configuration (spec.md §4.3): it
// accumulates a user's symbol stubs and named groups, enforces the
// same-export-name-implies-same-import-name-and-kind invariant, and
// performs platform-specific symbol-name adjustment before handing the
// result to codegen.Generate.
package config

import (
	"io"
	"runtime"

	env "github.com/xyproto/env/v2"
	"github.com/xyproto/weaklink/wkerrors"
)

// SymbolStub is one entry of the build-time stub table (spec.md §3
// "SymbolStub"). ImportName is looked up in the dynamic library at run
// time; ExportName is the symbol emitted from the stub translation unit.
type SymbolStub struct {
	ImportName string
	ExportName string
	IsData     bool

	// NumArgs is the number of uintptr-sized arguments the generated
	// trampoline forwards to the resolved symbol (code stubs only); zero
	// for a nullary function or a data stub.
	NumArgs int

	// Returns reports whether the generated trampoline's Go declaration
	// carries a uintptr return value.
	Returns bool
}

// Config accumulates stubs and groups for a single generated translation
// unit (spec.md §3 "Configuration").
type Config struct {
	Name              string
	Target            string
	DylibNames        []string
	AdjustSymbolNames bool
	LazyBinding       bool

	stubs     []SymbolStub
	stubIndex map[string]int // export name -> index into stubs
	groups    map[string][]int
	groupOrd  []string // preserves insertion order for deterministic emission
}

// New seeds a Config with the target triple from the WEAKLINK_TARGET
// environment variable (falling back to the build-host triple derived from
// runtime.GOARCH/GOOS, matching spec.md §4.3's "seeded from environment"
// clause) and the defaults: no dylib names, name adjustment on, lazy
// binding off.
func New(name string) *Config {
	return &Config{
		Name:              name,
		Target:            defaultTarget(),
		AdjustSymbolNames: true,
		LazyBinding:       false,
		stubIndex:         make(map[string]int),
		groups:            make(map[string][]int),
	}
}

func defaultTarget() string {
	if t := env.Str("WEAKLINK_TARGET"); t != "" {
		return t
	}
	return hostTriple(runtime.GOARCH, runtime.GOOS)
}

func hostTriple(goarch, goos string) string {
	arch := map[string]string{
		"amd64":    "x86_64",
		"arm64":    "aarch64",
		"arm":      "arm",
		"loong64":  "loongarch64",
	}[goarch]
	if arch == "" {
		arch = goarch
	}
	osName := map[string]string{
		"linux":   "unknown-linux-gnu",
		"darwin":  "apple-darwin",
		"windows": "pc-windows-msvc",
	}[goos]
	if osName == "" {
		osName = goos
	}
	return arch + "-" + osName
}

// AddSymbolGroup registers a named group of stubs (spec.md §4.3
// add_symbol_group). It fails with KindDuplicateGroup if the group name is
// already registered. For each incoming stub, an export name that is new to
// the Config is appended to the stub table; an export name that already
// exists must match on ImportName and IsData or the call fails with
// KindIncompatibleRedefinition, leaving the Config unchanged (spec.md §3
// Configuration invariant, §8 "Configuration rejection").
func (c *Config) AddSymbolGroup(groupName string, symbols []SymbolStub) error {
	if _, exists := c.groups[groupName]; exists {
		return wkerrors.New(wkerrors.KindDuplicateGroup, groupName, nil)
	}

	// Validate against the redefinition invariant before mutating any
	// state, so a failed call leaves the Config exactly as it was. Stubs
	// earlier in this same call count as existing for later ones.
	pending := make(map[string]SymbolStub, len(symbols))
	for _, s := range symbols {
		existing, ok := pending[s.ExportName]
		if !ok {
			if existingIdx, found := c.stubIndex[s.ExportName]; found {
				existing, ok = c.stubs[existingIdx], true
			}
		}
		if ok {
			if existing.ImportName != s.ImportName || existing.IsData != s.IsData {
				return wkerrors.New(wkerrors.KindIncompatibleRedefinition, s.ExportName, nil)
			}
			continue
		}
		pending[s.ExportName] = s
	}

	indices := make([]int, 0, len(symbols))
	for _, s := range symbols {
		if existingIdx, ok := c.stubIndex[s.ExportName]; ok {
			indices = append(indices, existingIdx)
			continue
		}
		idx := len(c.stubs)
		c.stubs = append(c.stubs, s)
		c.stubIndex[s.ExportName] = idx
		indices = append(indices, idx)
	}

	c.groups[groupName] = indices
	c.groupOrd = append(c.groupOrd, groupName)
	return nil
}

// Stubs returns the deduplicated stub table in insertion order. The slice
// is owned by the caller; mutating it does not affect the Config.
func (c *Config) Stubs() []SymbolStub {
	out := make([]SymbolStub, len(c.stubs))
	copy(out, c.stubs)
	return out
}

// Group returns the stub-table indices registered for groupName, and
// whether that group exists.
func (c *Config) Group(name string) ([]int, bool) {
	idx, ok := c.groups[name]
	return idx, ok
}

// GroupNames returns the registered group names in the order they were
// added, for deterministic emission (spec.md §8 "Generator determinism").
func (c *Config) GroupNames() []string {
	out := make([]string, len(c.groupOrd))
	copy(out, c.groupOrd)
	return out
}

// GenerateSource writes the self-contained stub translation unit described
// by this Config to goW (Go source) and asmW (Plan 9 assembly) (spec.md
// §4.4, §6 generate_source, generalized to two writers per codegen's doc
// comment since Go has no in-line assembly facility). The heavy lifting
// lives in package codegen; this method exists so callers only need to
// import package config for the whole build-time API surface.
func (c *Config) GenerateSource(goW, asmW io.Writer, opts ...GenerateOption) error {
	return generateSourcePair(c, goW, asmW, opts...)
}
