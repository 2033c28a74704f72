package config

import "strings"

// adjustedStub is the macOS symbol-name compensation view of a SymbolStub
// (spec.md §4.3 "Symbol-name adjustment"). The platform linker on Darwin
// automatically prepends an underscore to every exported symbol name, so
// either the emitted symbol or the runtime lookup name must compensate;
// this mirrors which one flapc's own Mach-O writer handles via its
// asm_symbol_prefix hook (xyproto-flapc/target.go IsMachO + macho.go).
func adjustedStub(target string, adjust bool, s SymbolStub) SymbolStub {
	if !adjust || !isMacOSTarget(target) || s.IsData {
		return s
	}
	if s.ExportName != s.ImportName {
		return s
	}
	if strings.HasPrefix(s.ImportName, "_") {
		s.ImportName = strings.TrimPrefix(s.ImportName, "_")
		return s
	}
	s.ExportName = "_" + s.ExportName
	return s
}

func isMacOSTarget(target string) bool {
	return strings.Contains(target, "apple")
}

// adjustedStubs returns a copy of stubs with per-stub macOS adjustment
// applied; the stored Config.stubs are never mutated (spec.md §4.3:
// "Adjustment operates on a copy").
func adjustedStubs(target string, adjust bool, stubs []SymbolStub) []SymbolStub {
	out := make([]SymbolStub, len(stubs))
	for i, s := range stubs {
		out[i] = adjustedStub(target, adjust, s)
	}
	return out
}
