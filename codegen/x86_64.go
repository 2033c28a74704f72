package codegen

import "github.com/xyproto/weaklink/wkerrors"

// x86_64Arch implements Arch for the x86-64 System V (Linux, macOS) and
// Windows ABIs (spec.md §4.4.1 "x86-64 / System V" and "x86-64 / Windows"
// rows). The Plan 9 assembler resolves `table+off(SB)` through a
// PC-relative load on every x86-64 target Go supports, the same
// RIP-relative addressing spec.md's GOTPCREL/`rip + table` templates ask
// for; no GOT indirection is needed because Go binaries are statically
// linked against their own symbol table.
type x86_64Arch struct {
	baseArch
}

func newX86_64(os string) (Arch, error) {
	switch os {
	case "linux", "macos", "windows":
		return x86_64Arch{baseArch{name: "x86_64", os: os}}, nil
	default:
		return nil, wkerrors.New(wkerrors.KindUnsupportedTarget, "x86_64 does not support OS "+os, nil)
	}
}

// argRegs is the C ABI's integer argument-register order: System V on Linux
// and macOS, the four-register Microsoft x64 convention (plus a 32-byte
// shadow space the callee may spill into) on Windows.
func (a x86_64Arch) argRegs() []string {
	if a.os == "windows" {
		return []string{"CX", "DX", "R8", "R9"}
	}
	return []string{"DI", "SI", "DX", "CX", "R8", "R9"}
}

func (a x86_64Arch) MaxArgs() int { return len(a.argRegs()) }

// WriteTrampoline loads the table slot into AX, marshals s.NumArgs
// Go-declared arguments into the target's C ABI registers, calls through
// AX, and stores the return value if s.Returns. A genuine CALL, not the
// previous tail JMP, is required here: a tail jump can forward control but
// not a return — the callee's RET would land back in the Go caller's frame
// with no chance for this trampoline to copy AX into the FP-relative return
// slot the Go ABI0 caller expects (spec.md §8 "Trampoline correctness").
// Grounded on ebiten-purego's fakecgo callN family, which marshals a fixed
// number of uintptr arguments into C-call registers the same way.
func (a x86_64Arch) WriteTrampoline(e *emitter, table string, s Stub, index int) {
	regs := a.argRegs()
	e.printf("// func %s(...)\n", s.ExportName)
	e.printf("TEXT ·%s(SB), NOSPLIT, $0-%d\n", s.ExportName, argFrameSize(8, s.NumArgs, s.Returns))
	e.printf("\tMOVQ ·%s+%d(SB), AX\n", table, index*8)
	for i := 0; i < s.NumArgs; i++ {
		e.printf("\tMOVQ a%d+%d(FP), %s\n", i, i*8, regs[i])
	}
	if a.os == "windows" {
		e.printf("\tSUBQ $32, SP\n")
	}
	e.printf("\tCALL AX\n")
	if a.os == "windows" {
		e.printf("\tADDQ $32, SP\n")
	}
	if s.Returns {
		e.printf("\tMOVQ AX, ret+%d(FP)\n", s.NumArgs*8)
	}
	e.printf("\tRET\n\n")
}

// WriteResolveThunk saves the stub's own argument registers to its stack
// frame around a CALL to the shared resolver, restores them, then forwards
// the call exactly as WriteTrampoline does (spec.md §4.4.2). AX carries the
// resolver's index argument and resolved-address result by the register
// convention weaklinkResolverTrampoline uses, so it never needs saving — it
// never holds a live caller argument on entry (argRegs excludes AX).
func (a x86_64Arch) WriteResolveThunk(e *emitter, index int, s Stub) {
	regs := a.argRegs()[:s.NumArgs]
	e.printf("TEXT ·resolve_%d(SB), NOSPLIT, $%d-0\n", index, len(regs)*8)
	for i, r := range regs {
		e.printf("\tMOVQ %s, %d(SP)\n", r, i*8)
	}
	e.printf("\tMOVQ $%d, AX\n", index)
	e.printf("\tCALL ·weaklinkResolverTrampoline(SB)\n")
	for i, r := range regs {
		e.printf("\tMOVQ %d(SP), %s\n", i*8, r)
	}
	if a.os == "windows" {
		e.printf("\tSUBQ $32, SP\n")
	}
	e.printf("\tCALL AX\n")
	if a.os == "windows" {
		e.printf("\tADDQ $32, SP\n")
	}
	e.printf("\tRET\n\n")
}

// WriteResolverTrampoline emits the single shared resolver leaf, using Go's
// register-based internal ABI directly: AX carries the symbol-table index
// into symResolverImpl and the resolved address back out, with no stack
// marshaling needed for either. A genuine CALL/RET pair, never invoked by
// tail JMP, so its own RET always returns to the resolve_<i> thunk that
// called it rather than into whatever the resolved symbol's address happens
// to point at — the bug this redesign fixes on the other architectures.
func (a x86_64Arch) WriteResolverTrampoline(e *emitter) {
	e.printf("// weaklinkResolverTrampoline resolves the symbol-table index\n")
	e.printf("// passed in AX and returns its address in AX. Callable only from\n")
	e.printf("// resolve_<i> thunks in this file (spec.md §4.4.2).\n")
	e.printf("TEXT ·weaklinkResolverTrampoline(SB), NOSPLIT, $16-0\n")
	if a.os == "windows" {
		e.printf("\tSUBQ $32, SP\n")
	}
	e.printf("\tCALL ·symResolverImpl(SB)\n")
	if a.os == "windows" {
		e.printf("\tADDQ $32, SP\n")
	}
	e.printf("\tRET\n\n")
}
