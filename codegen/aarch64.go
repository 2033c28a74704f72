package codegen

import "github.com/xyproto/weaklink/wkerrors"

// aarch64Arch implements Arch for AArch64 under macOS, Linux, and Windows
// (spec.md §4.4.1 "AArch64 / macOS" and "AArch64 / Linux" rows — Windows is
// generated with the Linux-style absolute-page addressing, since spec.md
// gives no Windows-specific AArch64 template and PE/COFF relocations for
// ARM64 use the same PAGE/PAGEOFF-less form as ELF).
type aarch64Arch struct {
	baseArch
}

func newAArch64(os string) (Arch, error) {
	switch os {
	case "linux", "macos", "windows":
		return aarch64Arch{baseArch{name: "aarch64", os: os}}, nil
	default:
		return nil, wkerrors.New(wkerrors.KindUnsupportedTarget, "aarch64 does not support OS "+os, nil)
	}
}

// argRegs is AArch64's integer argument-register order, identical across
// macOS, Linux, and Windows (AAPCS64 / ARM64 Windows calling conventions
// both use x0-x7 for the first eight integer arguments).
func (a aarch64Arch) argRegs() []string {
	return []string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7"}
}

func (a aarch64Arch) MaxArgs() int { return len(a.argRegs()) }

// WriteTrampoline loads the table slot into R16 (the AAPCS64 intra-procedure
// scratch register, never an argument register), marshals s.NumArgs
// arguments into R0-R7, and branches-with-link so the callee's return
// address is this trampoline, not the trampoline's own caller — a tail `B`
// cannot return a value into the Go-declared result slot (spec.md §8
// "Trampoline correctness"). Grounded on ebiten-purego's fixed-arity callN
// family, which marshals a fixed number of uintptr arguments into a C call
// the same way.
func (a aarch64Arch) WriteTrampoline(e *emitter, table string, s Stub, index int) {
	regs := a.argRegs()
	e.printf("// func %s(...)\n", s.ExportName)
	e.printf("TEXT ·%s(SB), NOSPLIT, $0-%d\n", s.ExportName, argFrameSize(8, s.NumArgs, s.Returns))
	e.printf("\tMOVD ·%s+%d(SB), R16\n", table, index*8)
	for i := 0; i < s.NumArgs; i++ {
		e.printf("\tMOVD a%d+%d(FP), %s\n", i, i*8, regs[i])
	}
	e.printf("\tBL   (R16)\n")
	if s.Returns {
		e.printf("\tMOVD R0, ret+%d(FP)\n", s.NumArgs*8)
	}
	e.printf("\tRET\n\n")
}

// WriteResolveThunk spills the stub's own argument registers to the stack
// frame, calls the shared resolver trampoline to get the address in R16,
// restores the arguments, then calls through R16 exactly as WriteTrampoline
// does (spec.md §4.4.2: "AArch64 loads the index into x16").
func (a aarch64Arch) WriteResolveThunk(e *emitter, index int, s Stub) {
	regs := a.argRegs()[:s.NumArgs]
	e.printf("TEXT ·resolve_%d(SB), NOSPLIT, $%d-0\n", index, len(regs)*8)
	for i, r := range regs {
		e.printf("\tMOVD %s, %d(RSP)\n", r, i*8)
	}
	e.printf("\tMOVD $%d, R16\n", index)
	e.printf("\tBL   ·weaklinkResolverTrampoline(SB)\n")
	for i, r := range regs {
		e.printf("\tMOVD %d(RSP), %s\n", i*8, r)
	}
	e.printf("\tBL   (R16)\n")
	e.printf("\tRET\n\n")
}

// WriteResolverTrampoline emits the single shared resolver leaf, using Go's
// register-based internal ABI directly: R16's index moves into R0 (the
// resolver's argument register) and the resolved address comes back in R0,
// same as symResolverImpl's own register-ABI call. A genuine BL/RET pair —
// never invoked by tail B — so its own RET always returns to the
// resolve_<i> thunk that called it. The previous tail-B-after-BL form
// corrupted the link register: BL into symResolverImpl overwrote R30, and
// the following tail B jumped into the resolved symbol with R30 still
// pointing into this trampoline instead of into the original caller, so the
// resolved symbol's own RET returned to the wrong place.
func (a aarch64Arch) WriteResolverTrampoline(e *emitter) {
	e.printf("TEXT ·weaklinkResolverTrampoline(SB), NOSPLIT, $16-0\n")
	e.printf("\t// R16 holds the symbol-table index on entry; returns the\n")
	e.printf("\t// resolved address in R16. Callable only from resolve_<i>\n")
	e.printf("\t// thunks in this file (spec.md §4.4.2).\n")
	e.printf("\tMOVD R16, R0\n")
	e.printf("\tBL   ·symResolverImpl(SB)\n")
	e.printf("\tMOVD R0, R16\n")
	e.printf("\tRET\n\n")
}
