package codegen

import "github.com/xyproto/weaklink/wkerrors"

// armArch implements Arch for 32-bit ARM (spec.md §4.4.1 "ARM" row: a
// PC-relative literal-pool load of the table address, dereferenced, then
// `bx r12`). Only Linux is a meaningful target for 32-bit ARM in this
// generator's supported set.
type armArch struct {
	baseArch
}

func newARM(os string) (Arch, error) {
	if os != "linux" {
		return nil, wkerrors.New(wkerrors.KindUnsupportedTarget, "arm does not support OS "+os, nil)
	}
	return armArch{baseArch{name: "arm", os: os}}, nil
}

// argRegs is AAPCS32's integer argument-register order: r0-r3.
func (a armArch) argRegs() []string { return []string{"R0", "R1", "R2", "R3"} }

func (a armArch) MaxArgs() int { return len(a.argRegs()) }

// WriteTrampoline loads the table's address from a literal pool entry,
// offsets by 4*index (32-bit slots), dereferences, marshals s.NumArgs
// arguments into R0-R3, and branches-with-link through R12 — a genuine call,
// not the previous tail `B`, since only a BL/RET pair can deliver the C
// ABI's return register into the Go-declared result slot (spec.md §8
// "Trampoline correctness"). LTYPE literal pools are implicit in Go's arm
// assembler (it emits and places them automatically).
func (a armArch) WriteTrampoline(e *emitter, table string, s Stub, index int) {
	regs := a.argRegs()
	e.printf("// func %s(...)\n", s.ExportName)
	e.printf("TEXT ·%s(SB), NOSPLIT, $0-%d\n", s.ExportName, argFrameSize(4, s.NumArgs, s.Returns))
	e.printf("\tMOVW $·%s+%d(SB), R12\n", table, index*4)
	e.printf("\tMOVW (R12), R12\n")
	for i := 0; i < s.NumArgs; i++ {
		e.printf("\tMOVW a%d+%d(FP), %s\n", i, i*4, regs[i])
	}
	e.printf("\tBL   (R12)\n")
	if s.Returns {
		e.printf("\tMOVW R0, ret+%d(FP)\n", s.NumArgs*4)
	}
	e.printf("\tRET\n\n")
}

// WriteResolveThunk spills the stub's own argument registers to the stack
// frame, calls the shared resolver to get the address in R12, restores the
// arguments, then calls through R12 exactly as WriteTrampoline does
// (spec.md §4.4.2: "ARM uses r12").
func (a armArch) WriteResolveThunk(e *emitter, index int, s Stub) {
	regs := a.argRegs()[:s.NumArgs]
	e.printf("TEXT ·resolve_%d(SB), NOSPLIT, $%d-0\n", index, len(regs)*4)
	for i, r := range regs {
		e.printf("\tMOVW %s, %d(R13)\n", r, i*4)
	}
	e.printf("\tMOVW $%d, R12\n", index)
	e.printf("\tBL   ·weaklinkResolverTrampoline(SB)\n")
	for i, r := range regs {
		e.printf("\tMOVW %d(R13), %s\n", i*4, r)
	}
	e.printf("\tBL   (R12)\n")
	e.printf("\tRET\n\n")
}

// WriteResolverTrampoline emits the single shared resolver leaf, using Go's
// register-based internal ABI directly: R12's index moves into R0 for
// symResolverImpl's own call, and the resolved address comes back in R0. A
// genuine BL/RET pair — never invoked by tail B — so its own RET always
// returns to the resolve_<i> thunk that called it. The previous
// tail-B-after-BL form corrupted the link register the same way aarch64's
// did: BL into symResolverImpl overwrote R14, and the following tail B
// jumped into the resolved symbol with R14 still pointing into this
// trampoline instead of into the original caller.
func (a armArch) WriteResolverTrampoline(e *emitter) {
	e.printf("TEXT ·weaklinkResolverTrampoline(SB), NOSPLIT, $8-0\n")
	e.printf("\t// R12 holds the symbol-table index on entry; returns the\n")
	e.printf("\t// resolved address in R12. Callable only from resolve_<i>\n")
	e.printf("\t// thunks in this file (spec.md §4.4.2).\n")
	e.printf("\tMOVW R12, R0\n")
	e.printf("\tBL   ·symResolverImpl(SB)\n")
	e.printf("\tMOVW R0, R12\n")
	e.printf("\tRET\n\n")
}
