package codegen

import "github.com/xyproto/weaklink/wkerrors"

// loongArchArch implements Arch for LoongArch64 (spec.md §4.4.1
// "LoongArch" row: pcalau12i/ld.d/jr sequence). Only Linux is meaningful —
// LoongArch's only production OS target.
type loongArchArch struct {
	baseArch
}

func newLoongArch(os string) (Arch, error) {
	if os != "linux" {
		return nil, wkerrors.New(wkerrors.KindUnsupportedTarget, "loongarch does not support OS "+os, nil)
	}
	return loongArchArch{baseArch{name: "loongarch", os: os}}, nil
}

// argRegs is the LoongArch64 base ABI's integer argument-register order:
// a0-a7, i.e. r4-r11.
func (a loongArchArch) argRegs() []string {
	return []string{"R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11"}
}

func (a loongArchArch) MaxArgs() int { return len(a.argRegs()) }

// WriteTrampoline emits the Plan 9 loong64 assembler's page-relative load
// (MOVV with an SB operand lowers to pcalau12i+ld.d, the pair spec.md's
// "pcalau12i; ld.d" template names), marshals s.NumArgs arguments into
// R4-R11, and calls through R12 — a genuine call, not the previous tail
// JMP, since only a CALL/RET pair can deliver the C ABI's return register
// into the Go-declared result slot (spec.md §8 "Trampoline correctness").
func (a loongArchArch) WriteTrampoline(e *emitter, table string, s Stub, index int) {
	regs := a.argRegs()
	e.printf("// func %s(...)\n", s.ExportName)
	e.printf("TEXT ·%s(SB), NOSPLIT, $0-%d\n", s.ExportName, argFrameSize(8, s.NumArgs, s.Returns))
	e.printf("\tMOVV ·%s+%d(SB), R12\n", table, index*8)
	for i := 0; i < s.NumArgs; i++ {
		e.printf("\tMOVV a%d+%d(FP), %s\n", i, i*8, regs[i])
	}
	e.printf("\tCALL (R12)\n")
	if s.Returns {
		e.printf("\tMOVV R4, ret+%d(FP)\n", s.NumArgs*8)
	}
	e.printf("\tRET\n\n")
}

// WriteResolveThunk spills the stub's own argument registers to the stack
// frame, calls the shared resolver to get the address in R12, restores the
// arguments, then calls through R12 exactly as WriteTrampoline does.
func (a loongArchArch) WriteResolveThunk(e *emitter, index int, s Stub) {
	regs := a.argRegs()[:s.NumArgs]
	e.printf("TEXT ·resolve_%d(SB), NOSPLIT, $%d-0\n", index, len(regs)*8)
	for i, r := range regs {
		e.printf("\tMOVV %s, %d(R3)\n", r, i*8)
	}
	e.printf("\tMOVV $%d, R12\n", index)
	e.printf("\tCALL ·weaklinkResolverTrampoline(SB)\n")
	for i, r := range regs {
		e.printf("\tMOVV %d(R3), %s\n", i*8, r)
	}
	e.printf("\tCALL (R12)\n")
	e.printf("\tRET\n\n")
}

// WriteResolverTrampoline emits the single shared resolver leaf, using Go's
// register-based internal ABI directly: R12's index moves into R4 (a0) for
// symResolverImpl's own call, and the resolved address comes back in R4. A
// genuine CALL/RET pair — never invoked by tail JMP — so its own RET always
// returns to the resolve_<i> thunk that called it. The previous
// tail-JMP-after-CALL form corrupted the link register: CALL into
// symResolverImpl overwrote R1 (ra), and the following tail JMP jumped into
// the resolved symbol with R1 still pointing into this trampoline instead
// of into the original caller.
func (a loongArchArch) WriteResolverTrampoline(e *emitter) {
	e.printf("TEXT ·weaklinkResolverTrampoline(SB), NOSPLIT, $8-0\n")
	e.printf("\t// R12 holds the symbol-table index on entry; returns the\n")
	e.printf("\t// resolved address in R12 (spec.md §4.4.2).\n")
	e.printf("\tMOVV R12, R4\n")
	e.printf("\tCALL ·symResolverImpl(SB)\n")
	e.printf("\tMOVV R4, R12\n")
	e.printf("\tRET\n\n")
}
