package codegen

import (
	"strings"

	"github.com/xyproto/weaklink/wkerrors"
)

// Arch is the capability set spec.md §9 calls for: a small set of methods
// covering everything that differs between {x86-64, AArch64, ARM,
// LoongArch} x {Linux, macOS, Windows}. The embeddable baseArch supplies
// only Name and OS; every other method is implemented by each concrete
// architecture.
type Arch interface {
	Name() string
	OS() string

	// MaxArgs is the number of uintptr-sized arguments this target's C ABI
	// forwards in registers (spec.md §4.4.1's per-architecture register
	// lists); Generate rejects any Stub whose NumArgs exceeds it rather
	// than silently dropping arguments (ebiten-purego's fixed-arity call5
	// grounds the "forward a bounded number of register arguments" shape
	// this generalizes, per the maintainer note on trampoline correctness).
	MaxArgs() int

	// WriteTrampoline emits the full assembly block for a single code
	// trampoline: load slot `index` of `table`, marshal s.NumArgs
	// Go-declared uintptr arguments into the target's C ABI argument
	// registers, call through the loaded address, and — if s.Returns —
	// store the C ABI return register into the Go-declared return slot
	// (spec.md §4.4.1, §8 "Trampoline correctness").
	WriteTrampoline(e *emitter, table string, s Stub, index int)

	// WriteResolveThunk emits the resolve_<index> first-call thunk: save
	// the stub's own s.NumArgs argument registers, call the shared
	// resolver trampoline to get the address, restore the saved
	// registers, and forward the call exactly as WriteTrampoline would
	// (spec.md §4.4.2).
	WriteResolveThunk(e *emitter, index int, s Stub)

	// WriteResolverTrampoline emits the single shared, ABI-neutral
	// resolver trampoline: given a symbol-table index in the
	// architecture's chosen convention register, call symResolverImpl and
	// return the resolved address in that same register (spec.md §4.4.2).
	WriteResolverTrampoline(e *emitter)
}

// Resolve parses a target triple into an Arch, recognizing the prefixes and
// substrings spec.md §6 lists ("Target-triple surface"). Unrecognized
// combinations fail fast with KindUnsupportedTarget.
func Resolve(target string) (Arch, error) {
	var os string
	switch {
	case strings.Contains(target, "apple"):
		os = "macos"
	case strings.Contains(target, "linux"):
		os = "linux"
	case strings.Contains(target, "windows"):
		os = "windows"
	default:
		return nil, wkerrors.New(wkerrors.KindUnsupportedTarget, "unrecognized OS in triple "+target, nil)
	}

	switch {
	case strings.HasPrefix(target, "x86_64-"):
		return newX86_64(os)
	case strings.HasPrefix(target, "aarch64-"):
		return newAArch64(os)
	case strings.HasPrefix(target, "arm"):
		return newARM(os)
	case strings.HasPrefix(target, "loongarch"):
		return newLoongArch(os)
	default:
		return nil, wkerrors.New(wkerrors.KindUnsupportedTarget, "unrecognized architecture in triple "+target, nil)
	}
}

// baseArch supplies Name and OS; concrete archs embed it and implement the
// rest of Arch themselves.
type baseArch struct {
	name string
	os   string
}

func (b baseArch) Name() string { return b.name }
func (b baseArch) OS() string   { return b.os }
