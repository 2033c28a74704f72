package rtlib

import "unsafe"

// FuncPC returns the entry program counter of a forward-declared,
// asm-bodied function value. Generated stub crates use it to seed the
// synthetic table's slots with the addresses of their per-symbol
// resolve_<i> thunks under lazy binding (spec.md §4.4 item 6: "initial
// pointers to per-symbol first-call thunks").
//
// A Go func value is itself a pointer to a funcval struct whose first word
// is the code entry address; this is the same double-indirection trick
// every assembly-heavy package predating reflect.Value.Pointer's official
// support for this use relies on. Only safe to call on a package-level,
// non-closure function — exactly the shape resolve_<i> thunks have.
func FuncPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}
