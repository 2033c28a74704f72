package rtlib

import (
	"fmt"
	"os"
)

// MustResolve is the function codegen's emitted resolver entry point calls
// from the resolver trampoline (spec.md §4.5 "Lazy-resolve entry point").
// It runs LazyResolve and converts any failure — including the
// assertion-violation panic checkAsserted raises — into a process abort,
// because the resolver trampoline executes with unknown/volatile register
// state and cannot unwind a Go panic back through hand-written assembly
// frames (spec.md §7 "Errors inside lazy_resolve... are converted to
// process abort").
func MustResolve(lib *Library, index uint32) (addr uintptr) {
	defer func() {
		if r := recover(); r != nil {
			abort(fmt.Sprintf("weaklink: fatal: %v", r))
		}
	}()

	addr, err := lib.LazyResolve(index)
	if err != nil {
		abort(fmt.Sprintf("weaklink: fatal: %v", err))
	}
	return addr
}

func abort(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
