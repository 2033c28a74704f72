package rtlib

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/xyproto/weaklink/wkerrors"
)

// Library is the Runtime Library Object (spec.md §3, §4.5): a process-wide
// state object statically constructed by a generated stub translation
// unit. handle starts at 0 ("not loaded") and is published with
// release/acquire ordering so any thread observing a non-zero handle sees
// a usable one.
type Library struct {
	dylibCandidates []string
	names           []string // stub-table order, parallel to table
	table           []uintptr

	handle atomic.Uintptr

	// checked gates whether resolveSymbol uses the shadow table and the
	// assertion discipline (spec.md §4.5 "Checked mode"). spec.md leaves
	// the activation surface open; this runtime exposes it as a
	// constructor option rather than inferring it from use, so a Library's
	// mode is fixed for its lifetime like its dylib candidate list.
	checked bool
	cstate  *checkedState
}

// LibraryOption configures a Library at construction.
type LibraryOption func(*Library)

// Checked puts a Library into checked mode (spec.md §4.5): the real
// synthetic table is never written, so every call through a stub re-enters
// lazy_resolve and the runtime can enforce scoped assertions.
func Checked() LibraryOption {
	return func(l *Library) {
		l.checked = true
		l.cstate = newCheckedState(len(l.table))
	}
}

// NewLibrary constructs a Library bound to a synthetic symbol table
// (spec.md §4.4 item 3). table is owned by the generated translation unit;
// NewLibrary does not copy it, matching the "statically-initialized
// constant" lifecycle spec.md §3 describes.
func NewLibrary(dylibCandidates, names []string, table []uintptr, opts ...LibraryOption) *Library {
	l := &Library{dylibCandidates: dylibCandidates, names: names, table: table}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handle returns the current handle and whether the Library is loaded.
func (l *Library) Handle() (uintptr, bool) {
	h := l.handle.Load()
	return h, h != 0
}

// SetHandle injects a handle obtained out-of-band, e.g. the running
// executable's own handle (spec.md §4.5 "set_handle").
func (l *Library) SetHandle(h uintptr) {
	l.handle.Store(h)
}

// Load attempts each candidate dylib name in order via the platform
// loader; the first success atomically publishes the handle.
func (l *Library) Load() (uintptr, error) {
	if l.handle.Load() != 0 {
		return 0, wkerrors.New(wkerrors.KindAlreadyLoaded, "", nil)
	}

	var lastErr error
	for _, candidate := range l.dylibCandidates {
		h, err := platformLoader.loadLibrary(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		l.handle.Store(h)
		if Verbose {
			fmt.Fprintf(os.Stderr, "rtlib: loaded %s\n", candidate)
		}
		return h, nil
	}
	if lastErr == nil {
		lastErr = wkerrors.New(wkerrors.KindLoadFailed, "no candidate dylib names configured", nil)
	}
	return 0, wkerrors.New(wkerrors.KindLoadFailed, "all candidates failed", lastErr)
}

// LoadFrom is the explicit-path variant of Load.
func (l *Library) LoadFrom(path string) (uintptr, error) {
	if l.handle.Load() != 0 {
		return 0, wkerrors.New(wkerrors.KindAlreadyLoaded, path, nil)
	}
	h, err := platformLoader.loadLibrary(path)
	if err != nil {
		return 0, wkerrors.New(wkerrors.KindLoadFailed, path, err)
	}
	l.handle.Store(h)
	if Verbose {
		fmt.Fprintf(os.Stderr, "rtlib: loaded %s\n", path)
	}
	return h, nil
}

func (l *Library) ensureLoaded() uintptr {
	if h := l.handle.Load(); h != 0 {
		return h
	}
	h, err := l.Load()
	if err != nil {
		// resolveSymbol's callers cannot observe a load failure here
		// (spec.md §4.5 item 2: "panicking on failure since call sites
		// cannot observe this error"); lazyResolve's caller traps the
		// panic into process abort.
		panic(err)
	}
	return h
}

// resolveSymbol is spec.md §4.5's resolve_symbol(i): in non-checked mode,
// the real table slot is read first and returned if already resolved; in
// checked mode the shadow slot is used instead and the real slot is never
// written.
func (l *Library) resolveSymbol(i int) (uintptr, error) {
	if !l.checked {
		if addr := atomic.LoadUintptr(&l.table[i]); addr != 0 {
			return addr, nil
		}
	} else if addr := l.cstate.load(i); addr != 0 {
		return addr, nil
	}

	handle := l.ensureLoaded()
	addr, err := platformLoader.findSymbol(handle, l.names[i])
	if err != nil {
		return 0, err
	}

	if !l.checked {
		atomic.StoreUintptr(&l.table[i], addr)
	} else {
		l.cstate.store(i, addr)
	}
	return addr, nil
}

// LazyResolve is spec.md §4.5's lazy-resolve entry point, invoked from the
// emitted resolver trampoline: it runs the checked-mode assertion check
// before delegating to resolveSymbol.
func (l *Library) LazyResolve(index uint32) (uintptr, error) {
	i := int(index)
	if l.checked {
		// checkAsserted panics (spec.md §7 kind 10, assertion-violation,
		// is never returned as an error — it aborts the process); the
		// panic is trapped by MustResolve, the function codegen's emitted
		// resolver entry point actually calls.
		l.cstate.checkAsserted(i, l.names[i])
	}
	return l.resolveSymbol(i)
}
