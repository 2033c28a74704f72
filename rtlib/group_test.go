package rtlib

import (
	"sync/atomic"
	"testing"

	"github.com/xyproto/weaklink/wkerrors"
)

// fakeLoader lets tests drive Library.resolveSymbol without touching a
// real dynamic library.
type fakeLoader struct {
	addrs map[string]uintptr // empty/missing name => findSymbol fails
	loads int32
}

func (f *fakeLoader) loadLibrary(path string) (uintptr, error) {
	return 0xdead, nil
}

func (f *fakeLoader) findSymbol(handle uintptr, name string) (uintptr, error) {
	atomic.AddInt32(&f.loads, 1)
	if addr, ok := f.addrs[name]; ok {
		return addr, nil
	}
	return 0, wkerrors.New(wkerrors.KindSymbolMissing, name, nil)
}

func withFakeLoader(t *testing.T, f *fakeLoader) {
	t.Helper()
	prev := platformLoader
	platformLoader = f
	t.Cleanup(func() { platformLoader = prev })
}

func TestResolveUncachedHappyPath(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{"foo": 0x1000, "bar": 0x2000}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"foo", "bar"}, make([]uintptr, 2))
	g := NewGroup("g", lib, []uint32{0, 1})

	if err := g.ResolveUncached(); err != nil {
		t.Fatalf("ResolveUncached: %v", err)
	}
	if lib.table[0] != 0x1000 || lib.table[1] != 0x2000 {
		t.Errorf("expected table populated, got %v", lib.table)
	}
}

func TestGroupResolveCachesSuccess(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{"foo": 0x1000}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"foo"}, make([]uintptr, 1))
	g := NewGroup("g", lib, []uint32{0})

	if _, err := g.Resolve(); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if _, err := g.Resolve(); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if f.loads != 1 {
		t.Errorf("expected exactly 1 platform lookup across both Resolve calls, got %d", f.loads)
	}
}

func TestGroupResolveCachesFailure(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"missing"}, make([]uintptr, 1))
	g := NewGroup("missing", lib, []uint32{0})

	if _, err := g.Resolve(); err == nil {
		t.Fatal("expected first Resolve to fail")
	}
	loadsAfterFirst := f.loads
	if _, err := g.Resolve(); err == nil {
		t.Fatal("expected cached failure on second Resolve")
	}
	if f.loads != loadsAfterFirst {
		t.Errorf("expected no additional platform lookup on cached failure, went from %d to %d", loadsAfterFirst, f.loads)
	}
}

func TestGroupMarkFailedForcesFailure(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{"foo": 0x1000}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"foo"}, make([]uintptr, 1))
	g := NewGroup("g", lib, []uint32{0})
	g.MarkFailed()

	if _, err := g.Resolve(); err == nil {
		t.Fatal("expected Resolve to return the forced failure")
	}
}

func TestCheckedModeScopedAssertion(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{"foo": 0x1000, "bar": 0x2000}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"foo", "bar"}, make([]uintptr, 2), Checked())
	base := NewGroup("base", lib, []uint32{0})
	other := NewGroup("other", lib, []uint32{1})

	token, err := base.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := lib.LazyResolve(0); err != nil {
		t.Errorf("expected asserted symbol to resolve, got %v", err)
	}
	token.Release()

	// Release, with no MarkPermanent ever called, must end the assertion:
	// calling through base's own index now panics (spec.md §8 "Scoped
	// assertion (checked mode)").
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected LazyResolve after Release to panic")
			}
		}()
		_, _ = lib.LazyResolve(0)
	}()

	// other's index was never resolved or asserted; it must panic too.
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected LazyResolve on an unasserted symbol to panic")
		}
	}()
	_, _ = lib.LazyResolve(other.indices[0])
}

func TestCheckedModeMarkPermanentOutlivesRelease(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{"foo": 0x1000}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"foo"}, make([]uintptr, 1), Checked())
	base := NewGroup("base", lib, []uint32{0})

	token, err := base.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	token.MarkPermanent()
	token.Release()

	if _, err := lib.LazyResolve(0); err != nil {
		t.Errorf("expected MarkPermanent's global-bitmap promotion to persist after Release, got %v", err)
	}
}

func TestCheckedModeOverlappingTokensEachOwnAnIncrement(t *testing.T) {
	f := &fakeLoader{addrs: map[string]uintptr{"foo": 0x1000}}
	withFakeLoader(t, f)

	lib := NewLibrary([]string{"libfoo.so"}, []string{"foo"}, make([]uintptr, 1), Checked())
	base := NewGroup("base", lib, []uint32{0})

	first, err := base.Resolve()
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := base.Resolve()
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	first.Release()
	if _, err := lib.LazyResolve(0); err != nil {
		t.Errorf("expected the still-active second token to keep the assertion alive, got %v", err)
	}

	second.Release()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected LazyResolve to panic once every overlapping token is released")
		}
	}()
	_, _ = lib.LazyResolve(0)
}

func TestMustResolveAbortsOnErrorWithoutRecoveredProcess(t *testing.T) {
	// MustResolve calls os.Exit on failure, which this test cannot safely
	// exercise in-process; instead this documents the expectation that
	// LazyResolve itself returns a typed error callers can check without
	// going through MustResolve, covered above.
	t.Skip("MustResolve terminates the process by design; not exercised in-process")
}
