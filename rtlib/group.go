package rtlib

import (
	"sync/atomic"

	"github.com/xyproto/weaklink/wkerrors"
)

// groupStatus is the Group's status byte (spec.md §4.6): Unknown, Resolved,
// or Failed, stored with acquire/release ordering.
type groupStatus int32

const (
	statusUnknown groupStatus = iota
	statusResolved
	statusFailed
)

// Group is the Runtime Group Object (spec.md §3, §4.6): a named,
// statically-constructed subset of a Library's stub-table indices,
// resolvable as a unit.
type Group struct {
	name    string
	library *Library
	indices []uint32
	status  atomic.Int32
}

// NewGroup constructs a Group referencing lib's symbol table. Groups hold a
// non-owning back-reference to their Library (spec.md §9: "the cycle... is
// expressed as a non-owning back-reference plus index — never ownership").
func NewGroup(name string, lib *Library, indices []uint32) *Group {
	return &Group{name: name, library: lib, indices: indices}
}

func (g *Group) loadStatus() groupStatus {
	return groupStatus(g.status.Load())
}

func (g *Group) storeStatus(s groupStatus) {
	g.status.Store(int32(s))
}

// ResolveUncached iterates the group's indices, resolving each via the
// Library, and returns the first failure without consulting or updating
// Status (spec.md §4.6 resolve_uncached).
func (g *Group) ResolveUncached() error {
	for _, idx := range g.indices {
		if _, err := g.library.resolveSymbol(int(idx)); err != nil {
			return wkerrors.New(wkerrors.KindGroupResolutionFailed, g.name, err)
		}
	}
	return nil
}

// Resolve is spec.md §4.6's resolve: Unknown performs ResolveUncached and
// transitions to Resolved or Failed; Resolved/Failed short-circuit to the
// cached outcome. spec.md §9's Open Question ("two shapes of resolve in
// different versions") is resolved here by always returning a *Token: in
// non-checked mode the token is a no-op value whose Release/MarkPermanent
// do nothing, so callers have one shape to program against regardless of
// mode.
func (g *Group) Resolve() (*Token, error) {
	switch g.loadStatus() {
	case statusResolved:
		return g.assertedToken(), nil
	case statusFailed:
		return nil, wkerrors.New(wkerrors.KindGroupResolutionFailed, g.name, nil)
	}

	if err := g.ResolveUncached(); err != nil {
		g.storeStatus(statusFailed)
		return nil, err
	}

	g.storeStatus(statusResolved)
	return g.assertedToken(), nil
}

// assertedToken increments the group's per-goroutine assertion counters
// (checked mode only) and returns the Token scoped to that increment, so
// that two overlapping Resolve calls on the same goroutine each own an
// independent Release (spec.md §4.5 assert_resolved, §8 "Scoped assertion
// (checked mode)").
func (g *Group) assertedToken() *Token {
	if g.library.checked {
		g.library.cstate.assertResolved(g.indices)
	}
	return g.newToken()
}

// MarkFailed forces the group's status to Failed, used by tests to
// simulate partial-API scenarios (spec.md §4.6 mark_failed).
func (g *Group) MarkFailed() {
	g.storeStatus(statusFailed)
}

// IfResolved runs fn if the group is (or becomes) resolved, else returns
// the resolution error (spec.md §6 "if_resolved").
func IfResolved[T any](g *Group, fn func() (T, error)) (T, error) {
	var zero T
	if _, err := g.Resolve(); err != nil {
		return zero, err
	}
	return fn()
}

func (g *Group) newToken() *Token {
	if !g.library.checked {
		return &Token{}
	}
	return &Token{group: g, active: true}
}

// Token is the Scoped-assertion token (spec.md §3, §9 "Scoped
// acquisition"): returned by a successful checked-mode Resolve, it holds
// the group's assertion for the lifetime of the caller's scope. Release
// (or, idiomatically, `defer token.Release()`) decrements the per-goroutine
// assertion counters, after which calls through the group's symbols panic
// unless another token on the same goroutine still holds them.
// MarkPermanent promotes the assertion into the global bitmap instead,
// making it outlive the scope — and this token's own Release — for the
// rest of the process (spec.md §3 Token lifecycle, §8 "Scoped assertion
// (checked mode)").
type Token struct {
	group     *Group
	active    bool
	permanent bool
}

// Release deasserts the token's group, unless MarkPermanent was called or
// the token is a non-checked-mode no-op. Safe to call more than once.
func (t *Token) Release() {
	if t == nil || !t.active || t.permanent {
		return
	}
	t.active = false
	t.group.library.cstate.deassertResolved(t.group.indices)
}

// MarkPermanent promotes the token's group indices into the process-wide
// global bitmap (spec.md §4.5 global_assert_resolved) and suppresses
// Release's decrement; the assertion then holds for the process lifetime
// regardless of this token's own scope.
func (t *Token) MarkPermanent() {
	if t == nil || t.group == nil {
		return
	}
	t.permanent = true
	t.group.library.cstate.globalAssertResolved(t.group.indices)
}
