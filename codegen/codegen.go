// Package codegen implements the Per-Architecture Stub Generator (spec.md
// §4.4): given a resolved stub table and group list, it emits a
// self-contained stub translation unit containing the synthetic symbol
// table, one trampoline per code symbol, accessor functions per data
// symbol, and — when lazy binding is enabled — a resolver trampoline plus
// per-symbol first-call thunks.
//
// Go has no in-line assembly facility inside a .go file; its equivalent
// (spec.md §9: "the implementer must provide an equivalent inline-assembly
// facility; no portable substitute exists") is the per-architecture Plan 9
// assembler operating on a sibling .s file, the same split every
// assembly-backed Go package uses (syscall trampolines, runtime internals).
// Generate therefore writes two streams instead of spec.md §6's single
// writer: goW carries the high-level declarations (forward-declared
// asm-bodied funcs, the Library/Group constants, data accessors) and asmW
// carries the TEXT blocks. Both are written from one Generate call so the
// pair is still produced by a single build-time operation.
//
// Architecture-specific code is modeled as a capability set (spec.md §9
// "Architecture-polymorphic generator"), the same shape flapc's own Target
// interface (xyproto-flapc/target.go) uses for IsMachO/IsELF/IsPE.
package codegen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xyproto/weaklink/wkerrors"
)

// Stub mirrors config.SymbolStub without importing package config, so
// codegen has no dependency on the build-time configuration layer — only
// config depends on codegen (spec.md §4.3 generate_source delegates here).
type Stub struct {
	ImportName string
	ExportName string
	IsData     bool

	// NumArgs is the number of uintptr-sized arguments a code stub's
	// trampoline forwards to the resolved symbol. Unused for data stubs.
	NumArgs int

	// Returns reports whether the trampoline's Go declaration carries a
	// uintptr return value populated from the C ABI return register.
	Returns bool
}

// Group is a named, ordered subset of stub-table indices.
type Group struct {
	Name    string
	Indices []int
}

// Input is everything Generate needs to emit one translation unit.
type Input struct {
	Name        string // Config.Name: the management-object base name
	Target      string // target triple, e.g. "x86_64-unknown-linux-gnu"
	DylibNames  []string
	LazyBinding bool
	Stubs       []Stub
	Groups      []Group

	// TableSuffix overrides the random per-run suffix on the synthetic
	// table's symbol name (spec.md §4.4 item 2, §9 "no re-seed control");
	// tests needing byte-for-byte determinism (spec.md §8 "Generator
	// determinism") set this explicitly instead of relying on Generate's
	// own randomness.
	TableSuffix string
}

// Generate writes the translation unit described by in to goW/asmW,
// following the eight-item emission order of spec.md §4.4.
func Generate(in Input, goW, asmW io.Writer) error {
	arch, err := Resolve(in.Target)
	if err != nil {
		return err
	}

	for _, s := range in.Stubs {
		if !s.IsData && s.NumArgs > arch.MaxArgs() {
			return wkerrors.New(wkerrors.KindUnsupportedTarget,
				fmt.Sprintf("%s takes %d arguments but %s/%s only forwards up to %d in registers",
					s.ExportName, s.NumArgs, arch.Name(), arch.OS(), arch.MaxArgs()), nil)
		}
	}

	suffix := in.TableSuffix
	if suffix == "" {
		suffix = randomSuffix()
	}
	tableName := "weaklinktab" + suffix

	// in.Name is the generated Library constant's identifier as well as
	// the package name; sanitize once so both uses agree.
	in.Name = sanitizeIdent(in.Name)

	g := &emitter{w: goW}
	a := &emitter{w: asmW}

	g.prelude(in.Name)
	g.tableForwardDecl(tableName, len(in.Stubs))
	g.libraryConstant(in, tableName)
	g.groupConstants(in)

	if in.LazyBinding {
		g.resolverEntry(in.Name)
		for i, s := range in.Stubs {
			if !s.IsData {
				g.resolveThunkDecl(i)
			}
		}
		g.tableInit(tableName, in.Stubs)
	}

	a.asmHeader(in.Name)

	if in.LazyBinding {
		arch.WriteResolverTrampoline(a)
	}

	for i, s := range in.Stubs {
		if s.IsData {
			g.dataAccessor(tableName, s, i)
			continue
		}
		g.trampolineDecl(s)
		arch.WriteTrampoline(a, tableName, s, i)
		if in.LazyBinding {
			arch.WriteResolveThunk(a, i, s)
		}
	}

	if g.err != nil {
		return g.err
	}
	return a.err
}

// emitter accumulates the deterministic text emission spec.md §9 calls for
// ("Macro-style multi-line formatted writes are purely ergonomic"); it is a
// thin fmt.Fprintf wrapper in the same directness flapc's BufferWrapper
// (xyproto-flapc/emit.go) writes bytes with, generalized to text.
type emitter struct {
	w   io.Writer
	err error
}

func (e *emitter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *emitter) prelude(name string) {
	e.printf("// Code generated by weaklink. DO NOT EDIT.\n\n")
	e.printf("package %s\n\n", name)
	e.printf("import (\n")
	e.printf("\t\"github.com/xyproto/weaklink/rtlib\"\n")
	e.printf(")\n\n")
}

func (e *emitter) asmHeader(name string) {
	e.printf("// Code generated by weaklink. DO NOT EDIT.\n\n")
	e.printf("#include \"textflag.h\"\n\n")
}

func (e *emitter) tableForwardDecl(tableName string, n int) {
	e.printf("// %s is the synthetic symbol table (spec.md §3); slot i holds\n", tableName)
	e.printf("// the resolved address of the i-th stub once resolve_symbol(i) succeeds.\n")
	e.printf("var %s [%d]uintptr\n\n", tableName, n)
}

func (e *emitter) libraryConstant(in Input, tableName string) {
	e.printf("var %sNames = []string{\n", in.Name)
	for _, s := range in.Stubs {
		e.printf("\t%q,\n", s.ImportName)
	}
	e.printf("}\n\n")

	e.printf("var %sDylibCandidates = []string{\n", in.Name)
	for _, d := range in.DylibNames {
		e.printf("\t%q,\n", d)
	}
	e.printf("}\n\n")

	e.printf("var %s = rtlib.NewLibrary(%sDylibCandidates, %sNames, %s[:])\n\n", in.Name, in.Name, in.Name, tableName)
}

// groupConstants emits each Group as a sorted index slice into the
// Library's table (spec.md §4.4 item 4), rather than in the order symbols
// were passed to AddSymbolGroup, so the runtime resolves a group's symbols
// in ascending stub-table order.
func (e *emitter) groupConstants(in Input) {
	for _, g := range in.Groups {
		indices := append([]int(nil), g.Indices...)
		sort.Ints(indices)

		e.printf("var %s = rtlib.NewGroup(%q, %s, []uint32{", groupIdent(in.Name, g.Name), g.Name, in.Name)
		for i, idx := range indices {
			if i > 0 {
				e.printf(", ")
			}
			e.printf("%d", idx)
		}
		e.printf("})\n\n")
	}
}

// resolverEntry emits the process-local sym_resolver function the resolver
// trampoline calls into (spec.md §4.4 item 5). It delegates straight to
// rtlib.MustResolve, which traps both a resolution error and an
// assertion-violation panic into process abort (spec.md §7), since this
// function runs from a hand-written assembly caller with unknown register
// state and cannot let a Go panic unwind through it.
func (e *emitter) resolverEntry(name string) {
	e.printf("func symResolverImpl(index uint32) uintptr {\n")
	e.printf("\treturn rtlib.MustResolve(%s, index)\n", name)
	e.printf("}\n\n")
}

// trampolineDecl emits the Go-side forward declaration for a code stub
// whose body lives in the sibling assembly file — the standard
// declare-in-.go/implement-in-.s split every Go package with hand-written
// assembly uses. The signature carries s.NumArgs uintptr parameters and, if
// s.Returns, a uintptr result, so the trampoline can actually forward a call
// instead of only jumping to a zero-argument address (spec.md §8 "Trampoline
// correctness"; grounded on ebiten-purego's fixed-arity callN declarations,
// which marshal a bounded number of uintptr arguments into a C call the same
// way).
func (e *emitter) trampolineDecl(s Stub) {
	e.printf("// %s is a trampoline calling the dynamically resolved %q.\n", s.ExportName, s.ImportName)
	e.printf("func %s(%s)%s\n\n", s.ExportName, argList(s.NumArgs), returnSig(s.Returns))
}

// argList renders the Go parameter list for an n-argument trampoline, e.g.
// "a0, a1 uintptr" for n == 2 and "" for n == 0.
func argList(n int) string {
	if n == 0 {
		return ""
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("a%d", i)
	}
	return strings.Join(parts, ", ") + " uintptr"
}

// returnSig renders the Go return-type clause for a trampoline.
func returnSig(returns bool) string {
	if !returns {
		return ""
	}
	return " uintptr"
}

// argFrameSize computes the Go ABI0 argument-frame size in bytes for a
// trampoline's TEXT directive: numArgs parameter slots plus, if returns, one
// result slot, each ptrSize bytes wide.
func argFrameSize(ptrSize, numArgs int, returns bool) int {
	n := numArgs
	if returns {
		n++
	}
	return n * ptrSize
}

func (e *emitter) dataAccessor(tableName string, s Stub, index int) {
	e.printf("// %s returns the resolved address of the data symbol %q.\n", s.ExportName, s.ImportName)
	e.printf("func %s() uintptr {\n", s.ExportName)
	e.printf("\treturn %s[%d]\n", tableName, index)
	e.printf("}\n\n")
}

// resolveThunkDecl emits the Go-side forward declaration for a per-symbol
// first-call thunk whose body lives in the sibling assembly file (spec.md
// §4.4.2). Declaring it in Go rather than only in assembly is what lets
// tableInit take its address with rtlib.FuncPC.
func (e *emitter) resolveThunkDecl(index int) {
	e.printf("func resolve_%d()\n\n", index)
}

// tableInit emits the init() function seeding each code slot of the
// synthetic symbol table with its resolve_<i> thunk's entry address (spec.md
// §4.4 item 6: "initial pointers to per-symbol first-call thunks"). The
// table is plain Go-declared storage (tableForwardDecl); giving it a second,
// conflicting definition via an assembly GLOBL/DATA pair — as an earlier
// version of this package did — is invalid, since a symbol's storage can be
// allocated by a Go var or by GLOBL, never both. Data slots are left at
// their zero value until rtlib.Library.resolveSymbol fills them in when a
// group containing them is resolved; the generated data accessor only reads
// the slot and does not trigger resolution.
func (e *emitter) tableInit(tableName string, stubs []Stub) {
	e.printf("func init() {\n")
	for i, s := range stubs {
		if s.IsData {
			continue
		}
		e.printf("\t%s[%d] = rtlib.FuncPC(resolve_%d)\n", tableName, i, i)
	}
	e.printf("}\n\n")
}

func groupIdent(libName, groupName string) string {
	return libName + "Group" + sanitizeIdent(groupName)
}

func sanitizeIdent(s string) string {
	out := make([]rune, 0, len(s))
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			out = append(out, r)
		case r >= '0' && r <= '9':
			if i == 0 {
				out = append(out, '_')
			}
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
