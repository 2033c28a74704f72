package codegen

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xyproto/weaklink/wkerrors"
)

func sampleInput() Input {
	return Input{
		Name:       "libfoo",
		Target:     "x86_64-unknown-linux-gnu",
		DylibNames: []string{"libfoo.so.1", "libfoo.so"},
		Stubs: []Stub{
			{ImportName: "foo_init", ExportName: "FooInit"},
			{ImportName: "foo_buf", ExportName: "FooBuf", IsData: true},
		},
		Groups:      []Group{{Name: "core", Indices: []int{0, 1}}},
		TableSuffix: "deadbeef",
	}
}

func TestGenerateDeterministicWithFixedSuffix(t *testing.T) {
	in := sampleInput()

	var goA, asmA, goB, asmB bytes.Buffer
	if err := Generate(in, &goA, &asmA); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if err := Generate(in, &goB, &asmB); err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	if goA.String() != goB.String() {
		t.Errorf("expected identical Go output across runs with a fixed TableSuffix:\n--- A ---\n%s\n--- B ---\n%s", goA.String(), goB.String())
	}
	if asmA.String() != asmB.String() {
		t.Errorf("expected identical asm output across runs with a fixed TableSuffix:\n--- A ---\n%s\n--- B ---\n%s", asmA.String(), asmB.String())
	}
}

func TestGenerateUnsupportedTarget(t *testing.T) {
	in := sampleInput()
	in.Target = "sparc-unknown-solaris"

	var goW, asmW bytes.Buffer
	err := Generate(in, &goW, &asmW)
	var wkErr *wkerrors.Error
	if !errors.As(err, &wkErr) || wkErr.Kind != wkerrors.KindUnsupportedTarget {
		t.Fatalf("expected KindUnsupportedTarget, got %v", err)
	}
}

func TestGenerateEmitsTrampolineAndAccessor(t *testing.T) {
	in := sampleInput()

	var goW, asmW bytes.Buffer
	if err := Generate(in, &goW, &asmW); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	goSrc := goW.String()
	if !bytes.Contains([]byte(goSrc), []byte("func FooInit()")) {
		t.Errorf("expected forward declaration for code stub, got:\n%s", goSrc)
	}
	if !bytes.Contains([]byte(goSrc), []byte("func FooBuf() uintptr")) {
		t.Errorf("expected data accessor for data stub, got:\n%s", goSrc)
	}

	asmSrc := asmW.String()
	if !bytes.Contains([]byte(asmSrc), []byte("TEXT ·FooInit(SB)")) {
		t.Errorf("expected trampoline TEXT block for FooInit, got:\n%s", asmSrc)
	}
}

func TestGenerateLazyBindingEmitsResolverAndThunks(t *testing.T) {
	in := sampleInput()
	in.LazyBinding = true

	var goW, asmW bytes.Buffer
	if err := Generate(in, &goW, &asmW); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !bytes.Contains(goW.Bytes(), []byte("func symResolverImpl(index uint32) uintptr")) {
		t.Errorf("expected resolver entry point in Go output, got:\n%s", goW.String())
	}
	if !bytes.Contains(asmW.Bytes(), []byte("weaklinkResolverTrampoline")) {
		t.Errorf("expected resolver trampoline in asm output, got:\n%s", asmW.String())
	}
	if !bytes.Contains(asmW.Bytes(), []byte("resolve_0")) {
		t.Errorf("expected per-symbol resolve thunk in asm output, got:\n%s", asmW.String())
	}
}

func TestWriteTrampolineForwardsArguments(t *testing.T) {
	in := sampleInput()
	in.Stubs = append(in.Stubs, Stub{ImportName: "add_one", ExportName: "AddOne", NumArgs: 1, Returns: true})

	var goW, asmW bytes.Buffer
	if err := Generate(in, &goW, &asmW); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !bytes.Contains(goW.Bytes(), []byte("func AddOne(a0 uintptr) uintptr")) {
		t.Errorf("expected arity-aware Go declaration, got:\n%s", goW.String())
	}

	asmSrc := asmW.String()
	if !bytes.Contains([]byte(asmSrc), []byte("MOVQ a0+0(FP), DI")) {
		t.Errorf("expected first argument marshaled into the SysV DI register, got:\n%s", asmSrc)
	}
	if !bytes.Contains([]byte(asmSrc), []byte("MOVQ AX, ret+8(FP)")) {
		t.Errorf("expected the call's return value stored at the Go-declared return slot, got:\n%s", asmSrc)
	}
	if !bytes.Contains([]byte(asmSrc), []byte("CALL AX")) {
		t.Errorf("expected a genuine CALL rather than a tail JMP, so a return value can be forwarded, got:\n%s", asmSrc)
	}
}

func TestWriteResolveThunkPreservesArgumentsAcrossResolve(t *testing.T) {
	in := sampleInput()
	in.LazyBinding = true
	in.Stubs = append(in.Stubs, Stub{ImportName: "add_one", ExportName: "AddOne", NumArgs: 1, Returns: true})

	var goW, asmW bytes.Buffer
	if err := Generate(in, &goW, &asmW); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	asmSrc := asmW.String()
	// index 0 = FooInit, index 1 = FooBuf (data, no resolve thunk), index 2 = AddOne.
	if !bytes.Contains([]byte(asmSrc), []byte("TEXT ·resolve_2(SB)")) {
		t.Errorf("expected a resolve thunk for AddOne at index 2, got:\n%s", asmSrc)
	}
	if !bytes.Contains([]byte(asmSrc), []byte("MOVQ DI, 0(SP)")) {
		t.Errorf("expected resolve_2 to preserve its incoming argument register before resolving, got:\n%s", asmSrc)
	}
	if !bytes.Contains([]byte(asmSrc), []byte("CALL ·weaklinkResolverTrampoline(SB)")) {
		t.Errorf("expected resolve_2 to call the shared resolver trampoline, got:\n%s", asmSrc)
	}
}

func TestGenerateRejectsArityExceedingArchCapability(t *testing.T) {
	in := sampleInput()
	in.Target = "arm-unknown-linux-gnu" // max 4 args
	in.Stubs = append(in.Stubs, Stub{ImportName: "many", ExportName: "Many", NumArgs: 5})

	var goW, asmW bytes.Buffer
	err := Generate(in, &goW, &asmW)
	var wkErr *wkerrors.Error
	if !errors.As(err, &wkErr) || wkErr.Kind != wkerrors.KindUnsupportedTarget {
		t.Fatalf("expected KindUnsupportedTarget for arity exceeding capability, got %v", err)
	}
}

func TestResolveAcceptsKnownTriples(t *testing.T) {
	triples := []string{
		"x86_64-unknown-linux-gnu",
		"x86_64-pc-windows-msvc",
		"aarch64-apple-darwin",
		"aarch64-unknown-linux-gnu",
		"arm-unknown-linux-gnu",
		"loongarch64-unknown-linux-gnu",
	}
	for _, triple := range triples {
		if _, err := Resolve(triple); err != nil {
			t.Errorf("Resolve(%q) failed: %v", triple, err)
		}
	}
}

func TestResolveRejectsUnsupportedCombination(t *testing.T) {
	// 32-bit ARM is only wired for Linux.
	if _, err := Resolve("arm-apple-darwin"); err == nil {
		t.Errorf("expected arm-apple-darwin to be rejected")
	}
}

func TestSanitizeIdent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"libfoo", "libfoo"},
		{"lib-foo.so", "lib_foo_so"},
		{"3rdparty", "_3rdparty"},
	}
	for _, tt := range tests {
		if got := sanitizeIdent(tt.in); got != tt.want {
			t.Errorf("sanitizeIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
