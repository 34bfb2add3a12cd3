package x86

import (
	"errors"
	"strings"
	"testing"

	"github.com/PDelak/yadfa/internal/asm"
	"github.com/PDelak/yadfa/internal/asm/textasm"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/parser"
	"github.com/PDelak/yadfa/internal/yerrors"
)

func mustParse(t *testing.T, src string) (ir.Program, ir.LabelTable) {
	t.Helper()
	program, table, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return program, table
}

// Scenario 6: a program whose last write is mov a 42 inside main, with a
// user function declared but never called, lowers and invokes cleanly.
func TestLower_SimpleProgramExecutes(t *testing.T) {
	program, table := mustParse(t, "var a int32\nmov a 42\nfunction main ( )\nret\n")
	unit, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	unit.Invoke() // return value is discarded per spec.md scenario 6
}

func TestLower_ArithmeticComputesExpectedResult(t *testing.T) {
	program, table := mustParse(t, "var a int32\nmov a 4\nvar b int32\nmov b 2\nvar c int32\nadd c a b\nmov c c\nret\n")
	unit, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if got := unit.Invoke(); got != 6 {
		t.Fatalf("got %d, want 6 (4+2)", got)
	}
}

func TestLower_DivComputesExpectedResult(t *testing.T) {
	program, table := mustParse(t, "var a int32\nmov a 10\nvar b int32\nmov b 2\nvar c int32\ndiv c a b\nmov c c\nret\n")
	unit, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if got := unit.Invoke(); got != 5 {
		t.Fatalf("got %d, want 5 (10/2)", got)
	}
}

func TestLower_CmpSetsOneWhenTrue(t *testing.T) {
	program, table := mustParse(t, "var a int32\nmov a 4\nvar b int32\nmov b 2\nvar c int32\ncmp_gt c a b\nmov c c\nret\n")
	unit, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if got := unit.Invoke(); got != 1 {
		t.Fatalf("got %d, want 1 (4 > 2)", got)
	}
}

func TestLower_CmpSetsZeroWhenFalse(t *testing.T) {
	program, table := mustParse(t, "var a int32\nmov a 2\nvar b int32\nmov b 4\nvar c int32\ncmp_gt c a b\nmov c c\nret\n")
	unit, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if got := unit.Invoke(); got != 0 {
		t.Fatalf("got %d, want 0 (2 > 4 is false)", got)
	}
}

func TestLower_IfBranchesOnPositiveCondition(t *testing.T) {
	src := "var cond int32\nmov cond 1\nvar r int32\nmov r 0\nif cond 2\nmov r 99\nmov r 7\nmov r r\nret\n"
	program, table := mustParse(t, src)
	unit, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if got := unit.Invoke(); got != 7 {
		t.Fatalf("got %d, want 7 (if cond 2 jumps straight to mov r 7, skipping mov r 99)", got)
	}
}

func TestLower_UserFunctionCallWithArgumentsLowers(t *testing.T) {
	src := "function add ( x int32 y int32 )\n" +
		"var s int32\n" +
		"add s x y\n" +
		"mov s s\n" +
		"ret\n" +
		"var r int32\n" +
		"call add 3 4\n" +
		"mov r s\n" +
		"mov r r\n"
	program, table := mustParse(t, src)
	_, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
}

func TestLower_BuiltinCallInvokesRegisteredFunction(t *testing.T) {
	var captured []int32
	builtins := map[string]asm.BuiltinFunc{
		"write": {Name: "write", Arity: 1, Invoke: func(args []int32) int32 {
			captured = args
			return 0
		}},
	}
	program, table := mustParse(t, "var a int32\nmov a 9\ncall write a\nret\n")
	unit, err := Lower(program, table, builtins, textasm.New())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	unit.Invoke()
	if len(captured) != 1 || captured[0] != 9 {
		t.Fatalf("builtin received %v, want [9]", captured)
	}
}

func TestLower_UnknownCalleeIsCodegenError(t *testing.T) {
	program, table := mustParse(t, "call nonexistent 1\nret\n")
	_, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err == nil {
		t.Fatal("expected a codegen error for an unresolved callee")
	}
	var codegenErr *yerrors.CodegenError
	if !errors.As(err, &codegenErr) {
		t.Fatalf("expected a *yerrors.CodegenError, got %T: %v", err, err)
	}
	if !strings.Contains(codegenErr.Message, "nonexistent") {
		t.Fatalf("expected error to mention the callee name, got %q", codegenErr.Message)
	}
}

func TestLower_UnknownLabelIsCodegenError(t *testing.T) {
	program, table := mustParse(t, "jmp missing\nret\n")
	_, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err == nil {
		t.Fatal("expected a codegen error for an unresolved label")
	}
	var codegenErr *yerrors.CodegenError
	if !errors.As(err, &codegenErr) {
		t.Fatalf("expected a *yerrors.CodegenError, got %T: %v", err, err)
	}
}

func TestLower_OutOfRangeJumpTargetIsCodegenError(t *testing.T) {
	program, table := mustParse(t, "jmp 10\nret\n")
	_, err := Lower(program, table, asm.DefaultBuiltins(), textasm.New())
	if err == nil {
		t.Fatal("expected a codegen error for a jump target outside the instruction range")
	}
	var codegenErr *yerrors.CodegenError
	if !errors.As(err, &codegenErr) {
		t.Fatalf("expected a *yerrors.CodegenError, got %T: %v", err, err)
	}
}

func TestBuildLayout_AssignsOneBasedSlotsInDeclarationOrder(t *testing.T) {
	body := []ir.Instruction{
		{Op: ir.OpVar, Operands: []string{"a", "int32"}},
		{Op: ir.OpVar, Operands: []string{"b", "int32"}},
	}
	l := buildLayout(body)
	aOff, _ := l.offset("a")
	bOff, _ := l.offset("b")
	if aOff != -VSlot || bOff != -2*VSlot {
		t.Fatalf("got a=%d b=%d, want a=%d b=%d", aOff, bOff, -VSlot, -2*VSlot)
	}
}
