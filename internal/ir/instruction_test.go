package ir

import "testing"

// Scenario 1 from spec.md §8: hand-built program, check textual dump.
func TestInstructionString_HandBuilt(t *testing.T) {
	program := Program{
		{Op: OpVar, Operands: []string{"a", "int32"}},
		{Op: OpMov, Operands: []string{"a", "4"}},
		{Op: OpVar, Operands: []string{"b", "int8"}},
		{Op: OpMov, Operands: []string{"b", "2"}},
		{Op: OpAdd, Operands: []string{"c", "a", "b"}},
	}
	want := []string{"var a int32", "mov a 4", "var b int8", "mov b 2", "add c a b"}
	for i, instr := range program {
		if got := instr.String(); got != want[i] {
			t.Errorf("instruction %d: got %q, want %q", i, got, want[i])
		}
	}
}

func TestInstructionClone_DeepCopiesBody(t *testing.T) {
	fn := Instruction{
		Op:       OpFunction,
		Operands: []string{"main"},
		Body: []Instruction{
			{Op: OpVar, Operands: []string{"x", "int32"}},
		},
	}
	clone := fn.Clone()
	clone.Body[0].Operands[0] = "y"
	if fn.Body[0].Operands[0] != "x" {
		t.Fatalf("clone mutated original body: got %q", fn.Body[0].Operands[0])
	}
}

func TestInstructionHasArg(t *testing.T) {
	add := Instruction{Op: OpAdd, Operands: []string{"c", "a", "b"}}
	if !add.HasArg("a") || !add.HasArg("b") || !add.HasArg("c") {
		t.Fatalf("expected all three operands to match")
	}
	if add.HasArg("z") {
		t.Fatalf("did not expect match for unrelated variable")
	}

	fn := Instruction{Op: OpFunction, Operands: []string{"foo", "x", "int32"}}
	if !fn.HasArg("x") || !fn.HasArg("foo") {
		t.Fatalf("expected function operand list match on name and params")
	}
}

func TestIsNumericLiteral(t *testing.T) {
	cases := map[string]bool{
		"4":    true,
		"-4":   true,
		"a":    false,
		"":     false,
		"-":    false,
		"a1":   false,
		"12a":  false,
		"-123": true,
	}
	for in, want := range cases {
		if got := IsNumericLiteral(in); got != want {
			t.Errorf("IsNumericLiteral(%q) = %v, want %v", in, got, want)
		}
	}
}
