package optimizer

import (
	"testing"

	"github.com/PDelak/yadfa/internal/cfg"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/liveness"
)

// var/label/nop always survive even when there is no live range at all.
func TestRemoveDeadCode_KeepsStructuralInstructionsUnconditionally(t *testing.T) {
	program := ir.Program{
		{Op: ir.OpVar, Operands: []string{"a", "int32"}},
		{Op: ir.OpLabel, Operands: []string{"start"}},
		{Op: ir.OpNop},
	}
	out := RemoveDeadCode(program, map[string][]liveness.Range{})
	if len(out) != len(program) {
		t.Fatalf("got %d instructions, want all %d kept", len(out), len(program))
	}
}

func TestRemoveDeadCode_DropsInstructionOutsideAnyLiveRange(t *testing.T) {
	program := ir.Program{
		{Op: ir.OpMov, Operands: []string{"a", "1"}},
		{Op: ir.OpMov, Operands: []string{"b", "2"}},
	}
	ranges := map[string][]liveness.Range{
		"a": {{Begin: 0, End: 0}},
	}
	out := RemoveDeadCode(program, ranges)
	if len(out) != 1 {
		t.Fatalf("got %d instructions, want 1 (only the mov a 1 kept)", len(out))
	}
	if out[0].String() != "mov a 1" {
		t.Fatalf("got %q, want %q", out[0].String(), "mov a 1")
	}
}

// End-to-end: build live ranges for the straight-line scenario then check
// that dead code elimination drops nothing reachable by a real variable.
func TestOptimize_EndToEndStraightLineProgram(t *testing.T) {
	program := ir.Program{
		{Op: ir.OpVar, Operands: []string{"a", "int32"}},
		{Op: ir.OpMov, Operands: []string{"a", "4"}},
		{Op: ir.OpVar, Operands: []string{"b", "int8"}},
		{Op: ir.OpMov, Operands: []string{"b", "2"}},
		{Op: ir.OpAdd, Operands: []string{"c", "a", "b"}},
	}
	g := cfg.Build(program, ir.LabelTable{})
	sets := liveness.Analyze(program, g)
	ranges := liveness.ComputeLiveRanges(sets)

	out := Optimize(program, ranges)
	if len(out) != len(program) {
		t.Fatalf("got %d instructions, want all %d kept (every mov feeds the add)", len(out), len(program))
	}
}
