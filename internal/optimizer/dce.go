// Package optimizer implements dead-code elimination driven by computed
// variable live ranges.
package optimizer

import (
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/liveness"
)

// RemoveDeadCode keeps every var/function/call/jmp/nop/label instruction
// unconditionally, and keeps any other instruction only if it falls within
// the live range of at least one variable it references. An instruction
// is kept at most once even if it matches several overlapping intervals.
func RemoveDeadCode(program ir.Program, ranges map[string][]liveness.Range) ir.Program {
	var out ir.Program
	for lineIndex, instr := range program {
		switch instr.Op {
		case ir.OpVar:
			out = append(out, instr.Clone())
		case ir.OpFunction, ir.OpCall, ir.OpJmp, ir.OpNop, ir.OpLabel:
			out = append(out, instr.Clone())
		default:
			if liveAt(instr, lineIndex, ranges) {
				out = append(out, instr.Clone())
			}
		}
	}
	return out
}

// Optimize is the single entry point spec.md's CLI --optimize flag drives;
// today it is a thin alias over RemoveDeadCode, matching optimize's role
// as a one-pass wrapper around remove_dead_code.
func Optimize(program ir.Program, ranges map[string][]liveness.Range) ir.Program {
	return RemoveDeadCode(program, ranges)
}

func liveAt(instr ir.Instruction, lineIndex int, ranges map[string][]liveness.Range) bool {
	for variable, intervals := range ranges {
		if !instr.HasArg(variable) {
			continue
		}
		for _, r := range intervals {
			if lineIndex >= r.Begin && lineIndex <= r.End {
				return true
			}
		}
	}
	return false
}
