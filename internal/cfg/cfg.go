// Package cfg builds control-flow graphs over a flat ir.Program. Function
// bodies are opaque single nodes here, exactly as build_cfg treated
// op_function in the original: branching inside a function body is a
// separate graph the caller builds over instr.Body, not something this
// package inlines into the enclosing graph.
package cfg

import (
	"strconv"

	"github.com/PDelak/yadfa/internal/ir"
)

// ExitNode is the virtual sink every program eventually flows into.
const ExitNode = -1

// Graph is a multimap from instruction index to the indices of its
// successors (or ExitNode). Edge order is insertion order, not sorted,
// matching the original's std::multimap iteration within a key.
type Graph map[int][]int

func (g Graph) addEdge(from, to int) {
	g[from] = append(g[from], to)
}

// Build constructs the forward control-flow graph of program, resolving
// jmp/if targets against table when they are identifiers and by raw
// instruction-index offset when they are numeric literals.
func Build(program ir.Program, table ir.LabelTable) Graph {
	g := Graph{}
	n := len(program)
	if n == 0 {
		return g
	}
	if n == 1 {
		g.addEdge(0, ExitNode)
		return g
	}

	var callStack []int
	for i := 0; i < n; i++ {
		instr := program[i]
		last := i == n-1

		switch instr.Op {
		case ir.OpJmp:
			if target, ok := resolveTarget(instr.Operands[0], i, table); ok {
				g.addEdge(i, target)
			}

		case ir.OpIf:
			if target, ok := resolveTarget(instr.Operands[1], i, table); ok {
				g.addEdge(i, target)
			}
			if last {
				g.addEdge(i, ExitNode)
			} else {
				g.addEdge(i, i+1)
			}

		case ir.OpCall:
			// Mirrors build_cfg's literal treatment of the callee operand
			// as a numeric offset: it only produces a usable edge when the
			// callee happens to parse as an integer, which in practice it
			// never does for a real function name. Kept as-is rather than
			// invented, per the call/CFG numeric-offset quirk.
			if offset, ok := parseOffset(instr.Operands[0]); ok {
				g.addEdge(i, i+offset)
			}
			g.addEdge(i, i+1)
			callStack = append(callStack, i)

		case ir.OpRet:
			if len(callStack) > 0 {
				top := callStack[len(callStack)-1]
				callStack = callStack[:len(callStack)-1]
				g.addEdge(i, top+1)
			}

		default:
			if last {
				g.addEdge(i, ExitNode)
			} else {
				g.addEdge(i, i+1)
			}
		}
	}
	return g
}

// Reverse builds the backward graph: an edge a->b in g becomes b->a.
func Reverse(g Graph) Graph {
	backward := Graph{}
	for from, tos := range g {
		for _, to := range tos {
			backward.addEdge(to, from)
		}
	}
	return backward
}

// Successors returns the out-edges of node n in insertion order.
func (g Graph) Successors(n int) []int {
	return g[n]
}

func resolveTarget(operand string, from int, table ir.LabelTable) (int, bool) {
	if offset, ok := parseOffset(operand); ok {
		return from + offset, true
	}
	idx, ok := table[operand]
	return idx, ok
}

func parseOffset(operand string) (int, bool) {
	if !ir.IsNumericLiteral(operand) {
		return 0, false
	}
	v, err := strconv.Atoi(operand)
	if err != nil {
		return 0, false
	}
	return v, true
}
