// Package liveness computes backward liveness (GEN/KILL, IN/OUT) over a
// cfg.Graph and derives per-variable live-range intervals from the result.
package liveness

import (
	"sort"

	"github.com/PDelak/yadfa/internal/cfg"
	"github.com/PDelak/yadfa/internal/ir"
)

// set is a string set keyed by variable name.
type set map[string]bool

func newSet(vars ...string) set {
	s := make(set, len(vars))
	for _, v := range vars {
		s[v] = true
	}
	return s
}

func (s set) union(other set) set {
	out := make(set, len(s)+len(other))
	for v := range s {
		out[v] = true
	}
	for v := range other {
		out[v] = true
	}
	return out
}

func (s set) minus(other set) set {
	out := make(set, len(s))
	for v := range s {
		if !other[v] {
			out[v] = true
		}
	}
	return out
}

func (s set) equal(other set) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other[v] {
			return false
		}
	}
	return true
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// GenKill holds the per-instruction use (GEN) and definition (KILL) sets.
type GenKill struct {
	Gen  map[int]set
	Kill map[int]set
}

// BuildUseDef computes GEN and KILL sets for every instruction in program,
// following the per-opcode classification table: mov kills its destination
// and generates its source unless the source is a literal; push/pop/if
// generate their operand; add/sub/mul/div/cmp_* kill arg1 and generate
// arg2/arg3; new/delete generate their operand; var/call/function/ret/label
// contribute nothing.
func BuildUseDef(program ir.Program) GenKill {
	gk := GenKill{Gen: map[int]set{}, Kill: map[int]set{}}
	for i, instr := range program {
		gen := set{}
		kill := set{}
		switch instr.Op {
		case ir.OpMov:
			kill[instr.Operands[0]] = true
			src := instr.Operands[1]
			if !ir.IsNumericLiteral(src) {
				gen[src] = true
			}
		case ir.OpPush, ir.OpPop:
			gen[instr.Operands[0]] = true
		case ir.OpIf:
			gen[instr.Operands[0]] = true
		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv,
			ir.OpCmpEq, ir.OpCmpNeq, ir.OpCmpGt, ir.OpCmpLt, ir.OpCmpLte, ir.OpCmpGte:
			kill[instr.Operands[0]] = true
			gen[instr.Operands[1]] = true
			gen[instr.Operands[2]] = true
		case ir.OpNew, ir.OpDelete:
			gen[instr.Operands[0]] = true
		}
		gk.Gen[i] = gen
		gk.Kill[i] = kill
	}
	return gk
}

// GenAt returns the (sorted) variables generated (used) by instruction n.
func (gk GenKill) GenAt(n int) []string { return gk.Gen[n].sorted() }

// KillAt returns the (sorted) variables killed (defined) by instruction n.
func (gk GenKill) KillAt(n int) []string { return gk.Kill[n].sorted() }

// Sets holds the IN and OUT liveness sets per node, keyed by instruction
// index (and cfg.ExitNode for the virtual exit).
type Sets struct {
	In  map[int]set
	Out map[int]set
}

// InAt returns the (sorted) variables live on entry to node n.
func (s Sets) InAt(n int) []string { return s.In[n].sorted() }

// OutAt returns the (sorted) variables live on exit from node n.
func (s Sets) OutAt(n int) []string { return s.Out[n].sorted() }

// Analyze runs backward liveness dataflow to a fixed point over g, using
// the use/def sets computed from program. Every predecessor of a changed
// node is re-examined, so loop back-edges converge correctly; this is a
// real worklist fixed point, not a single seeded walk.
func Analyze(program ir.Program, g cfg.Graph) Sets {
	gk := BuildUseDef(program)
	backward := cfg.Reverse(g)

	nodes := allNodes(g)
	sets := Sets{In: map[int]set{}, Out: map[int]set{}}
	for _, n := range nodes {
		sets.In[n] = set{}
		sets.Out[n] = set{}
	}

	worklist := append([]int{}, nodes...)
	queued := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		queued[n] = true
	}

	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		queued[n] = false

		out := set{}
		for _, succ := range g.Successors(n) {
			out = out.union(sets.In[succ])
		}
		sets.Out[n] = out

		in := out.minus(gk.Kill[n]).union(gk.Gen[n])

		if !in.equal(sets.In[n]) {
			sets.In[n] = in
			for _, pred := range backward.Successors(n) {
				if !queued[pred] {
					worklist = append(worklist, pred)
					queued[pred] = true
				}
			}
		}
	}
	return sets
}

func allNodes(g cfg.Graph) []int {
	seen := map[int]bool{}
	var nodes []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	for from, tos := range g {
		add(from)
		for _, to := range tos {
			add(to)
		}
	}
	sort.Ints(nodes)
	return nodes
}
