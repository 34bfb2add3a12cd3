// Package diagnostics implements the external dump/emit collaborators
// spec.md §6 names: raw CFG/use-def/liveness dumps, a Graphviz DOT
// rendering of the CFG annotated with GEN/KILL/LIVE record subnodes,
// gnuplot interval files, and the post-optimize program dump. None of
// this feeds back into the pipeline; it only formats what the earlier
// stages already computed, grounded line-for-line on
// original_source/yadfa.cpp's dump_* family.
package diagnostics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PDelak/yadfa/internal/cfg"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/liveness"
)

// DumpRawCFG writes the numbered instruction list followed by the
// from->to edge list, matching dump_raw_cfg's layout.
func DumpRawCFG(program ir.Program, g cfg.Graph, out io.Writer) {
	for i, instr := range program {
		fmt.Fprintf(out, "%d <- %s\n", i, instr.String())
	}
	fmt.Fprintln(out)
	for _, from := range sortedKeys(g) {
		for _, to := range g[from] {
			fmt.Fprintf(out, "\t%d->%d\n", from, to)
		}
	}
}

// DumpRawGenSet writes the GEN set, one line per instruction index,
// exactly as dump_raw_gen_set/dump_raw_use_def_set_impl do.
func DumpRawGenSet(program ir.Program, gk liveness.GenKill, out io.Writer) {
	fmt.Fprintln(out, "GEN set :")
	for i := range program {
		fmt.Fprintf(out, "\t%d->%s\n", i, strings.Join(gk.GenAt(i), ","))
	}
}

// DumpRawKillSet writes the KILL set, mirroring dump_raw_kill_set.
func DumpRawKillSet(program ir.Program, gk liveness.GenKill, out io.Writer) {
	fmt.Fprintln(out, "KILL set :")
	for i := range program {
		fmt.Fprintf(out, "\t%d->%s\n", i, strings.Join(gk.KillAt(i), ","))
	}
}

func sortedKeys(g cfg.Graph) []int {
	keys := make([]int, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// DumpRawLiveness writes in()/out() per instruction (skipping the
// virtual exit node -1), matching dump_raw_liveness.
func DumpRawLiveness(sets liveness.Sets, program ir.Program, out io.Writer) {
	for i := range program {
		fmt.Fprintf(out, "in  (%d) {%s}\n", i, strings.Join(sets.InAt(i), ","))
		fmt.Fprintf(out, "out (%d) {%s}\n", i, strings.Join(sets.OutAt(i), ","))
	}
}

// DumpVariableIntervals writes one "name[first,last]" line per
// coalesced live range, sorted by variable name then by interval
// start, matching dump_variable_intervals' multimap iteration order.
func DumpVariableIntervals(ranges map[string][]liveness.Range, out io.Writer) {
	vars := make([]string, 0, len(ranges))
	for v := range ranges {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	for _, v := range vars {
		rs := append([]liveness.Range(nil), ranges[v]...)
		sort.Slice(rs, func(i, j int) bool { return rs[i].Begin < rs[j].Begin })
		for _, r := range rs {
			fmt.Fprintf(out, "%s[%d,%d]\n", v, r.Begin, r.End)
		}
	}
}

// DumpProgram writes the post-optimize program text, one instruction
// per line, matching dump_program.
func DumpProgram(program ir.Program, out io.Writer) {
	fmt.Fprint(out, program.Dump())
}
