package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/PDelak/yadfa/internal/cfg"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/liveness"
)

// DumpCFGDot writes a Graphviz DOT graph of the CFG: one record node
// per instruction index, GEN/KILL/LIVE HTML-table subnodes, and the
// forward edges (excluding the sentinel -1 edge), matching
// dump_cfg_to_dot's layout exactly.
func DumpCFGDot(program ir.Program, g cfg.Graph, gk liveness.GenKill, sets liveness.Sets, out io.Writer) {
	fmt.Fprintln(out, "digraph {")
	fmt.Fprintln(out, "\tnode[shape=record,style=filled,fillcolor=gray95]")
	for i, instr := range program {
		fmt.Fprintf(out, "\t%d[label=\"%d :: %s\"]\n", i, i, instr.String())
	}

	dumpUseDefDot("GEN_Set", program, gk.GenAt, out)
	dumpUseDefDot("KILL_Set", program, gk.KillAt, out)
	dumpLivenessDot("LIVE", program, sets, out)

	for _, from := range sortedKeys(g) {
		for _, to := range g[from] {
			if to == cfg.ExitNode {
				break
			}
			fmt.Fprintf(out, "\t%d->%d\n", from, to)
		}
	}
	fmt.Fprintln(out, "}")
	fmt.Fprintln(out)
}

func dumpUseDefDot(label string, program ir.Program, at func(int) []string, out io.Writer) {
	fmt.Fprintln(out, label, "[label=<")
	fmt.Fprintln(out, `<table border="0" cellborder="1" cellspacing="0">`)
	fmt.Fprintf(out, "<tr><td><i>%s</i></td></tr>\n", label)
	for i := range program {
		fmt.Fprintf(out, "<tr><td port=\"%d\">%d:: [%s]</td></tr>\n", i, i, strings.Join(at(i), ","))
	}
	fmt.Fprintln(out, "</table>>]")
}

func dumpLivenessDot(label string, program ir.Program, sets liveness.Sets, out io.Writer) {
	fmt.Fprintln(out, label, "[label=<")
	fmt.Fprintln(out, `<table border="0" cellborder="1" cellspacing="0">`)
	fmt.Fprintf(out, "<tr><td><i>%s</i></td></tr>\n", label)
	for i := range program {
		fmt.Fprintf(out, "<tr><td port=\"%d\">%d inp :: [%s]</td></tr>\n", i, i, strings.Join(sets.InAt(i), ","))
		fmt.Fprintf(out, "<tr><td port=\"%d\">%d out :: [%s]</td></tr>\n", i, i, strings.Join(sets.OutAt(i), ","))
	}
	fmt.Fprintln(out, "</table>>]")
}
