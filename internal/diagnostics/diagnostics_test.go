package diagnostics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PDelak/yadfa/internal/cfg"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/liveness"
	"github.com/PDelak/yadfa/internal/parser"
)

func mustParse(t *testing.T, src string) (ir.Program, ir.LabelTable) {
	t.Helper()
	program, table, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return program, table
}

func TestDumpRawCFG(t *testing.T) {
	program, table := mustParse(t, "var a int32\nmov a 4\n")
	g := cfg.Build(program, table)

	var buf bytes.Buffer
	DumpRawCFG(program, g, &buf)
	out := buf.String()
	if !strings.Contains(out, "0 <- var a int32") {
		t.Errorf("missing instruction line, got %q", out)
	}
	if !strings.Contains(out, "0->1") {
		t.Errorf("missing edge, got %q", out)
	}
}

func TestDumpRawGenKillSets(t *testing.T) {
	program, _ := mustParse(t, "var x int32\nmov x 1\npush x\n")
	gk := liveness.BuildUseDef(program)

	var gen, kill bytes.Buffer
	DumpRawGenSet(program, gk, &gen)
	DumpRawKillSet(program, gk, &kill)

	if !strings.Contains(gen.String(), "GEN set :") {
		t.Errorf("gen header missing: %q", gen.String())
	}
	if !strings.Contains(kill.String(), "KILL set :") {
		t.Errorf("kill header missing: %q", kill.String())
	}
	if !strings.Contains(gen.String(), "2->x") {
		t.Errorf("push should generate x, got %q", gen.String())
	}
}

func TestDumpCFGDotAndGnuplot(t *testing.T) {
	program, table := mustParse(t, "var x int32\nmov x 1\nvar y int32\nmov y x\nadd z y y\npush z\n")
	g := cfg.Build(program, table)
	gk := liveness.BuildUseDef(program)
	sets := liveness.Analyze(program, g)

	var buf bytes.Buffer
	DumpCFGDot(program, g, gk, sets, &buf)
	dot := buf.String()
	if !strings.HasPrefix(dot, "digraph {") {
		t.Errorf("dot output must start with digraph{, got %q", dot)
	}
	if !strings.Contains(dot, "GEN_Set") || !strings.Contains(dot, "KILL_Set") || !strings.Contains(dot, "LIVE") {
		t.Errorf("missing expected subnode labels: %q", dot)
	}

	ranges := liveness.ComputeLiveRanges(sets)
	dir := t.TempDir()
	if err := GenerateGnuplotInterval(ranges, dir); err != nil {
		t.Fatalf("GenerateGnuplotInterval: %v", err)
	}
	for _, name := range []string{"variables.dat", "intervals.dat", "intervals.gpi"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestDumpProgramAndIntervals(t *testing.T) {
	program, _ := mustParse(t, "var a int32\nmov a 1\n")
	var buf bytes.Buffer
	DumpProgram(program, &buf)
	if buf.String() != "var a int32\nmov a 1\n" {
		t.Errorf("unexpected dump: %q", buf.String())
	}

	ranges := map[string][]liveness.Range{"a": {{Begin: 0, End: 1}}}
	var ibuf bytes.Buffer
	DumpVariableIntervals(ranges, &ibuf)
	if ibuf.String() != "a[0,1]\n" {
		t.Errorf("unexpected interval dump: %q", ibuf.String())
	}
}
