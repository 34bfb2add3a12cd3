package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/PDelak/yadfa/internal/liveness"
)

// GenerateGnuplotInterval writes variables.dat, intervals.dat and
// intervals.gpi into dir, matching generate_gnuplot_interval's three
// output files and their format exactly (the ytics declaration, the
// point-pair interval data, and the png driver script).
func GenerateGnuplotInterval(ranges map[string][]liveness.Range, dir string) error {
	vars := make([]string, 0, len(ranges))
	for v := range ranges {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	minRange, maxRange := 0, 0
	first := true
	for _, v := range vars {
		for _, r := range ranges[v] {
			if first || r.Begin < minRange {
				minRange = r.Begin
			}
			if first || r.End > maxRange {
				maxRange = r.End
			}
			first = false
		}
	}

	variableToIndex := make(map[string]int, len(vars))
	if err := writeVariablesDat(filepath.Join(dir, "variables.dat"), vars, variableToIndex); err != nil {
		return err
	}
	if err := writeIntervalsDat(filepath.Join(dir, "intervals.dat"), vars, ranges, variableToIndex); err != nil {
		return err
	}
	return writeIntervalsGpi(filepath.Join(dir, "intervals.gpi"), minRange, maxRange, len(variableToIndex))
}

func writeVariablesDat(path string, vars []string, variableToIndex map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprint(f, "set ytics(")
	for idx, v := range vars {
		variableToIndex[v] = idx + 1
		if idx > 0 {
			fmt.Fprint(f, ",")
		}
		fmt.Fprintf(f, "\"%s\" %d", v, idx+1)
	}
	fmt.Fprint(f, ")")
	return nil
}

func writeIntervalsDat(path string, vars []string, ranges map[string][]liveness.Range, variableToIndex map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, v := range vars {
		idx := variableToIndex[v]
		for _, r := range ranges[v] {
			fmt.Fprintf(f, "%d %d\n", r.Begin, idx)
			fmt.Fprintf(f, "%d %d\n", r.End, idx)
			fmt.Fprintln(f)
		}
	}
	return nil
}

func writeIntervalsGpi(path string, minRange, maxRange, numVars int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "set terminal png")
	fmt.Fprintf(f, "set xrange[%d:%d]\n", minRange, maxRange)
	fmt.Fprintf(f, "set yrange[0:%d]\n", numVars+3)
	fmt.Fprintln(f, `set style line 2 \`)
	fmt.Fprintln(f, "\tlinecolor rgb '#dd181f' \\")
	fmt.Fprintln(f, "\tlinetype 1 linewidth 2 \\")
	fmt.Fprintln(f, "\tpointtype 5 pointsize 1.5")
	fmt.Fprintln(f, `load "variables.dat"`)
	fmt.Fprintln(f, "plot 'intervals.dat' with linespoints linestyle 2 title ''")
	return nil
}
