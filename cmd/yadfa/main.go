// Command yadfa dispatches one of the pipeline's CLI commands against a
// textual 3AC IR source file, matching driver.cpp's command set (plus
// the supplemental --dump-llvm diagnostic, see SPEC_FULL.md §4.H).
package main

import (
	"fmt"
	"os"

	"github.com/PDelak/yadfa/internal/asm"
	"github.com/PDelak/yadfa/internal/asm/hexasm"
	"github.com/PDelak/yadfa/internal/asm/textasm"
	"github.com/PDelak/yadfa/internal/cfg"
	"github.com/PDelak/yadfa/internal/codegen/x86"
	"github.com/PDelak/yadfa/internal/config"
	"github.com/PDelak/yadfa/internal/diagnostics"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/liveness"
	"github.com/PDelak/yadfa/internal/llvmgen"
	"github.com/PDelak/yadfa/internal/optimizer"
	"github.com/PDelak/yadfa/internal/parser"
	"github.com/PDelak/yadfa/internal/yerrors"
)

func main() {
	opt, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, config.Usage)
		os.Exit(1)
	}

	if err := run(opt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opt config.Options) error {
	switch opt.Command {
	case config.CommandRawCFG:
		return runRawCFG(opt.Src)
	case config.CommandDotCFG:
		return runDotCFG(opt.Src)
	case config.CommandUseDef:
		return runUseDef(opt.Src)
	case config.CommandAnalysis:
		return runAnalysis(opt.Src)
	case config.CommandOptimize:
		return runOptimize(opt.Src)
	case config.CommandExec:
		return runExec(opt.Src)
	case config.CommandDumpX86:
		return runDumpX86(opt.Src)
	case config.CommandDumpLLVM:
		return runDumpLLVM(opt.Src)
	default:
		return fmt.Errorf("unexpected command: %s", opt.Command)
	}
}

func runRawCFG(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	g := cfg.Build(program, table)
	diagnostics.DumpRawCFG(program, g, os.Stdout)
	return nil
}

func runDotCFG(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	g := cfg.Build(program, table)
	gk := liveness.BuildUseDef(program)
	sets := liveness.Analyze(program, g)
	diagnostics.DumpCFGDot(program, g, gk, sets, os.Stdout)
	return nil
}

func runUseDef(src string) error {
	program, _, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	gk := liveness.BuildUseDef(program)
	diagnostics.DumpRawGenSet(program, gk, os.Stdout)
	diagnostics.DumpRawKillSet(program, gk, os.Stdout)
	return nil
}

func runAnalysis(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	g := cfg.Build(program, table)
	sets := liveness.Analyze(program, g)
	diagnostics.DumpRawLiveness(sets, program, os.Stdout)
	ranges := liveness.ComputeLiveRanges(sets)
	diagnostics.DumpVariableIntervals(ranges, os.Stdout)
	return diagnostics.GenerateGnuplotInterval(ranges, ".")
}

func runOptimize(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	g := cfg.Build(program, table)
	sets := liveness.Analyze(program, g)
	ranges := liveness.ComputeLiveRanges(sets)
	optimized := optimizer.Optimize(program, ranges)
	diagnostics.DumpProgram(optimized, os.Stdout)
	return nil
}

func runExec(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	unit, err := lower(program, table, textasm.New())
	if err != nil {
		return err
	}
	unit.Invoke()
	return nil
}

func runDumpX86(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	a := hexasm.New()
	if _, err := lower(program, table, a); err != nil {
		return err
	}
	hex, err := a.Dump()
	if err != nil {
		return &yerrors.EmitError{Err: err}
	}
	fmt.Println(hex)
	return nil
}

func runDumpLLVM(src string) error {
	program, table, err := parser.ParseFile(src)
	if err != nil {
		return err
	}
	text, err := llvmgen.Dump(program, table, src)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func lower(program ir.Program, table ir.LabelTable, a asm.Assembler) (asm.CodeUnit, error) {
	return x86.Lower(program, table, asm.DefaultBuiltins(), a)
}
