// Package config parses the yadfa command line into a flat Options
// struct, in the same hand-rolled switch-over-os.Args style
// src/util/args.go uses rather than the standard flag.FlagSet — there
// is exactly one positional command plus a small number of
// command-specific arguments, and the original CLI's `--flag value`
// shape is easiest to reproduce with an explicit switch.
package config

import "fmt"

// Command identifies which of yadfa's dump/emit/exec pipelines to run.
type Command string

const (
	CommandRawCFG   Command = "raw-cfg"
	CommandDotCFG   Command = "dot-cfg"
	CommandUseDef   Command = "use-def"
	CommandAnalysis Command = "analysis"
	CommandOptimize Command = "optimize"
	CommandExec     Command = "exec"
	CommandDumpX86  Command = "dump-x86"
	CommandDumpLLVM Command = "dump-llvm"
)

// Options is the fully parsed command line.
type Options struct {
	Command Command
	Src     string // path to the IR source file.
	Kind    string // analysis kind, --analysis only (e.g. "liveness").
}

// Usage is printed on a usage error, matching driver.cpp's usage()
// text with the one supplemental command this repo adds.
const Usage = `yadfa --command  prog
where command :
	raw-cfg - output of raw control flow graph representation
	dot-cfg - output of dot control flow graph representation
	use-def - output of use def sets
	analysis (liveness)
	optimize
	exec
	dump-x86
	dump-llvm - output of LLVM IR text for the parsed program
`

// ParseArgs parses os.Args[1:] (passed in as args) into Options.
func ParseArgs(args []string) (Options, error) {
	if len(args) < 1 {
		return Options{}, fmt.Errorf("missing command")
	}

	cmd, err := parseCommand(args[0])
	if err != nil {
		return Options{}, err
	}

	switch cmd {
	case CommandAnalysis:
		if len(args) < 3 {
			return Options{}, fmt.Errorf("--analysis requires a kind and a source file")
		}
		return Options{Command: cmd, Kind: args[1], Src: args[2]}, nil
	default:
		if len(args) < 2 {
			return Options{}, fmt.Errorf("%s requires a source file", args[0])
		}
		return Options{Command: cmd, Src: args[1]}, nil
	}
}

func parseCommand(flag string) (Command, error) {
	if len(flag) < 3 || flag[:2] != "--" {
		return "", fmt.Errorf("unexpected flag: %s", flag)
	}
	cmd := Command(flag[2:])
	switch cmd {
	case CommandRawCFG, CommandDotCFG, CommandUseDef, CommandAnalysis,
		CommandOptimize, CommandExec, CommandDumpX86, CommandDumpLLVM:
		return cmd, nil
	default:
		return "", fmt.Errorf("unexpected flag: %s", flag)
	}
}
