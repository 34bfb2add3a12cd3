package ir

// LabelTable maps a label identifier to the index of the instruction
// immediately following the label pseudo-instruction that declared it.
// Labels are unique; the parser is responsible for enforcing that
// invariant as it builds the table (see internal/parser).
type LabelTable map[string]int

// Dump renders a Program as one instruction per line, matching
// dump_program's textual output contract (spec.md §6).
func (p Program) Dump() string {
	lines := make([]string, len(p))
	for i, instr := range p {
		lines[i] = instr.String()
	}
	return joinLines(lines)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	if len(lines) > 0 {
		out += "\n"
	}
	return out
}
