// Package ir defines the three-address instruction model shared by every
// downstream pass: the CFG builder, the liveness analysis, the optimizer
// and the x86-64 lowering pass. A Program is nothing more than an ordered
// slice of Instruction values; every other data structure in the pipeline
// refers into it by index.
package ir

// Op identifies the opcode of an Instruction.
type Op int

// The full opcode set. pop_args is not part of the textual grammar: it is
// synthesized by the x86-64 lowering pass (see internal/codegen/x86) to
// unpack System-V argument registers into a function's parameter slots.
const (
	OpVar Op = iota
	OpMov
	OpPush
	OpPop
	OpJmp
	OpIf
	OpCall
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRet
	OpNew
	OpDelete
	OpCmpEq
	OpCmpNeq
	OpCmpGt
	OpCmpLt
	OpCmpLte
	OpCmpGte
	OpLabel
	OpFunction
	OpNop
	OpPopArgs
)

var opNames = [...]string{
	OpVar:      "var",
	OpMov:      "mov",
	OpPush:     "push",
	OpPop:      "pop",
	OpJmp:      "jmp",
	OpIf:       "if",
	OpCall:     "call",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpDiv:      "div",
	OpRet:      "ret",
	OpNew:      "new",
	OpDelete:   "delete",
	OpCmpEq:    "cmp_eq",
	OpCmpNeq:   "cmp_neq",
	OpCmpGt:    "cmp_gt",
	OpCmpLt:    "cmp_lt",
	OpCmpLte:   "cmp_lte",
	OpCmpGte:   "cmp_gte",
	OpLabel:    "label",
	OpFunction: "function",
	OpNop:      "nop",
	OpPopArgs:  "pop_args",
}

// String returns the textual opcode keyword, exactly as it appears in the
// source grammar (or, for pop_args, the synthesized pseudo-mnemonic used
// only in lowering diagnostics).
func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// opKeywords maps the textual opcode keyword back to its Op, used by the
// parser to dispatch parse_instruction.
var opKeywords = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		if op == int(OpPopArgs) {
			continue // not a parseable keyword
		}
		m[name] = Op(op)
	}
	return m
}()

// LookupOp returns the Op for a textual opcode keyword and true if the
// keyword is recognised.
func LookupOp(keyword string) (Op, bool) {
	op, ok := opKeywords[keyword]
	return op, ok
}
