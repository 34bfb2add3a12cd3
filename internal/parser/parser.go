package parser

import (
	"os"

	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/yerrors"
)

// parser turns a token stream into ir.Instruction values and populates a
// label table as labels are encountered. It keeps at most one token of
// pushback, needed only to let a call's greedy argument list stop before
// consuming the next instruction's opcode keyword.
type parser struct {
	lex     *lexer
	pending *token
	table   ir.LabelTable
}

func newParser(src string) *parser {
	return &parser{lex: newLexer(src), table: ir.LabelTable{}}
}

func (p *parser) next() token {
	if p.pending != nil {
		t := *p.pending
		p.pending = nil
		return t
	}
	return p.lex.next()
}

func (p *parser) pushBack(t token) {
	p.pending = &t
}

// readTarget reads a jmp/if/call target, gluing a standalone leading '-'
// token onto the following digit run, per spec.md §4.B.
func (p *parser) readTarget() string {
	t := p.next()
	if t.kind == tokMinus {
		t2 := p.next()
		return "-" + t2.text
	}
	return t.text
}

// ParseFile reads and parses the IR source at path.
func ParseFile(path string) (ir.Program, ir.LabelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &yerrors.FileNotFound{Path: path, Err: err}
	}
	return Parse(string(data))
}

// Parse parses an in-memory IR source buffer into a Program and its
// LabelTable.
func Parse(src string) (ir.Program, ir.LabelTable, error) {
	p := newParser(src)
	var program []ir.Instruction
	for {
		_, eof, err := p.parseInstruction(&program)
		if err != nil {
			return nil, nil, err
		}
		if eof {
			break
		}
	}
	return ir.Program(program), p.table, nil
}

// parseInstruction parses exactly one instruction (recursively, in the
// case of op_function) and appends it to dst. It returns the opcode
// keyword it parsed (used by parseFunction to detect the terminating
// ret), whether the token stream was already exhausted, and any parse
// error.
func (p *parser) parseInstruction(dst *[]ir.Instruction) (opName string, eof bool, err error) {
	tok := p.next()
	if tok.kind == tokEOF {
		return "", true, nil
	}

	op, ok := ir.LookupOp(tok.text)
	if !ok {
		return "", false, &yerrors.ParseError{Token: tok.text, Line: tok.line}
	}

	switch op {
	case ir.OpVar:
		name := p.next().text
		typ := p.next().text
		size := p.next().text
		*dst = append(*dst, ir.Instruction{Op: ir.OpVar, Operands: []string{name, typ + size}})
	case ir.OpMov:
		dstName := p.next().text
		src := p.next().text
		*dst = append(*dst, ir.Instruction{Op: ir.OpMov, Operands: []string{dstName, src}})
	case ir.OpPush:
		arg := p.next().text
		*dst = append(*dst, ir.Instruction{Op: ir.OpPush, Operands: []string{arg}})
	case ir.OpPop:
		arg := p.next().text
		*dst = append(*dst, ir.Instruction{Op: ir.OpPop, Operands: []string{arg}})
	case ir.OpJmp:
		target := p.readTarget()
		*dst = append(*dst, ir.Instruction{Op: ir.OpJmp, Operands: []string{target}})
	case ir.OpIf:
		cond := p.next().text
		target := p.readTarget()
		*dst = append(*dst, ir.Instruction{Op: ir.OpIf, Operands: []string{cond, target}})
	case ir.OpCall:
		args := p.parseCallArgs()
		*dst = append(*dst, ir.Instruction{Op: ir.OpCall, Operands: args})
	case ir.OpRet:
		*dst = append(*dst, ir.Instruction{Op: ir.OpRet})
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv,
		ir.OpCmpEq, ir.OpCmpNeq, ir.OpCmpGt, ir.OpCmpLt, ir.OpCmpLte, ir.OpCmpGte:
		a1 := p.next().text
		a2 := p.next().text
		a3 := p.next().text
		*dst = append(*dst, ir.Instruction{Op: op, Operands: []string{a1, a2, a3}})
	case ir.OpNew:
		arg := p.next().text
		*dst = append(*dst, ir.Instruction{Op: ir.OpNew, Operands: []string{arg}})
	case ir.OpDelete:
		arg := p.next().text
		*dst = append(*dst, ir.Instruction{Op: ir.OpDelete, Operands: []string{arg}})
	case ir.OpLabel:
		nameTok := p.next()
		name := nameTok.text
		if _, dup := p.table[name]; dup {
			return "", false, &yerrors.ParseError{Token: name, Line: nameTok.line}
		}
		*dst = append(*dst, ir.Instruction{Op: ir.OpLabel, Operands: []string{name}})
		p.table[name] = len(*dst)
		p.next() // consume the trailing ':'
	case ir.OpFunction:
		instr, ferr := p.parseFunction()
		if ferr != nil {
			return "", false, ferr
		}
		*dst = append(*dst, instr)
	case ir.OpNop:
		*dst = append(*dst, ir.Instruction{Op: ir.OpNop})
	}
	return tok.text, false, nil
}

// parseCallArgs reads the callee (with the same leading-minus gluing
// jmp/if targets get, preserving the earlier numeric-offset call variant
// spec.md §3 mentions) followed by actual arguments, read greedily until
// the next recognized opcode keyword or end of input.
func (p *parser) parseCallArgs() []string {
	callee := p.readTarget()
	args := []string{callee}
	for {
		t := p.next()
		if t.kind == tokEOF {
			return args
		}
		if _, isOp := ir.LookupOp(t.text); isOp {
			p.pushBack(t)
			return args
		}
		if t.kind == tokMinus {
			t2 := p.next()
			args = append(args, "-"+t2.text)
			continue
		}
		args = append(args, t.text)
	}
}

// parseFunction parses `function NAME ( PARAM TYPE ... ) BODY ret`.
func (p *parser) parseFunction() (ir.Instruction, error) {
	name := p.next().text
	p.next() // consume '('

	var params []string
	for {
		t := p.next()
		if t.kind == tokNumber {
			if len(params) > 0 {
				params[len(params)-1] += t.text
			}
			continue
		}
		if t.text == ")" {
			break
		}
		params = append(params, t.text)
	}

	var body []ir.Instruction
	for {
		opName, eof, err := p.parseInstruction(&body)
		if err != nil {
			return ir.Instruction{}, err
		}
		if eof || opName == "ret" {
			break
		}
	}

	operands := append([]string{name}, params...)
	return ir.Instruction{Op: ir.OpFunction, Operands: operands, Body: body}, nil
}
