// Package textasm is the reference Assembler implementation. It records
// each call as an Intel-syntax mnemonic line (so tests and --dump-x86
// can assert on the emitted instruction sequence) and its CodeUnit's
// Invoke replays the recorded trace through a small interpreter instead
// of running real machine code, standing in for the AsmJit encoder the
// program this repo is modeled on actually binds.
package textasm

import (
	"fmt"

	"github.com/PDelak/yadfa/internal/asm"
)

type opKind int

const (
	opNop opKind = iota
	opMovRegMem
	opMovMemReg
	opMovMemImm
	opMovRegImm
	opMovRegReg
	opAddRegMem
	opSubRegMem
	opAddRegImm
	opSubRegImm
	opMulReg
	opCdq
	opIdivMem
	opPushMem
	opPopMem
	opPush
	opPop
	opCmpRegMem
	opCmpRegImm
	opJmp
	opJumpIf
	opCall
	opCallImm
	opRet
)

type microOp struct {
	kind   opKind
	text   string
	dst    asm.Reg
	base   asm.Reg
	src    asm.Reg
	offset int32
	imm    int32
	cond   asm.Condition
	target asm.Label
	fn     uintptr
}

// Assembler is the trace-recording reference implementation of
// asm.Assembler.
type Assembler struct {
	ops       []microOp
	labelPos  map[asm.Label]int
	nextLabel asm.Label
}

// New returns an empty Assembler ready to record a function's (or a
// whole program's) instruction stream.
func New() *Assembler {
	return &Assembler{labelPos: map[asm.Label]int{}}
}

func (a *Assembler) emit(op microOp) {
	a.ops = append(a.ops, op)
}

func (a *Assembler) NewLabel() asm.Label {
	a.nextLabel++
	return a.nextLabel
}

func (a *Assembler) Bind(l asm.Label) {
	a.labelPos[l] = len(a.ops)
}

func (a *Assembler) MovRegMem(dst, base asm.Reg, offset int32) {
	a.emit(microOp{kind: opMovRegMem, dst: dst, base: base, offset: offset,
		text: fmt.Sprintf("mov %s, [%s+%d]", dst, base, offset)})
}

func (a *Assembler) MovMemReg(base asm.Reg, offset int32, src asm.Reg) {
	a.emit(microOp{kind: opMovMemReg, base: base, offset: offset, src: src,
		text: fmt.Sprintf("mov [%s+%d], %s", base, offset, src)})
}

func (a *Assembler) MovMemImm(base asm.Reg, offset int32, imm int32) {
	a.emit(microOp{kind: opMovMemImm, base: base, offset: offset, imm: imm,
		text: fmt.Sprintf("mov [%s+%d], %d", base, offset, imm)})
}

func (a *Assembler) MovRegImm(dst asm.Reg, imm int32) {
	a.emit(microOp{kind: opMovRegImm, dst: dst, imm: imm,
		text: fmt.Sprintf("mov %s, %d", dst, imm)})
}

func (a *Assembler) MovRegReg(dst, src asm.Reg) {
	a.emit(microOp{kind: opMovRegReg, dst: dst, src: src,
		text: fmt.Sprintf("mov %s, %s", dst, src)})
}

func (a *Assembler) AddRegMem(dst, base asm.Reg, offset int32) {
	a.emit(microOp{kind: opAddRegMem, dst: dst, base: base, offset: offset,
		text: fmt.Sprintf("add %s, [%s+%d]", dst, base, offset)})
}

func (a *Assembler) SubRegMem(dst, base asm.Reg, offset int32) {
	a.emit(microOp{kind: opSubRegMem, dst: dst, base: base, offset: offset,
		text: fmt.Sprintf("sub %s, [%s+%d]", dst, base, offset)})
}

func (a *Assembler) AddRegImm(dst asm.Reg, imm int32) {
	a.emit(microOp{kind: opAddRegImm, dst: dst, imm: imm,
		text: fmt.Sprintf("add %s, %d", dst, imm)})
}

func (a *Assembler) SubRegImm(dst asm.Reg, imm int32) {
	a.emit(microOp{kind: opSubRegImm, dst: dst, imm: imm,
		text: fmt.Sprintf("sub %s, %d", dst, imm)})
}

func (a *Assembler) MulReg(src asm.Reg) {
	a.emit(microOp{kind: opMulReg, src: src, text: fmt.Sprintf("imul rax, %s", src)})
}

func (a *Assembler) Cdq() {
	a.emit(microOp{kind: opCdq, text: "cdq"})
}

func (a *Assembler) IdivMem(base asm.Reg, offset int32) {
	a.emit(microOp{kind: opIdivMem, base: base, offset: offset,
		text: fmt.Sprintf("idiv [%s+%d]", base, offset)})
}

func (a *Assembler) PushMem(base asm.Reg, offset int32) {
	a.emit(microOp{kind: opPushMem, base: base, offset: offset,
		text: fmt.Sprintf("push [%s+%d]", base, offset)})
}

func (a *Assembler) PopMem(base asm.Reg, offset int32) {
	a.emit(microOp{kind: opPopMem, base: base, offset: offset,
		text: fmt.Sprintf("pop [%s+%d]", base, offset)})
}

func (a *Assembler) Push(r asm.Reg) {
	a.emit(microOp{kind: opPush, src: r, text: fmt.Sprintf("push %s", r)})
}

func (a *Assembler) Pop(r asm.Reg) {
	a.emit(microOp{kind: opPop, dst: r, text: fmt.Sprintf("pop %s", r)})
}

func (a *Assembler) CmpRegMem(lhs, base asm.Reg, offset int32) {
	a.emit(microOp{kind: opCmpRegMem, dst: lhs, base: base, offset: offset,
		text: fmt.Sprintf("cmp %s, [%s+%d]", lhs, base, offset)})
}

func (a *Assembler) CmpRegImm(lhs asm.Reg, imm int32) {
	a.emit(microOp{kind: opCmpRegImm, dst: lhs, imm: imm,
		text: fmt.Sprintf("cmp %s, %d", lhs, imm)})
}

func (a *Assembler) Jmp(l asm.Label) {
	a.emit(microOp{kind: opJmp, target: l, text: fmt.Sprintf("jmp L%d", l)})
}

func (a *Assembler) JumpIf(cond asm.Condition, target asm.Label) {
	a.emit(microOp{kind: opJumpIf, cond: cond, target: target,
		text: fmt.Sprintf("%s L%d", cond, target)})
}

func (a *Assembler) Nop() {
	a.emit(microOp{kind: opNop, text: "nop"})
}

func (a *Assembler) Call(l asm.Label) {
	a.emit(microOp{kind: opCall, target: l, text: fmt.Sprintf("call L%d", l)})
}

func (a *Assembler) CallImm(fn uintptr) {
	a.emit(microOp{kind: opCallImm, fn: fn, text: fmt.Sprintf("call 0x%x", fn)})
}

func (a *Assembler) Ret() {
	a.emit(microOp{kind: opRet, text: "ret"})
}

// Trace renders the recorded instruction stream as one mnemonic per
// line, in emission order, with bound label positions annotated.
func (a *Assembler) Trace() string {
	boundAt := map[int][]asm.Label{}
	for l, pos := range a.labelPos {
		boundAt[pos] = append(boundAt[pos], l)
	}
	out := ""
	for i, op := range a.ops {
		for _, l := range boundAt[i] {
			out += fmt.Sprintf("L%d:\n", l)
		}
		out += "\t" + op.text + "\n"
	}
	for _, l := range boundAt[len(a.ops)] {
		out += fmt.Sprintf("L%d:\n", l)
	}
	return out
}

// Finalize freezes the recorded trace into a CodeUnit. Bytes is a
// synthetic, stable one-byte-per-op encoding (the opKind tag) and is
// not real x86-64 machine code; Invoke replays the trace through the
// interpreter in interp.go.
func (a *Assembler) Finalize() (asm.CodeUnit, error) {
	bytes := make([]byte, len(a.ops))
	for i, op := range a.ops {
		bytes[i] = byte(op.kind)
	}
	labels := make(map[string]int, len(a.labelPos))
	for l, pos := range a.labelPos {
		labels[fmt.Sprintf("L%d", l)] = pos
	}
	ops := append([]microOp{}, a.ops...)
	labelPos := make(map[asm.Label]int, len(a.labelPos))
	for l, pos := range a.labelPos {
		labelPos[l] = pos
	}
	return asm.CodeUnit{
		Bytes:  bytes,
		Labels: labels,
		Invoke: func(args ...int32) int32 {
			return interpret(ops, labelPos, args)
		},
	}, nil
}
