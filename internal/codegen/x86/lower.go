package x86

import (
	"fmt"
	"strconv"

	"github.com/PDelak/yadfa/internal/asm"
	"github.com/PDelak/yadfa/internal/ir"
	"github.com/PDelak/yadfa/internal/yerrors"
)

// builder carries the state gen_x64 threads through a single lowering
// run: the shared assembler, the builtin table, and the cached
// function labels visible to every call site regardless of which
// instruction stream (main or a function body) is currently emitting.
type builder struct {
	a        asm.Assembler
	builtins map[string]asm.BuiltinFunc

	functionLabels map[string]asm.Label
}

// Lower lowers program into a CodeUnit via a, following the two-pass
// function emission genx86_64.cpp:gen_x64 uses: an unconditional jump
// over every function body straight to main, then every function's
// code, then main's.
func Lower(program ir.Program, table ir.LabelTable, builtins map[string]asm.BuiltinFunc, a asm.Assembler) (asm.CodeUnit, error) {
	b := &builder{a: a, builtins: builtins, functionLabels: map[string]asm.Label{}}

	mainLabel := a.NewLabel()
	a.Jmp(mainLabel)

	var functions []ir.Instruction
	for _, instr := range program {
		if instr.Op == ir.OpFunction {
			functions = append(functions, instr)
			b.functionLabels[instr.Operands[0]] = a.NewLabel()
		}
	}

	for _, fn := range functions {
		if err := b.emitFunction(fn, table); err != nil {
			return asm.CodeUnit{}, err
		}
	}

	a.Bind(mainLabel)
	if err := b.emitBody(program, table, 0); err != nil {
		return asm.CodeUnit{}, err
	}

	return a.Finalize()
}

// emitFunction prepends the synthesized parameter prolog (one var per
// parameter, then a single pop_args that unpacks the argument
// registers into those slots) ahead of the parsed body, then emits it
// under its cached label. Labels declared inside the original body
// were recorded by the parser against that body's own (pre-prolog)
// indices, so every label-based jump inside this function is resolved
// with labelOffset = len(prolog) added back in.
func (b *builder) emitFunction(fn ir.Instruction, table ir.LabelTable) error {
	params := fn.Operands[1:]
	var prolog []ir.Instruction
	var slots []ir.ParamSlot
	for i := 0; i+1 < len(params); i += 2 {
		name, typ := params[i], params[i+1]
		prolog = append(prolog, ir.Instruction{Op: ir.OpVar, Operands: []string{name, typ}})
		slots = append(slots, ir.ParamSlot{Name: name, Type: typ})
	}
	if len(slots) > 0 {
		prolog = append(prolog, ir.Instruction{Op: ir.OpPopArgs, PopArgs: slots})
	}
	body := append(prolog, fn.Body...)

	b.a.Bind(b.functionLabels[fn.Operands[0]])
	return b.emitBody(body, table, len(prolog))
}

// emitBody emits every instruction in body under a fresh per-index
// label, framed by the full prolog/allocation/deallocation/epilog
// sequence gen_prolog/gen_allocation/deallocate_and_return emit: push
// rbp, reseat rbp onto the current stack pointer, reserve one VSlot per
// declared variable, run the body, then give the reserved space back
// and restore rbp before returning.
func (b *builder) emitBody(body []ir.Instruction, table ir.LabelTable, labelOffset int) error {
	l := buildLayout(body)
	allocated := int32(len(l)) * VSlot

	labels := make([]asm.Label, len(body))
	for i := range body {
		labels[i] = b.a.NewLabel()
	}

	b.a.Push(asm.RBP)
	b.a.MovRegReg(asm.RBP, asm.RSP)
	b.a.SubRegImm(asm.RSP, allocated)
	for i, instr := range body {
		b.a.Bind(labels[i])
		if err := b.emitInstruction(instr, i, table, l, labels, labelOffset, len(body)); err != nil {
			return err
		}
	}
	b.a.AddRegImm(asm.RSP, allocated)
	b.a.Pop(asm.RBP)
	b.a.Ret()
	return nil
}

func (b *builder) emitInstruction(instr ir.Instruction, index int, table ir.LabelTable, l layout, labels []asm.Label, labelOffset int, numInstrs int) error {
	a := b.a
	switch instr.Op {
	case ir.OpVar, ir.OpLabel, ir.OpFunction:
		// declarations and labels carry no code of their own.
	case ir.OpNop:
		a.Nop()
	case ir.OpRet:
		// a no-op at emission time, exactly as genx86_64.cpp leaves it:
		// the real ret is emitted once, unconditionally, by emitBody's
		// epilog. ret in the source IR exists purely so the CFG/call
		// stack can find its way back to the caller.
	case ir.OpMov:
		b.emitMov(instr, l)
	case ir.OpAdd:
		b.emitArith(instr, l, a.AddRegMem)
	case ir.OpSub:
		b.emitArith(instr, l, a.SubRegMem)
	case ir.OpMul:
		b.emitMul(instr, l)
	case ir.OpDiv:
		b.emitDiv(instr, l)
	case ir.OpPush:
		if off, ok := l.offset(instr.Operands[0]); ok {
			a.PushMem(asm.RBP, off)
		}
	case ir.OpPop:
		if off, ok := l.offset(instr.Operands[0]); ok {
			a.PopMem(asm.RBP, off)
		}
	case ir.OpJmp:
		target, err := resolveJumpTarget(instr.Operands[0], index, table, labelOffset, true, numInstrs)
		if err != nil {
			return err
		}
		a.Jmp(labels[target])
	case ir.OpIf:
		if err := b.emitIf(instr, index, table, l, labels, labelOffset, numInstrs); err != nil {
			return err
		}
	case ir.OpCmpEq, ir.OpCmpNeq, ir.OpCmpGt, ir.OpCmpLt, ir.OpCmpLte, ir.OpCmpGte:
		b.emitCmp(instr, l)
	case ir.OpCall:
		if err := b.emitCall(instr, l); err != nil {
			return err
		}
	case ir.OpPopArgs:
		b.emitPopArgs(instr, l)
	case ir.OpNew, ir.OpDelete:
		// no heap model in this lowering; both are accepted as no-ops,
		// matching the absence of any genx86_64.cpp template for them.
	}
	return nil
}

func (b *builder) emitMov(instr ir.Instruction, l layout) {
	a := b.a
	dst, ok := l.offset(instr.Operands[0])
	if !ok {
		return
	}
	src := instr.Operands[1]
	if ir.IsNumericLiteral(src) {
		v, _ := strconv.Atoi(src)
		a.MovMemImm(asm.RBP, dst, int32(v))
		return
	}
	if srcOff, ok := l.offset(src); ok {
		a.MovRegMem(asm.RAX, asm.RBP, srcOff)
		a.MovMemReg(asm.RBP, dst, asm.RAX)
	}
}

func (b *builder) emitArith(instr ir.Instruction, l layout, op func(dst, base asm.Reg, offset int32)) {
	a := b.a
	dst, ok1 := l.offset(instr.Operands[0])
	lhs, ok2 := l.offset(instr.Operands[1])
	rhs, ok3 := l.offset(instr.Operands[2])
	if !ok1 || !ok2 || !ok3 {
		return
	}
	a.MovRegMem(asm.RAX, asm.RBP, lhs)
	op(asm.RAX, asm.RBP, rhs)
	a.MovMemReg(asm.RBP, dst, asm.RAX)
}

func (b *builder) emitMul(instr ir.Instruction, l layout) {
	a := b.a
	dst, ok1 := l.offset(instr.Operands[0])
	lhs, ok2 := l.offset(instr.Operands[1])
	rhs, ok3 := l.offset(instr.Operands[2])
	if !ok1 || !ok2 || !ok3 {
		return
	}
	a.MovRegMem(asm.RAX, asm.RBP, lhs)
	a.MovRegMem(asm.RCX, asm.RBP, rhs)
	a.MulReg(asm.RCX)
	a.MovMemReg(asm.RBP, dst, asm.RAX)
}

func (b *builder) emitDiv(instr ir.Instruction, l layout) {
	a := b.a
	dst, ok1 := l.offset(instr.Operands[0])
	lhs, ok2 := l.offset(instr.Operands[1])
	rhs, ok3 := l.offset(instr.Operands[2])
	if !ok1 || !ok2 || !ok3 {
		return
	}
	a.MovRegMem(asm.RAX, asm.RBP, lhs)
	a.Cdq()
	a.IdivMem(asm.RBP, rhs)
	a.MovMemReg(asm.RBP, dst, asm.RAX)
}

// falseCond is the condition that, when true, means the cmp_* family's
// test FAILED — mirroring the original's jne/je/jng/jnl/jnle/jnge
// "jump to the false branch" selection.
var falseCond = map[ir.Op]asm.Condition{
	ir.OpCmpEq:  asm.CondNotEqual,
	ir.OpCmpNeq: asm.CondEqual,
	ir.OpCmpGt:  asm.CondLessEqual,
	ir.OpCmpLt:  asm.CondGreaterEqual,
	ir.OpCmpLte: asm.CondGreater,
	ir.OpCmpGte: asm.CondLess,
}

func (b *builder) emitCmp(instr ir.Instruction, l layout) {
	a := b.a
	dst, ok1 := l.offset(instr.Operands[0])
	lhs, ok2 := l.offset(instr.Operands[1])
	rhs, ok3 := l.offset(instr.Operands[2])
	if !ok1 || !ok2 || !ok3 {
		return
	}
	falseLabel := a.NewLabel()
	endLabel := a.NewLabel()

	a.MovRegMem(asm.RAX, asm.RBP, lhs)
	a.CmpRegMem(asm.RAX, asm.RBP, rhs)
	a.JumpIf(falseCond[instr.Op], falseLabel)
	a.MovRegImm(asm.RAX, 1)
	a.MovMemReg(asm.RBP, dst, asm.RAX)
	a.Jmp(endLabel)
	a.Bind(falseLabel)
	a.MovRegImm(asm.RAX, 0)
	a.MovMemReg(asm.RBP, dst, asm.RAX)
	a.Bind(endLabel)
}

func (b *builder) emitIf(instr ir.Instruction, index int, table ir.LabelTable, l layout, labels []asm.Label, labelOffset int, numInstrs int) error {
	a := b.a
	cond, ok := l.offset(instr.Operands[0])
	if !ok {
		return nil
	}
	target, err := resolveJumpTarget(instr.Operands[1], index, table, labelOffset, false, numInstrs)
	if err != nil {
		return err
	}

	falseLabel := a.NewLabel()
	a.MovRegMem(asm.RBX, asm.RBP, cond)
	a.CmpRegImm(asm.RBX, 0)
	a.JumpIf(asm.CondLessEqual, falseLabel)
	a.Jmp(labels[target])
	a.Bind(falseLabel)
	return nil
}

func (b *builder) emitCall(instr ir.Instruction, l layout) error {
	a := b.a
	callee := instr.Operands[0]
	args := instr.Operands[1:]

	if label, ok := b.functionLabels[callee]; ok {
		pushed := pushCallArgs(a, l, args)
		a.Call(label)
		popCallArgs(a, pushed)
		return nil
	}
	if bf, ok := b.builtins[callee]; ok {
		pushed := pushCallArgs(a, l, args)
		a.CallImm(asm.FuncPtr(bf))
		popCallArgs(a, pushed)
		return nil
	}
	return &yerrors.CodegenError{Message: fmt.Sprintf("function %q does not exist", callee)}
}

func (b *builder) emitPopArgs(instr ir.Instruction, l layout) {
	a := b.a
	for i, slot := range instr.PopArgs {
		if i >= maxRegisterArgs {
			break
		}
		if off, ok := l.offset(slot.Name); ok {
			a.MovMemReg(asm.RBP, off, argRegs[i])
		}
	}
}

// resolveJumpTarget mirrors genx86_64.cpp's jmp/if target resolution: a
// numeric operand is a raw instruction-index offset (jmp applies the
// documented +1 adjustment to positive offsets, if applies none),
// otherwise it is a label name looked up in table and shifted by
// labelOffset to account for any synthesized parameter prolog ahead of
// the label's originally parsed position. numInstrs bounds-checks the
// resolved target so an out-of-range jump surfaces as a CodegenError
// instead of panicking later when it indexes the per-instruction label
// slice.
func resolveJumpTarget(operand string, index int, table ir.LabelTable, labelOffset int, applyPositiveJumpQuirk bool, numInstrs int) (int, error) {
	if ir.IsNumericLiteral(operand) {
		offset, _ := strconv.Atoi(operand)
		if applyPositiveJumpQuirk && offset > 0 {
			offset++
		}
		target := index + offset
		if target < 0 || target >= numInstrs {
			return 0, &yerrors.CodegenError{Message: fmt.Sprintf("jump target %d is outside the instruction range [0,%d)", target, numInstrs)}
		}
		return target, nil
	}
	if idx, ok := table[operand]; ok {
		target := idx + labelOffset
		if target < 0 || target >= numInstrs {
			return 0, &yerrors.CodegenError{Message: fmt.Sprintf("label %q resolves to %d, outside the instruction range [0,%d)", operand, target, numInstrs)}
		}
		return target, nil
	}
	return 0, &yerrors.CodegenError{Message: fmt.Sprintf("label %q does not exist", operand)}
}
