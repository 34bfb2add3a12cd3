// Package llvmgen is the supplemental diagnostic backend SPEC_FULL.md
// §4.H adds beside the mandatory x86-64 lowering pass: it lowers a
// parsed program into an in-memory LLVM module using the teacher's own
// tinygo.org/x/go-llvm dependency and renders its textual IR, purely as
// a teaching aid sitting next to --dump-x86. It is not a second
// machine-code target — there is no register allocation, no calling
// convention beyond what LLVM's verifier requires, and every variable
// is an allocad i64 slot rather than an SSA value, mirroring the
// x86-64 backend's "everything is a stack slot" model instead of going
// through LLVM's mem2reg-friendly idioms.
package llvmgen

import (
	"fmt"

	"github.com/PDelak/yadfa/internal/ir"
	llvm "tinygo.org/x/go-llvm"
)

// Dump lowers program into an LLVM module named moduleName and returns
// its textual IR representation (module.String()).
func Dump(program ir.Program, table ir.LabelTable, moduleName string) (string, error) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	m := ctx.NewModule(moduleName)
	defer m.Dispose()
	b := ctx.NewBuilder()
	defer b.Dispose()

	g := &generator{ctx: ctx, module: m, builder: b, i64: llvm.Int64Type()}

	var functions []ir.Instruction
	for _, instr := range program {
		if instr.Op == ir.OpFunction {
			functions = append(functions, instr)
		}
	}
	for _, fn := range functions {
		if err := g.declareFunction(fn); err != nil {
			return "", err
		}
	}
	for _, fn := range functions {
		if err := g.defineFunction(fn, table); err != nil {
			return "", err
		}
	}

	mainType := llvm.FunctionType(g.i64, nil, false)
	main := llvm.AddFunction(m, "main", mainType)
	if err := g.emitBody(main, program, table, 0); err != nil {
		return "", err
	}

	return m.String(), nil
}

type generator struct {
	ctx       llvm.Context
	module    llvm.Module
	builder   llvm.Builder
	i64       llvm.Type
	functions map[string]llvm.Value
}

func (g *generator) declareFunction(fn ir.Instruction) error {
	if g.functions == nil {
		g.functions = map[string]llvm.Value{}
	}
	name := fn.Operands[0]
	params := fn.Operands[1:]
	argc := len(params) / 2
	argTypes := make([]llvm.Type, argc)
	for i := range argTypes {
		argTypes[i] = g.i64
	}
	ft := llvm.FunctionType(g.i64, argTypes, false)
	g.functions[name] = llvm.AddFunction(g.module, name, ft)
	return nil
}

func (g *generator) defineFunction(fn ir.Instruction, table ir.LabelTable) error {
	fnVal := g.functions[fn.Operands[0]]
	params := fn.Operands[1:]

	entry := llvm.AddBasicBlock(fnVal, "entry")
	g.builder.SetInsertPointAtEnd(entry)

	slots := map[string]llvm.Value{}
	for i := 0; i*2+1 < len(params); i++ {
		name := params[i*2]
		alloc := g.builder.CreateAlloca(g.i64, name)
		g.builder.CreateStore(fnVal.Param(i), alloc)
		slots[name] = alloc
	}

	return g.emitBodyWithSlots(fnVal, fn.Body, table, 0, slots)
}

func (g *generator) emitBody(fnVal llvm.Value, program ir.Program, table ir.LabelTable, labelOffset int) error {
	entry := llvm.AddBasicBlock(fnVal, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	return g.emitBodyWithSlots(fnVal, program, table, labelOffset, map[string]llvm.Value{})
}

// emitBodyWithSlots walks body sequentially, allocating one basic
// block per instruction index so jmp/if can branch between them, and
// threads a per-function slot map (allocas) for every var it
// encounters, mirroring the x86-64 backend's per-function variable
// layout.
func (g *generator) emitBodyWithSlots(fnVal llvm.Value, body []ir.Instruction, table ir.LabelTable, labelOffset int, slots map[string]llvm.Value) error {
	blocks := make([]llvm.BasicBlock, len(body))
	for i := range body {
		blocks[i] = llvm.AddBasicBlock(fnVal, fmt.Sprintf("i%d", i))
	}
	exit := llvm.AddBasicBlock(fnVal, "exit")

	if len(body) > 0 {
		// entry block (allocated by the caller) falls through to the
		// first instruction block.
		g.builder.CreateBr(blocks[0])
	} else {
		g.builder.CreateBr(exit)
	}

	blockAt := func(idx int) llvm.BasicBlock {
		if idx < 0 || idx >= len(blocks) {
			return exit
		}
		return blocks[idx]
	}

	for i, instr := range body {
		g.builder.SetInsertPointAtEnd(blocks[i])
		next := blockAt(i + 1)
		if err := g.emitInstruction(instr, i, table, labelOffset, slots, blockAt, next); err != nil {
			return err
		}
	}

	g.builder.SetInsertPointAtEnd(exit)
	g.builder.CreateRet(llvm.ConstInt(g.i64, 0, false))
	return nil
}

func (g *generator) emitInstruction(instr ir.Instruction, index int, table ir.LabelTable, labelOffset int, slots map[string]llvm.Value, blockAt func(int) llvm.BasicBlock, fallthroughBlock llvm.BasicBlock) error {
	switch instr.Op {
	case ir.OpVar:
		slots[instr.Operands[0]] = g.builder.CreateAlloca(g.i64, instr.Operands[0])
		g.builder.CreateBr(fallthroughBlock)
	case ir.OpMov:
		val, err := g.operand(instr.Operands[1], slots)
		if err != nil {
			return err
		}
		g.store(slots, instr.Operands[0], val)
		g.builder.CreateBr(fallthroughBlock)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		lhs, err := g.operand(instr.Operands[1], slots)
		if err != nil {
			return err
		}
		rhs, err := g.operand(instr.Operands[2], slots)
		if err != nil {
			return err
		}
		var res llvm.Value
		switch instr.Op {
		case ir.OpAdd:
			res = g.builder.CreateAdd(lhs, rhs, "")
		case ir.OpSub:
			res = g.builder.CreateSub(lhs, rhs, "")
		case ir.OpMul:
			res = g.builder.CreateMul(lhs, rhs, "")
		case ir.OpDiv:
			res = g.builder.CreateSDiv(lhs, rhs, "")
		}
		g.store(slots, instr.Operands[0], res)
		g.builder.CreateBr(fallthroughBlock)
	case ir.OpCmpEq, ir.OpCmpNeq, ir.OpCmpGt, ir.OpCmpLt, ir.OpCmpLte, ir.OpCmpGte:
		lhs, err := g.operand(instr.Operands[1], slots)
		if err != nil {
			return err
		}
		rhs, err := g.operand(instr.Operands[2], slots)
		if err != nil {
			return err
		}
		cond := g.builder.CreateICmp(icmpPredicate[instr.Op], lhs, rhs, "")
		res := g.builder.CreateZExt(cond, g.i64, "")
		g.store(slots, instr.Operands[0], res)
		g.builder.CreateBr(fallthroughBlock)
	case ir.OpJmp:
		target, err := resolveTarget(instr.Operands[0], index, table, labelOffset)
		if err != nil {
			return err
		}
		g.builder.CreateBr(blockAt(target))
	case ir.OpIf:
		target, err := resolveTarget(instr.Operands[1], index, table, labelOffset)
		if err != nil {
			return err
		}
		condVal, err := g.operand(instr.Operands[0], slots)
		if err != nil {
			return err
		}
		cond := g.builder.CreateICmp(llvm.IntSGT, condVal, llvm.ConstInt(g.i64, 0, false), "")
		g.builder.CreateCondBr(cond, blockAt(target), fallthroughBlock)
	case ir.OpPush, ir.OpPop, ir.OpNew, ir.OpDelete, ir.OpNop, ir.OpLabel, ir.OpFunction, ir.OpRet, ir.OpCall:
		// push/pop/new/delete have no machine-relevant side effect in
		// this diagnostic backend (no stack/heap model); call targets
		// an LLVM function when one is cached, else is a documented
		// no-op here since builtins have no LLVM declaration.
		if instr.Op == ir.OpCall {
			if fn, ok := g.functions[instr.Operands[0]]; ok {
				args := make([]llvm.Value, 0, len(instr.Operands)-1)
				for _, a := range instr.Operands[1:] {
					v, err := g.operand(a, slots)
					if err != nil {
						return err
					}
					args = append(args, v)
				}
				g.builder.CreateCall(fn, args, "")
			}
		}
		g.builder.CreateBr(fallthroughBlock)
	}
	return nil
}

var icmpPredicate = map[ir.Op]llvm.IntPredicate{
	ir.OpCmpEq:  llvm.IntEQ,
	ir.OpCmpNeq: llvm.IntNE,
	ir.OpCmpGt:  llvm.IntSGT,
	ir.OpCmpLt:  llvm.IntSLT,
	ir.OpCmpLte: llvm.IntSLE,
	ir.OpCmpGte: llvm.IntSGE,
}

func (g *generator) operand(name string, slots map[string]llvm.Value) (llvm.Value, error) {
	if ir.IsNumericLiteral(name) {
		v := int64(0)
		fmt.Sscanf(name, "%d", &v)
		return llvm.ConstInt(g.i64, uint64(v), true), nil
	}
	slot, ok := slots[name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("llvmgen: undeclared variable %q", name)
	}
	return g.builder.CreateLoad(slot, ""), nil
}

func (g *generator) store(slots map[string]llvm.Value, name string, val llvm.Value) {
	slot, ok := slots[name]
	if !ok {
		slot = g.builder.CreateAlloca(g.i64, name)
		slots[name] = slot
	}
	g.builder.CreateStore(val, slot)
}

// resolveTarget mirrors the x86-64 backend's jump resolution but
// without the +1 that lowering adds to positive numeric jmp offsets: a
// numeric target here is index + offset, exactly as the CFG builder
// resolves it.
func resolveTarget(operand string, index int, table ir.LabelTable, labelOffset int) (int, error) {
	if ir.IsNumericLiteral(operand) {
		offset := 0
		fmt.Sscanf(operand, "%d", &offset)
		return index + offset, nil
	}
	if idx, ok := table[operand]; ok {
		return idx + labelOffset, nil
	}
	return 0, fmt.Errorf("llvmgen: label %q does not exist", operand)
}
