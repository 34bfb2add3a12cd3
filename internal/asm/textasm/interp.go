package textasm

import "github.com/PDelak/yadfa/internal/asm"

// memAddr is a (base register, offset) pair used as the simulated
// memory key, matching the lowering pass's "every variable is a fixed
// offset off some base register" slot model.
type memAddr struct {
	base   asm.Reg
	offset int32
}

// argRegs is the System-V order the call ABI loads the first six
// arguments into.
var argRegs = [6]asm.Reg{asm.RDI, asm.RSI, asm.RDX, asm.RCX, asm.R8, asm.R9}

// interpret replays a recorded op stream as a tiny single-threaded CPU:
// one shared instruction pointer over the whole stream (functions and
// main all live in the same trace, exactly as the two-pass emission in
// internal/codegen/x86 lays them out), a register file, a byte-addressed
// memory map keyed by (base,offset), and an explicit data stack for
// push/pop and overflow call arguments. It returns the final value of
// rax, matching the convention a System-V function returns its result
// there.
func interpret(ops []microOp, labelPos map[asm.Label]int, args []int32) int32 {
	regs := map[asm.Reg]int32{}
	for i, v := range args {
		if i < len(argRegs) {
			regs[argRegs[i]] = v
		}
	}
	mem := map[memAddr]int32{}
	var dataStack []int32
	var callStack []int

	var cmpLeft, cmpRight int32

	pop := func() int32 {
		if len(dataStack) == 0 {
			return 0
		}
		v := dataStack[len(dataStack)-1]
		dataStack = dataStack[:len(dataStack)-1]
		return v
	}
	push := func(v int32) {
		dataStack = append(dataStack, v)
	}

	ip := 0
	for ip >= 0 && ip < len(ops) {
		op := ops[ip]
		switch op.kind {
		case opNop:
			// no effect
		case opMovRegMem:
			regs[op.dst] = mem[memAddr{op.base, op.offset}]
		case opMovMemReg:
			mem[memAddr{op.base, op.offset}] = regs[op.src]
		case opMovMemImm:
			mem[memAddr{op.base, op.offset}] = op.imm
		case opMovRegImm:
			regs[op.dst] = op.imm
		case opMovRegReg:
			regs[op.dst] = regs[op.src]
		case opAddRegMem:
			regs[op.dst] += mem[memAddr{op.base, op.offset}]
		case opSubRegMem:
			regs[op.dst] -= mem[memAddr{op.base, op.offset}]
		case opAddRegImm:
			regs[op.dst] += op.imm
		case opSubRegImm:
			regs[op.dst] -= op.imm
		case opMulReg:
			regs[asm.RAX] *= regs[op.src]
		case opCdq:
			if regs[asm.RAX] < 0 {
				regs[asm.RDX] = -1
			} else {
				regs[asm.RDX] = 0
			}
		case opIdivMem:
			divisor := mem[memAddr{op.base, op.offset}]
			if divisor != 0 {
				regs[asm.RAX] = regs[asm.RAX] / divisor
			}
		case opPushMem:
			push(mem[memAddr{op.base, op.offset}])
		case opPopMem:
			mem[memAddr{op.base, op.offset}] = pop()
		case opPush:
			push(regs[op.src])
		case opPop:
			regs[op.dst] = pop()
		case opCmpRegMem:
			cmpLeft = regs[op.dst]
			cmpRight = mem[memAddr{op.base, op.offset}]
		case opCmpRegImm:
			cmpLeft = regs[op.dst]
			cmpRight = op.imm
		case opJmp:
			ip = labelPos[op.target]
			continue
		case opJumpIf:
			if evalCond(op.cond, cmpLeft, cmpRight) {
				ip = labelPos[op.target]
				continue
			}
		case opCall:
			callStack = append(callStack, ip+1)
			ip = labelPos[op.target]
			continue
		case opCallImm:
			if bf, ok := asm.ResolveFuncPtr(op.fn); ok {
				regs[asm.RAX] = bf.Invoke(gatherArgs(bf.Arity, regs, dataStack))
			}
		case opRet:
			if len(callStack) == 0 {
				return regs[asm.RAX]
			}
			ip = callStack[len(callStack)-1]
			callStack = callStack[:len(callStack)-1]
			continue
		}
		ip++
	}
	return regs[asm.RAX]
}

// gatherArgs reads a call's arguments the same way the ABI laid them
// out: the first six from argRegs, anything past that by peeking the
// top of the data stack (arg 7 closest to the top, descending), since
// the lowering pass pushes overflow arguments in reverse order.
func gatherArgs(arity int, regs map[asm.Reg]int32, dataStack []int32) []int32 {
	args := make([]int32, arity)
	for i := 0; i < arity; i++ {
		if i < len(argRegs) {
			args[i] = regs[argRegs[i]]
			continue
		}
		depth := i - len(argRegs)
		idx := len(dataStack) - 1 - depth
		if idx >= 0 && idx < len(dataStack) {
			args[i] = dataStack[idx]
		}
	}
	return args
}

func evalCond(cond asm.Condition, left, right int32) bool {
	switch cond {
	case asm.CondEqual:
		return left == right
	case asm.CondNotEqual:
		return left != right
	case asm.CondGreater:
		return left > right
	case asm.CondLess:
		return left < right
	case asm.CondLessEqual:
		return left <= right
	case asm.CondGreaterEqual:
		return left >= right
	default:
		return false
	}
}
