package x86

import (
	"strconv"

	"github.com/PDelak/yadfa/internal/asm"
	"github.com/PDelak/yadfa/internal/ir"
)

// maxRegisterArgs is the number of call arguments the System-V ABI
// passes in registers before spilling to the stack.
const maxRegisterArgs = 6

var argRegs = [maxRegisterArgs]asm.Reg{asm.RDI, asm.RSI, asm.RDX, asm.RCX, asm.R8, asm.R9}

// pushCallArgs loads the first six arguments into their ABI registers
// (literal operands via an immediate move, identifiers from their
// stack slot) and pushes any remaining arguments onto the stack in
// reverse order, so the seventh argument ends up nearest the top —
// exactly the convention push_arguments_for_def_fun/
// push_arguments_for_builtin_fun follow. It returns how many stack
// slots were pushed, so the caller can balance the stack after the
// call returns.
func pushCallArgs(a asm.Assembler, l layout, args []string) int {
	n := len(args)
	registerArgs := args
	var stackArgs []string
	if n > maxRegisterArgs {
		registerArgs = args[:maxRegisterArgs]
		stackArgs = args[maxRegisterArgs:]
	}

	for i, arg := range registerArgs {
		loadArg(a, l, argRegs[i], arg)
	}

	for i := len(stackArgs) - 1; i >= 0; i-- {
		pushArg(a, l, stackArgs[i])
	}
	return len(stackArgs)
}

func loadArg(a asm.Assembler, l layout, reg asm.Reg, arg string) {
	if ir.IsNumericLiteral(arg) {
		v, _ := strconv.Atoi(arg)
		a.MovRegImm(reg, int32(v))
		return
	}
	if offset, ok := l.offset(arg); ok {
		a.MovRegMem(reg, asm.RBP, offset)
	}
}

func pushArg(a asm.Assembler, l layout, arg string) {
	if ir.IsNumericLiteral(arg) {
		v, _ := strconv.Atoi(arg)
		a.MovRegImm(scratchReg, int32(v))
		a.Push(scratchReg)
		return
	}
	if offset, ok := l.offset(arg); ok {
		a.PushMem(asm.RBP, offset)
	}
}

// scratchReg is a caller-saved register free for use as a temporary
// when an immediate value needs to be pushed (the Assembler interface
// has no push-immediate primitive, matching real x86-64's lack of one
// for arbitrary 32-bit immediates in this addressing mode).
const scratchReg = asm.R10

// popCallArgs discards n stack-passed argument slots after a call
// returns, balancing the stack the way `add rsp, n*8` would on a real
// encoder.
func popCallArgs(a asm.Assembler, n int) {
	for i := 0; i < n; i++ {
		a.Pop(scratchReg)
	}
}
