package textasm

import (
	"strings"
	"testing"

	"github.com/PDelak/yadfa/internal/asm"
)

// Stores 4 and 2 into two slots, then builds mov rax, [rbp-8];
// add rax, [rbp-16]; ret and checks the interpreted result.
func TestAssembler_AddTwoSlots(t *testing.T) {
	a := New()
	a.MovMemImm(asm.RBP, -8, 4)
	a.MovMemImm(asm.RBP, -16, 2)
	a.MovRegMem(asm.RAX, asm.RBP, -8)
	a.AddRegMem(asm.RAX, asm.RBP, -16)
	a.Ret()

	unit, err := a.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := unit.Invoke(); got != 6 {
		t.Fatalf("got %d, want 6", got)
	}
}

func TestAssembler_JumpIfSkipsFalseBranch(t *testing.T) {
	a := New()
	skip := a.NewLabel()
	a.MovRegImm(asm.RAX, 0)
	a.CmpRegImm(asm.RAX, 1)
	a.JumpIf(asm.CondEqual, skip)
	a.MovRegImm(asm.RAX, 42)
	a.Bind(skip)
	a.Ret()

	unit, _ := a.Finalize()
	if got := unit.Invoke(); got != 42 {
		t.Fatalf("got %d, want 42 (branch not taken, fallthrough sets rax)", got)
	}
}

func TestAssembler_LoopAccumulatesViaBackwardJump(t *testing.T) {
	a := New()
	loop := a.NewLabel()
	done := a.NewLabel()
	a.MovRegImm(asm.RAX, 0)
	a.MovRegImm(asm.RCX, 3)
	a.Bind(loop)
	a.CmpRegImm(asm.RCX, 0)
	a.JumpIf(asm.CondEqual, done)
	a.MovMemImm(asm.RBP, -8, 1)
	a.AddRegMem(asm.RAX, asm.RBP, -8)
	a.MovMemImm(asm.RBP, -16, 1)
	a.SubRegMem(asm.RCX, asm.RBP, -16)
	a.Jmp(loop)
	a.Bind(done)
	a.Ret()

	unit, _ := a.Finalize()
	if got := unit.Invoke(); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestAssembler_CallImmInvokesRegisteredBuiltin(t *testing.T) {
	var captured []int32
	handle := asm.FuncPtr(asm.BuiltinFunc{
		Name:  "capture",
		Arity: 1,
		Invoke: func(args []int32) int32 {
			captured = args
			return 7
		},
	})

	a := New()
	a.MovRegImm(asm.RDI, 99)
	a.CallImm(handle)
	a.Ret()

	unit, _ := a.Finalize()
	if got := unit.Invoke(); got != 7 {
		t.Fatalf("got %d, want 7 (rax set to builtin's return value)", got)
	}
	if len(captured) != 1 || captured[0] != 99 {
		t.Fatalf("builtin received %v, want [99]", captured)
	}
}

func TestAssembler_UserCallReturnsToCallSitePlusOne(t *testing.T) {
	a := New()
	fn := a.NewLabel()
	after := a.NewLabel()

	a.Call(fn)
	a.Jmp(after) // the call's return address: runs once the callee rets
	a.Bind(fn)
	a.MovRegImm(asm.RAX, 5)
	a.Ret()
	a.Bind(after)
	a.MovRegImm(asm.RBX, 1)
	a.Ret()

	unit, _ := a.Finalize()
	if got := unit.Invoke(); got != 5 {
		t.Fatalf("got %d, want 5 (rax set by the callee survives the post-return jmp)", got)
	}
}

func TestAssembler_Trace_RendersMnemonicsAndLabels(t *testing.T) {
	a := New()
	l := a.NewLabel()
	a.MovRegImm(asm.RAX, 1)
	a.Bind(l)
	a.Ret()

	trace := a.Trace()
	if !strings.Contains(trace, "mov rax, 1") {
		t.Fatalf("trace missing mov instruction: %q", trace)
	}
	if !strings.Contains(trace, "ret") {
		t.Fatalf("trace missing ret instruction: %q", trace)
	}
}
