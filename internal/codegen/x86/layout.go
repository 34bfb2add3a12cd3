// Package x86 lowers a flat ir.Program into machine code through the
// asm.Assembler abstraction, following genx86_64.cpp's two-pass
// function emission and fixed-slot variable layout.
package x86

import "github.com/PDelak/yadfa/internal/ir"

// VSlot is the fixed size, in bytes, every variable occupies on the
// stack frame regardless of its declared type — the canonical variant
// documented in DESIGN.md's Open Question decisions. Arithmetic and
// moves operate on the low 32 bits of the slot.
const VSlot = 8

// layout maps a variable name to its 1-based slot index within the
// current function's frame, mirroring populate_variable_indexes: the
// Nth var instruction encountered gets index N, and the same name
// never recurs within one instruction stream.
type layout map[string]int

func buildLayout(program []ir.Instruction) layout {
	l := layout{}
	next := 1
	for _, in := range program {
		if in.Op == ir.OpVar {
			l[in.Operands[0]] = next
			next++
		}
	}
	return l
}

// offset returns the (negative) byte offset off rbp for a variable's
// slot, or ok=false if the name was never declared in this layout.
func (l layout) offset(name string) (int32, bool) {
	idx, ok := l[name]
	if !ok {
		return 0, false
	}
	return int32(idx) * -VSlot, true
}
