// Package hexasm wraps textasm.Assembler to additionally render a
// Finalize'd CodeUnit's synthetic byte buffer as upper-case hex, the
// format --dump-x86 prints. Kept separate from textasm so the mnemonic
// trace (used by --exec's tests) and the hex dump (used by --dump-x86)
// can evolve independently.
package hexasm

import (
	"encoding/hex"
	"strings"

	"github.com/PDelak/yadfa/internal/asm"
	"github.com/PDelak/yadfa/internal/asm/textasm"
)

// Assembler embeds textasm.Assembler, inheriting every Assembler
// method, and adds Dump for the hex rendering.
type Assembler struct {
	*textasm.Assembler
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{Assembler: textasm.New()}
}

// Dump finalizes the recorded trace and renders its Bytes as a single
// upper-case hex string, the contract --dump-x86 promises.
func (a *Assembler) Dump() (string, error) {
	unit, err := a.Finalize()
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(unit.Bytes)), nil
}

var _ asm.Assembler = (*Assembler)(nil)
