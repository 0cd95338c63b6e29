package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction disassembles the instruction at pos and returns
// its string representation plus the position of the next instruction. A
// position outside the code yields an end-of-code marker and does not
// advance.
func DisassembleInstruction(code []byte, pos int) (string, int) {
	if pos < 0 || pos >= len(code) {
		return fmt.Sprintf("%04d  <end of code>", pos), pos
	}
	op := Opcode(code[pos])
	info, ok := op.Info()
	if !ok {
		return fmt.Sprintf("%04d  %s", pos, op.Name()), pos + 1
	}

	line := fmt.Sprintf("%04d  %s", pos, info.Name)
	if info.Requires != 0 {
		line += fmt.Sprintf("  [%s]", info.Requires)
	}
	return line, pos + 1 + info.OperandBytes
}

// Disassemble returns a full disassembly of bytecode.
func Disassemble(code []byte) string {
	var sb strings.Builder
	for pos := 0; pos < len(code); {
		line, next := DisassembleInstruction(code, pos)
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
		pos = next
	}
	return sb.String()
}
