package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
//
// Every defined opcode is exactly one byte on the wire with zero operand
// bytes: operands travel on the operand stack. The numbering is fixed and
// independent of the capability set, so an encoding never shifts between
// hosts; an opcode outside the granted capabilities faults at dispatch
// instead of decoding differently.
type Opcode byte

// Core
const (
	// OpUnreachable is reserved. Executing it is a VM-level invariant
	// violation and faults immediately.
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01 // no operation

	OpPushA    Opcode = 0x02 // push register A
	OpPushB    Opcode = 0x03 // push register B
	OpPushR    Opcode = 0x04 // push register R
	OpPop      Opcode = 0x05 // discard top of stack
	OpPopIntoA Opcode = 0x06 // pop top of stack into A
	OpPopIntoB Opcode = 0x07 // pop top of stack into B
	OpPopIntoR Opcode = 0x08 // pop top of stack into R
	OpTopIntoA Opcode = 0x09 // copy top of stack into A
	OpTopIntoB Opcode = 0x0A // copy top of stack into B
	OpTopIntoR Opcode = 0x0B // copy top of stack into R
	OpSwap     Opcode = 0x0C // exchange the two topmost values
	OpSwapA    Opcode = 0x0D // exchange A with top of stack
	OpSwapB    Opcode = 0x0E // exchange B with top of stack
	OpSwapR    Opcode = 0x0F // exchange R with top of stack
	OpDup      Opcode = 0x10 // duplicate top of stack
	OpClear    Opcode = 0x11 // reset stack occupancy to zero
)

// Standard I/O (requires CapStandardIO)
const (
	OpArgs          Opcode = 0x20 // push process argument buffers + count
	OpStdoutWrite   Opcode = 0x21 // pop length, buffer; write to stdout
	OpStdoutWriteLF Opcode = 0x22 // as OpStdoutWrite, then a line feed
	OpStderrWrite   Opcode = 0x23 // pop length, buffer; write to stderr
	OpStderrWriteLF Opcode = 0x24 // as OpStderrWrite, then a line feed
	OpStdinReadLine Opcode = 0x25 // read a line; push buffer, count
	OpStdinRead     Opcode = 0x26 // pop max; read bytes; push buffer, count
)

// File I/O (requires CapFileIO)
const (
	OpIOIsFile      Opcode = 0x30 // pop path; push 1/0
	OpIOIsDirectory Opcode = 0x31 // pop path; push 1/0
	OpIOCreateFile  Opcode = 0x32 // pop path; push status
	OpIOFileRead    Opcode = 0x33 // pop path; push buffer, size, status
	OpIOFileWrite   Opcode = 0x34 // pop length, buffer, path; push status
	OpIOSize        Opcode = 0x35 // pop path; push size, status
	OpIOMove        Opcode = 0x36 // pop destination, source; push status
	OpIOCopy        Opcode = 0x37 // pop destination, source; push status
)

// ---------------------------------------------------------------------------
// Capabilities
// ---------------------------------------------------------------------------

// Capability gates a group of opcodes. Capabilities are granted at VM
// construction; bytecode referencing an ungranted opcode faults with
// ErrIllegalOpcode, it is never silently skipped.
type Capability uint8

const (
	// CapStandardIO enables the standard-stream opcode group.
	CapStandardIO Capability = 1 << iota

	// CapFileIO enables the filesystem opcode group.
	CapFileIO
)

// Has returns true if the set contains all capabilities in want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// String returns a human-readable capability list.
func (c Capability) String() string {
	switch {
	case c == 0:
		return "none"
	case c == CapStandardIO:
		return "standard-io"
	case c == CapFileIO:
		return "file-io"
	case c == CapStandardIO|CapFileIO:
		return "standard-io|file-io"
	default:
		return fmt.Sprintf("Capability(%#x)", uint8(c))
	}
}

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string     // human-readable name
	OperandBytes int        // number of inline operand bytes
	StackEffect  int        // net effect on stack depth (variable: see table)
	Requires     Capability // capability gating the opcode, 0 for core
}

// opcodeTable maps opcodes to their metadata. Opcodes absent from the
// table are illegal.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpUnreachable: {"UNREACHABLE", 0, 0, 0},
	OpNop:         {"NO_OPERATION", 0, 0, 0},

	OpPushA:    {"PUSH_A", 0, 1, 0},
	OpPushB:    {"PUSH_B", 0, 1, 0},
	OpPushR:    {"PUSH_R", 0, 1, 0},
	OpPop:      {"POP", 0, -1, 0},
	OpPopIntoA: {"POP_INTO_A", 0, -1, 0},
	OpPopIntoB: {"POP_INTO_B", 0, -1, 0},
	OpPopIntoR: {"POP_INTO_R", 0, -1, 0},
	OpTopIntoA: {"TOP_INTO_A", 0, 0, 0},
	OpTopIntoB: {"TOP_INTO_B", 0, 0, 0},
	OpTopIntoR: {"TOP_INTO_R", 0, 0, 0},
	OpSwap:     {"SWAP", 0, 0, 0},
	OpSwapA:    {"SWAP_A", 0, 0, 0},
	OpSwapB:    {"SWAP_B", 0, 0, 0},
	OpSwapR:    {"SWAP_R", 0, 0, 0},
	OpDup:      {"DUP", 0, 1, 0},
	OpClear:    {"CLEAR", 0, 0, 0}, // variable: drops the whole stack

	OpArgs:          {"ARGS", 0, 0, CapStandardIO}, // variable: argc buffers + count
	OpStdoutWrite:   {"STDOUT_WRITE", 0, -2, CapStandardIO},
	OpStdoutWriteLF: {"STDOUT_WRITE_LF", 0, -2, CapStandardIO},
	OpStderrWrite:   {"STDERR_WRITE", 0, -2, CapStandardIO},
	OpStderrWriteLF: {"STDERR_WRITE_LF", 0, -2, CapStandardIO},
	OpStdinReadLine: {"STDIN_READ_LINE", 0, 2, CapStandardIO},
	OpStdinRead:     {"STDIN_READ", 0, 1, CapStandardIO},

	OpIOIsFile:      {"IO_IS_FILE", 0, 0, CapFileIO},
	OpIOIsDirectory: {"IO_IS_DIRECTORY", 0, 0, CapFileIO},
	OpIOCreateFile:  {"IO_CREATE_FILE", 0, 0, CapFileIO},
	OpIOFileRead:    {"IO_FILE_READ", 0, 2, CapFileIO},
	OpIOFileWrite:   {"IO_FILE_WRITE", 0, -2, CapFileIO},
	OpIOSize:        {"IO_SIZE", 0, 1, CapFileIO},
	OpIOMove:        {"IO_MOVE", 0, -1, CapFileIO},
	OpIOCopy:        {"IO_COPY", 0, -1, CapFileIO},
}

// Info returns the metadata for an opcode and whether it is defined.
func (op Opcode) Info() (OpcodeInfo, bool) {
	info, ok := opcodeTable[op]
	return info, ok
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	if info, ok := opcodeTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("UNKNOWN_%02X", byte(op))
}

// Requires returns the capability gating the opcode, or zero for core and
// undefined opcodes.
func (op Opcode) Requires() Capability {
	if info, ok := opcodeTable[op]; ok {
		return info.Requires
	}
	return 0
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}
