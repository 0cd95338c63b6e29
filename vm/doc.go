// Package vm implements the Lode virtual machine.
//
// This package contains:
//   - Tagged 16-byte value representation
//   - Three-register scratch file (A, B, R)
//   - Fixed-capacity operand stack
//   - Single-byte opcode set with capability gating
//   - Bytecode builder and disassembler
//   - Dispatch loop and host collaborator contracts
package vm
