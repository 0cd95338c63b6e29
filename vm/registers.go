package vm

// Registers is the VM's scratch register file: two general purpose
// registers and a return value register. The zero value is all-nil, which
// is the required initial state.
type Registers struct {
	// A is a general purpose register.
	A Value

	// B is a general purpose register.
	B Value

	// R is the return value register. The host reads it after a normal
	// halt to derive the process exit status.
	R Value
}

// Reset restores all registers to nil.
func (r *Registers) Reset() {
	*r = Registers{}
}
