package vm

import "errors"

// DefaultStackCapacity is the operand stack capacity used when the host
// does not configure one.
const DefaultStackCapacity = 1024

// ErrStackOverflow is the fault raised by pushing onto a full stack.
var ErrStackOverflow = errors.New("vm: stack overflow")

// ErrStackUnderflow is the fault raised by popping or inspecting a stack
// with too few values.
var ErrStackUnderflow = errors.New("vm: stack underflow")

// OperandStack is a fixed-capacity LIFO of Values. Capacity is chosen at
// construction and never changes; overflow and underflow are explicit
// errors, never silently wrapped.
type OperandStack struct {
	slots []Value
	sp    int
}

// NewOperandStack creates a stack with the given capacity. A non-positive
// capacity falls back to DefaultStackCapacity.
func NewOperandStack(capacity int) *OperandStack {
	if capacity <= 0 {
		capacity = DefaultStackCapacity
	}
	return &OperandStack{slots: make([]Value, capacity)}
}

// Depth returns the number of values currently on the stack.
func (s *OperandStack) Depth() int {
	return s.sp
}

// Cap returns the fixed capacity.
func (s *OperandStack) Cap() int {
	return len(s.slots)
}

// Push places v on top of the stack.
func (s *OperandStack) Push(v Value) error {
	if s.sp == len(s.slots) {
		return ErrStackOverflow
	}
	s.slots[s.sp] = v
	s.sp++
	return nil
}

// Pop removes and returns the top value.
func (s *OperandStack) Pop() (Value, error) {
	if s.sp == 0 {
		return Nil, ErrStackUnderflow
	}
	s.sp--
	return s.slots[s.sp], nil
}

// Top returns the top value without removing it.
func (s *OperandStack) Top() (Value, error) {
	if s.sp == 0 {
		return Nil, ErrStackUnderflow
	}
	return s.slots[s.sp-1], nil
}

// TopPtr returns a pointer to the top slot, for in-place exchange with a
// register.
func (s *OperandStack) TopPtr() (*Value, error) {
	if s.sp == 0 {
		return nil, ErrStackUnderflow
	}
	return &s.slots[s.sp-1], nil
}

// Swap2 exchanges the two topmost values.
func (s *OperandStack) Swap2() error {
	if s.sp < 2 {
		return ErrStackUnderflow
	}
	s.slots[s.sp-1], s.slots[s.sp-2] = s.slots[s.sp-2], s.slots[s.sp-1]
	return nil
}

// Dup duplicates the top value.
func (s *OperandStack) Dup() error {
	if s.sp == 0 {
		return ErrStackUnderflow
	}
	if s.sp == len(s.slots) {
		return ErrStackOverflow
	}
	s.slots[s.sp] = s.slots[s.sp-1]
	s.sp++
	return nil
}

// Clear resets the occupancy to zero. The backing array is a fixed
// allocation and is kept.
func (s *OperandStack) Clear() {
	s.sp = 0
}
