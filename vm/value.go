package vm

import (
	"fmt"
	"math"
)

// Kind discriminates the payload interpretation of a Value.
type Kind uint8

const (
	// KindNil is the nil value. Its payload is a raw machine word, which
	// bytecode may use as an untyped scratch quantity.
	KindNil Kind = iota

	// KindNumber is an IEEE 754 double stored as its bit pattern.
	KindNumber

	// KindObject is a handle into the owning VM's buffer table. Handles
	// have no meaning outside the VM instance that issued them.
	KindObject
)

// String returns a human-readable name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is the fixed-width, copyable VM value: a discriminant plus a 64-bit
// payload. The discriminant determines which payload interpretation is
// valid; at most one interpretation is ever read.
//
// The zero Value is nil with a zero payload.
type Value struct {
	kind Kind
	bits uint64
}

// Nil is the canonical nil value.
var Nil = Value{}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// FromNumber creates a number value.
func FromNumber(f float64) Value {
	return Value{kind: KindNumber, bits: math.Float64bits(f)}
}

// NilWithPayload creates a nil value carrying a raw payload word.
func NilWithPayload(bits uint64) Value {
	return Value{kind: KindNil, bits: bits}
}

// FromHandle creates an object value referencing a buffer handle.
func FromHandle(h Handle) Value {
	return Value{kind: KindObject, bits: uint64(h)}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the value's discriminant.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNil returns true if v is a nil value (with any payload).
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// IsNumber returns true if v is a number.
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// IsObject returns true if v is a buffer handle.
func (v Value) IsObject() bool {
	return v.kind == KindObject
}

// ---------------------------------------------------------------------------
// Payload access
// ---------------------------------------------------------------------------

// Number returns v as a float64.
// Panics if v is not a number.
func (v Value) Number() float64 {
	if v.kind != KindNumber {
		panic("Value.Number: not a number")
	}
	return math.Float64frombits(v.bits)
}

// TryNumber returns v as a float64, or false if v is not a number.
func (v Value) TryNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// Handle returns the buffer handle encoded in v.
// Panics if v is not an object.
func (v Value) Handle() Handle {
	if v.kind != KindObject {
		panic("Value.Handle: not an object")
	}
	return Handle(v.bits)
}

// TryHandle returns the buffer handle encoded in v, or false if v is not
// an object.
func (v Value) TryHandle() (Handle, bool) {
	if v.kind != KindObject {
		return 0, false
	}
	return Handle(v.bits), true
}

// Payload returns the raw 64-bit payload regardless of kind.
func (v Value) Payload() uint64 {
	return v.bits
}

// String renders the value for traces and disassembly.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		if v.bits == 0 {
			return "nil"
		}
		return fmt.Sprintf("nil(%d)", v.bits)
	case KindNumber:
		return fmt.Sprintf("%g", math.Float64frombits(v.bits))
	case KindObject:
		return fmt.Sprintf("buf#%d", v.bits)
	default:
		return fmt.Sprintf("Value(kind=%d, bits=%#x)", v.kind, v.bits)
	}
}
