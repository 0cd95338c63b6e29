// Package dynarray implements a growable contiguous buffer with explicit
// capacity management.
//
// Unlike a plain Go slice, an Array owns its backing storage outright: it
// allocates nothing until the first growth, grows capacity only in powers of
// two, and releases the storage entirely on Clear. The capacity progression
// is part of the API (see Cap), which is why growth is not delegated to the
// runtime's append.
package dynarray

import (
	"errors"
	"math/bits"
	"unsafe"
)

// ErrInvalidItemSize is returned by New for zero-sized element types.
// A zero item size makes element addressing meaningless, so construction
// refuses it outright instead of producing an array that can never hold
// anything addressable.
var ErrInvalidItemSize = errors.New("dynarray: element type has zero size")

// ErrCapacityOverflow is returned when a requested capacity cannot be
// reached by doubling without overflowing the platform int.
var ErrCapacityOverflow = errors.New("dynarray: capacity overflow")

// maxCapacity is the largest power-of-two capacity representable as an int.
const maxCapacity = 1 << (bits.UintSize - 2)

// Array is a growable contiguous buffer of T.
//
// The zero Array is not valid; use New. An Array is not safe for concurrent
// use; it is intended to be exclusively owned by whatever drives it.
type Array[T any] struct {
	buf []T // len(buf) == capacity; nil while unallocated
	n   int
}

// New creates an empty array. No storage is allocated until the first
// growth. It fails with ErrInvalidItemSize when T is zero-sized.
func New[T any]() (*Array[T], error) {
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return nil, ErrInvalidItemSize
	}
	return &Array[T]{}, nil
}

// Len returns the number of elements currently stored.
func (a *Array[T]) Len() int {
	return a.n
}

// Cap returns the current capacity. Always zero or a power of two.
func (a *Array[T]) Cap() int {
	return len(a.buf)
}

// Push appends one element, growing the buffer if needed. Amortized O(1).
func (a *Array[T]) Push(item T) error {
	if err := a.Grow(a.n + 1); err != nil {
		return err
	}
	a.buf[a.n] = item
	a.n++
	return nil
}

// PushAll bulk-appends the given elements.
func (a *Array[T]) PushAll(items []T) error {
	if len(items) == 0 {
		return nil
	}
	if err := a.Grow(a.n + len(items)); err != nil {
		return err
	}
	copy(a.buf[a.n:], items)
	a.n += len(items)
	return nil
}

// Pop removes the last element into *dest. Returns false on an empty array,
// leaving the array unchanged.
func (a *Array[T]) Pop(dest *T) bool {
	if a.n == 0 {
		return false
	}
	a.n--
	*dest = a.buf[a.n]
	return true
}

// SwapRemove removes the element at index into *dest, filling the freed slot
// with the last element. O(1), does not preserve order. Returns false when
// index is out of range, leaving the array unchanged.
func (a *Array[T]) SwapRemove(index int, dest *T) bool {
	if index < 0 || index >= a.n {
		return false
	}
	*dest = a.buf[index]
	if index != a.n-1 {
		a.buf[index] = a.buf[a.n-1]
	}
	a.n--
	return true
}

// Grow ensures capacity for at least min elements. The new capacity is the
// smallest power of two reachable by doubling from the current capacity
// (starting at 1 for an unallocated buffer). No-op when the current capacity
// already suffices.
func (a *Array[T]) Grow(min int) error {
	if min <= len(a.buf) {
		return nil
	}
	if min > maxCapacity {
		return ErrCapacityOverflow
	}
	capacity := len(a.buf)
	if capacity == 0 {
		capacity = 1
	}
	for capacity < min {
		capacity <<= 1
	}
	buf := make([]T, capacity)
	copy(buf, a.buf[:a.n])
	a.buf = buf
	return nil
}

// Clear releases the backing storage and resets to the empty state.
func (a *Array[T]) Clear() {
	a.buf = nil
	a.n = 0
}

// Index returns a pointer to the element slot at i without validating it
// against Len. It may address any slot up to the current capacity; callers
// are responsible for bounds. This is a deliberate low-level primitive, not
// a safety guarantee.
func (a *Array[T]) Index(i int) *T {
	return &a.buf[i]
}

// At is the bounds-checked accessor: it returns the element at i and true,
// or the zero value and false when i is out of range.
func (a *Array[T]) At(i int) (T, bool) {
	if i < 0 || i >= a.n {
		var zero T
		return zero, false
	}
	return a.buf[i], true
}
