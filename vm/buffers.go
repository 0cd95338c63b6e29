package vm

import (
	"github.com/lodelang/lode/dynarray"
)

// Handle identifies a byte buffer in a VM's buffer table. Handles are dense
// indexes issued in allocation order and are only meaningful to the VM
// instance that issued them.
type Handle uint64

// bufferTable holds the variable-length byte buffers that I/O opcodes
// traffic in: argument strings, read buffers, file contents. Buffers live
// for the lifetime of the VM instance.
type bufferTable struct {
	bufs *dynarray.Array[[]byte]
}

func newBufferTable() *bufferTable {
	bufs, err := dynarray.New[[]byte]()
	if err != nil {
		// []byte is never zero-sized.
		panic("vm: buffer table construction failed: " + err.Error())
	}
	return &bufferTable{bufs: bufs}
}

// add stores a buffer and returns its handle.
func (t *bufferTable) add(b []byte) (Handle, error) {
	h := Handle(t.bufs.Len())
	if err := t.bufs.Push(b); err != nil {
		return 0, err
	}
	return h, nil
}

// get returns the buffer for a handle, or false when the handle was never
// issued.
func (t *bufferTable) get(h Handle) ([]byte, bool) {
	b, ok := t.bufs.At(int(h))
	return b, ok
}

// len returns the number of live buffers.
func (t *bufferTable) len() int {
	return t.bufs.Len()
}
