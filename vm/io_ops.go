package vm

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// I/O opcode handlers
//
// Operand contracts: buffer-carrying opcodes traffic in object values
// (handles into the VM's buffer table). Host failures surface as a status
// number pushed onto the stack (0 = ok), never as a fault, so bytecode can
// react to them; the exceptions are stream writes, which push no result
// and therefore fault on failure.
// ---------------------------------------------------------------------------

var lineFeed = []byte{'\n'}

// opArgs pushes one buffer handle per process argument (first argument
// deepest), then the argument count as a number.
func (m *VM) opArgs() error {
	args := m.streams.Args()
	for _, arg := range args {
		v, err := m.NewBuffer([]byte(arg))
		if err != nil {
			return err
		}
		if err := m.stack.Push(v); err != nil {
			return err
		}
	}
	return m.stack.Push(FromNumber(float64(len(args))))
}

// opStreamWrite pops a length and a buffer handle and writes
// min(length, len(buffer)) bytes through the collaborator.
func (m *VM) opStreamWrite(write func([]byte) error, lf bool) error {
	n, err := m.popLength()
	if err != nil {
		return err
	}
	data, err := m.popBuffer()
	if err != nil {
		return err
	}
	if n < len(data) {
		data = data[:n]
	}
	if err := write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrHostIO, err)
	}
	if lf {
		if err := write(lineFeed); err != nil {
			return fmt.Errorf("%w: %v", ErrHostIO, err)
		}
	}
	return nil
}

// opStdinReadLine reads one line and pushes a buffer handle and the byte
// count. On exhausted or failed input it pushes nil and a zero count.
func (m *VM) opStdinReadLine() error {
	line, err := m.streams.ReadLine()
	return m.pushReadResult(line, err)
}

// opStdinRead pops a maximum byte count, reads up to that many bytes, and
// pushes a buffer handle and the byte count (nil and zero on exhausted or
// failed input).
func (m *VM) opStdinRead() error {
	max, err := m.popLength()
	if err != nil {
		return err
	}
	data, err := m.streams.Read(max)
	return m.pushReadResult(data, err)
}

func (m *VM) pushReadResult(data []byte, readErr error) error {
	if readErr != nil {
		if err := m.stack.Push(Nil); err != nil {
			return err
		}
		return m.stack.Push(FromNumber(0))
	}
	v, err := m.NewBuffer(data)
	if err != nil {
		return err
	}
	if err := m.stack.Push(v); err != nil {
		return err
	}
	return m.stack.Push(FromNumber(float64(len(data))))
}

// opFileCheck pops a path and pushes 1 or 0.
func (m *VM) opFileCheck(check func(string) bool) error {
	path, err := m.popPath()
	if err != nil {
		return err
	}
	result := 0.0
	if check(path) {
		result = 1.0
	}
	return m.stack.Push(FromNumber(result))
}

// opCreateFile pops a path and pushes a status.
func (m *VM) opCreateFile() error {
	path, err := m.popPath()
	if err != nil {
		return err
	}
	return m.pushStatus(m.fs.CreateFile(path))
}

// opFileRead pops a path and pushes the content buffer handle, the byte
// size, and a status. On failure the handle is nil and the size zero, so
// the stack effect is fixed.
func (m *VM) opFileRead() error {
	path, err := m.popPath()
	if err != nil {
		return err
	}
	data, readErr := m.fs.ReadFile(path)
	content := Nil
	if readErr == nil {
		content, err = m.NewBuffer(data)
		if err != nil {
			return err
		}
	}
	if err := m.stack.Push(content); err != nil {
		return err
	}
	if err := m.stack.Push(FromNumber(float64(len(data)))); err != nil {
		return err
	}
	return m.pushStatus(readErr)
}

// opFileWrite pops a length, a content buffer handle, and a path, writes
// min(length, len(buffer)) bytes, and pushes a status.
func (m *VM) opFileWrite() error {
	n, err := m.popLength()
	if err != nil {
		return err
	}
	data, err := m.popBuffer()
	if err != nil {
		return err
	}
	path, err := m.popPath()
	if err != nil {
		return err
	}
	if n < len(data) {
		data = data[:n]
	}
	return m.pushStatus(m.fs.WriteFile(path, data))
}

// opFileSize pops a path and pushes the byte size (zero on failure) and a
// status.
func (m *VM) opFileSize() error {
	path, err := m.popPath()
	if err != nil {
		return err
	}
	size, sizeErr := m.fs.Size(path)
	if sizeErr != nil {
		size = 0
	}
	if err := m.stack.Push(FromNumber(float64(size))); err != nil {
		return err
	}
	return m.pushStatus(sizeErr)
}

// opPathPair pops a destination path and a source path, applies f, and
// pushes a status.
func (m *VM) opPathPair(f func(src, dst string) error) error {
	dst, err := m.popPath()
	if err != nil {
		return err
	}
	src, err := m.popPath()
	if err != nil {
		return err
	}
	return m.pushStatus(f(src, dst))
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

// popLength pops a number operand and clamps it to a non-negative int.
// NaN clamps to zero; values past the int range clamp to MaxInt, since a
// float-to-int conversion of an out-of-range value is not defined to
// saturate.
func (m *VM) popLength() (int, error) {
	v, err := m.stack.Pop()
	if err != nil {
		return 0, err
	}
	n, ok := v.TryNumber()
	if !ok {
		return 0, fmt.Errorf("%w: expected number, got %s", ErrTypeMismatch, v.Kind())
	}
	if math.IsNaN(n) || n < 0 {
		return 0, nil
	}
	if n >= float64(math.MaxInt) {
		return math.MaxInt, nil
	}
	return int(n), nil
}

// popBuffer pops an object operand and resolves it in the buffer table.
func (m *VM) popBuffer() ([]byte, error) {
	v, err := m.stack.Pop()
	if err != nil {
		return nil, err
	}
	h, ok := v.TryHandle()
	if !ok {
		return nil, fmt.Errorf("%w: expected buffer, got %s", ErrTypeMismatch, v.Kind())
	}
	data, ok := m.buffers.get(h)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadHandle, h)
	}
	return data, nil
}

// popPath pops a buffer operand and interprets it as a path string.
func (m *VM) popPath() (string, error) {
	data, err := m.popBuffer()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// pushStatus pushes 0 for a nil host error and 1 otherwise.
func (m *VM) pushStatus(hostErr error) error {
	status := 0.0
	if hostErr != nil {
		status = 1.0
	}
	return m.stack.Push(FromNumber(status))
}
