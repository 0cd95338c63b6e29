package vm

// ---------------------------------------------------------------------------
// Builder: helper for constructing bytecode
// ---------------------------------------------------------------------------

// Builder helps construct bytecode sequences.
type Builder struct {
	bytes []byte
}

// NewBuilder creates a new bytecode builder.
func NewBuilder() *Builder {
	return &Builder{
		bytes: make([]byte, 0, 64),
	}
}

// Bytes returns the constructed bytecode.
func (b *Builder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *Builder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode.
func (b *Builder) Emit(ops ...Opcode) *Builder {
	for _, op := range ops {
		b.bytes = append(b.bytes, byte(op))
	}
	return b
}

// EmitRaw appends a raw byte to the bytecode.
func (b *Builder) EmitRaw(data byte) *Builder {
	b.bytes = append(b.bytes, data)
	return b
}
