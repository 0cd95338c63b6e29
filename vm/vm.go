package vm

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ---------------------------------------------------------------------------
// Faults and execution state
// ---------------------------------------------------------------------------

// ErrUnreachable is the fault raised by executing the reserved opcode 0x00.
var ErrUnreachable = errors.New("vm: unreachable executed")

// ErrIllegalOpcode is the fault raised by executing an undefined opcode or
// an opcode outside the granted capability set.
var ErrIllegalOpcode = errors.New("vm: illegal opcode")

// ErrTypeMismatch is the fault raised when an I/O opcode pops an operand of
// the wrong kind.
var ErrTypeMismatch = errors.New("vm: operand type mismatch")

// ErrBadHandle is the fault raised when an I/O opcode pops a buffer handle
// that was never issued by this VM.
var ErrBadHandle = errors.New("vm: unknown buffer handle")

// ErrHostIO is the fault raised when a stream collaborator write fails.
// Stream writes push no status value, so a failed write has no in-band
// signal and terminates execution instead.
var ErrHostIO = errors.New("vm: host stream failure")

// ErrNotRunning is returned by Step and Run on a VM that has already
// halted or faulted. A fault is terminal for the instance; restart
// requires a fresh VM.
var ErrNotRunning = errors.New("vm: not running")

// State is the dispatcher's execution state.
type State uint8

const (
	// StateRunning means the VM will execute the next instruction.
	StateRunning State = iota

	// StateHalted means the code was exhausted; a terminal, normal stop.
	StateHalted

	// StateFaulted means an unrecoverable runtime condition occurred; a
	// terminal, abnormal stop. Fault() reports the condition.
	StateFaulted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ---------------------------------------------------------------------------
// VM
// ---------------------------------------------------------------------------

// VM is the register-assisted stack machine. It exclusively owns its
// registers, operand stack, and buffer table; instances share nothing and
// must be driven by a single goroutine.
type VM struct {
	code []byte // immutable instruction stream
	ip   int

	regs    Registers
	stack   *OperandStack
	buffers *bufferTable

	caps    Capability
	streams Streams
	fs      Filesystem

	state State
	fault error

	// Trace prints each instruction before executing it.
	Trace bool
}

// Option configures a VM at construction time.
type Option func(*config)

type config struct {
	stackCapacity int
	caps          Capability
	entry         int
	streams       Streams
	fs            Filesystem
}

// WithStackCapacity sets the operand stack capacity.
func WithStackCapacity(n int) Option {
	return func(c *config) { c.stackCapacity = n }
}

// WithCapabilities grants opcode groups to the VM.
func WithCapabilities(caps Capability) Option {
	return func(c *config) { c.caps = caps }
}

// WithEntry sets the initial instruction pointer.
func WithEntry(entry int) Option {
	return func(c *config) { c.entry = entry }
}

// WithStreams sets the standard-stream collaborator.
func WithStreams(s Streams) Option {
	return func(c *config) { c.streams = s }
}

// WithFilesystem sets the filesystem collaborator.
func WithFilesystem(fs Filesystem) Option {
	return func(c *config) { c.fs = fs }
}

// New creates a VM over an immutable code buffer. The VM starts in the
// running state with the instruction pointer at the entry point (default:
// code start) and all registers nil.
func New(code []byte, opts ...Option) (*VM, error) {
	cfg := config{
		stackCapacity: DefaultStackCapacity,
		streams:       nullStreams{},
		fs:            nullFilesystem{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.stackCapacity <= 0 {
		return nil, fmt.Errorf("vm: stack capacity must be positive, got %d", cfg.stackCapacity)
	}
	if cfg.entry < 0 || cfg.entry > len(code) {
		return nil, fmt.Errorf("vm: entry point %d outside code of length %d", cfg.entry, len(code))
	}

	return &VM{
		code:    code,
		ip:      cfg.entry,
		stack:   NewOperandStack(cfg.stackCapacity),
		buffers: newBufferTable(),
		caps:    cfg.caps,
		streams: cfg.streams,
		fs:      cfg.fs,
		state:   StateRunning,
	}, nil
}

// State returns the current execution state.
func (m *VM) State() State {
	return m.state
}

// Fault returns the terminal fault condition, or nil while the VM has not
// faulted.
func (m *VM) Fault() error {
	return m.fault
}

// IP returns the current instruction pointer.
func (m *VM) IP() int {
	return m.ip
}

// Registers returns a copy of the register file.
func (m *VM) Registers() Registers {
	return m.regs
}

// StackDepth returns the operand stack occupancy.
func (m *VM) StackDepth() int {
	return m.stack.Depth()
}

// Capabilities returns the granted capability set.
func (m *VM) Capabilities() Capability {
	return m.caps
}

// NewBuffer stores a byte buffer in the VM's buffer table and returns an
// object value referencing it. Hosts use this to hand bytecode its inputs.
func (m *VM) NewBuffer(b []byte) (Value, error) {
	h, err := m.buffers.add(b)
	if err != nil {
		return Nil, err
	}
	return FromHandle(h), nil
}

// Buffer resolves an object value to its buffer contents.
func (m *VM) Buffer(v Value) ([]byte, bool) {
	h, ok := v.TryHandle()
	if !ok {
		return nil, false
	}
	return m.buffers.get(h)
}

// ---------------------------------------------------------------------------
// Dispatch loop
// ---------------------------------------------------------------------------

// Run executes instructions until the VM halts or faults. It returns nil
// on a normal halt and the fault condition otherwise.
func (m *VM) Run() error {
	if m.state != StateRunning {
		return ErrNotRunning
	}
	for m.state == StateRunning {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunContext is Run with a cancellation check between dispatch steps. A
// cancelled context stops execution and returns ctx.Err(); the VM stays
// in the running state and may be resumed.
func (m *VM) RunContext(ctx context.Context) error {
	if m.state != StateRunning {
		return ErrNotRunning
	}
	for m.state == StateRunning {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction. Reaching the end of the code halts
// the VM normally. A non-nil return means the VM faulted; the fault is
// terminal and Step refuses further work with ErrNotRunning.
func (m *VM) Step() error {
	if m.state != StateRunning {
		return ErrNotRunning
	}
	if m.ip >= len(m.code) {
		m.state = StateHalted
		return nil
	}

	pos := m.ip
	op := Opcode(m.code[m.ip])
	m.ip++

	if m.Trace {
		line, _ := DisassembleInstruction(m.code, pos)
		fmt.Fprintf(os.Stderr, "%s  depth=%d\n", line, m.stack.Depth())
	}

	if err := m.execute(op); err != nil {
		m.state = StateFaulted
		m.fault = fmt.Errorf("%s at offset %d: %w", op.Name(), pos, err)
		return m.fault
	}
	return nil
}

func (m *VM) execute(op Opcode) error {
	info, ok := op.Info()
	if !ok {
		return ErrIllegalOpcode
	}
	if info.Requires != 0 && !m.caps.Has(info.Requires) {
		return fmt.Errorf("%w: capability %s not granted", ErrIllegalOpcode, info.Requires)
	}

	switch op {
	case OpUnreachable:
		return ErrUnreachable

	case OpNop:
		return nil

	// ============ Register pushes ============
	case OpPushA:
		return m.stack.Push(m.regs.A)
	case OpPushB:
		return m.stack.Push(m.regs.B)
	case OpPushR:
		return m.stack.Push(m.regs.R)

	// ============ Pops ============
	case OpPop:
		_, err := m.stack.Pop()
		return err
	case OpPopIntoA:
		return m.popInto(&m.regs.A)
	case OpPopIntoB:
		return m.popInto(&m.regs.B)
	case OpPopIntoR:
		return m.popInto(&m.regs.R)

	// ============ Non-destructive reads ============
	case OpTopIntoA:
		return m.topInto(&m.regs.A)
	case OpTopIntoB:
		return m.topInto(&m.regs.B)
	case OpTopIntoR:
		return m.topInto(&m.regs.R)

	// ============ Exchanges ============
	case OpSwap:
		return m.stack.Swap2()
	case OpSwapA:
		return m.swapWith(&m.regs.A)
	case OpSwapB:
		return m.swapWith(&m.regs.B)
	case OpSwapR:
		return m.swapWith(&m.regs.R)

	case OpDup:
		return m.stack.Dup()

	case OpClear:
		m.stack.Clear()
		return nil

	// ============ Standard I/O ============
	case OpArgs:
		return m.opArgs()
	case OpStdoutWrite:
		return m.opStreamWrite(m.streams.WriteOut, false)
	case OpStdoutWriteLF:
		return m.opStreamWrite(m.streams.WriteOut, true)
	case OpStderrWrite:
		return m.opStreamWrite(m.streams.WriteErr, false)
	case OpStderrWriteLF:
		return m.opStreamWrite(m.streams.WriteErr, true)
	case OpStdinReadLine:
		return m.opStdinReadLine()
	case OpStdinRead:
		return m.opStdinRead()

	// ============ File I/O ============
	case OpIOIsFile:
		return m.opFileCheck(m.fs.IsFile)
	case OpIOIsDirectory:
		return m.opFileCheck(m.fs.IsDirectory)
	case OpIOCreateFile:
		return m.opCreateFile()
	case OpIOFileRead:
		return m.opFileRead()
	case OpIOFileWrite:
		return m.opFileWrite()
	case OpIOSize:
		return m.opFileSize()
	case OpIOMove:
		return m.opPathPair(m.fs.Move)
	case OpIOCopy:
		return m.opPathPair(m.fs.Copy)

	default:
		// Defined in the table but not handled: a table/dispatch skew
		// that must never ship.
		return fmt.Errorf("%w: %s has no handler", ErrIllegalOpcode, op.Name())
	}
}

func (m *VM) popInto(reg *Value) error {
	v, err := m.stack.Pop()
	if err != nil {
		return err
	}
	*reg = v
	return nil
}

func (m *VM) topInto(reg *Value) error {
	v, err := m.stack.Top()
	if err != nil {
		return err
	}
	*reg = v
	return nil
}

func (m *VM) swapWith(reg *Value) error {
	top, err := m.stack.TopPtr()
	if err != nil {
		return err
	}
	*top, *reg = *reg, *top
	return nil
}
