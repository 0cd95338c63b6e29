package vm

import "testing"

func TestStackPushPop(t *testing.T) {
	s := NewOperandStack(4)
	for i := 0; i < 3; i++ {
		if err := s.Push(FromNumber(float64(i))); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}
	for i := 2; i >= 0; i-- {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		if v.Number() != float64(i) {
			t.Errorf("Pop returned %v, want %d", v, i)
		}
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewOperandStack(2)
	if err := s.Push(Nil); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := s.Push(Nil); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := s.Push(Nil); err != ErrStackOverflow {
		t.Errorf("Expected ErrStackOverflow, got %v", err)
	}
	if s.Depth() != 2 {
		t.Errorf("Failed push changed depth to %d", s.Depth())
	}
}

func TestStackUnderflow(t *testing.T) {
	s := NewOperandStack(2)
	if _, err := s.Pop(); err != ErrStackUnderflow {
		t.Errorf("Pop: expected ErrStackUnderflow, got %v", err)
	}
	if _, err := s.Top(); err != ErrStackUnderflow {
		t.Errorf("Top: expected ErrStackUnderflow, got %v", err)
	}
	if _, err := s.TopPtr(); err != ErrStackUnderflow {
		t.Errorf("TopPtr: expected ErrStackUnderflow, got %v", err)
	}
	if err := s.Dup(); err != ErrStackUnderflow {
		t.Errorf("Dup: expected ErrStackUnderflow, got %v", err)
	}
}

func TestStackSwap2(t *testing.T) {
	s := NewOperandStack(4)
	s.Push(FromNumber(1))
	if err := s.Swap2(); err != ErrStackUnderflow {
		t.Errorf("Swap2 with one value: expected ErrStackUnderflow, got %v", err)
	}
	s.Push(FromNumber(2))
	if err := s.Swap2(); err != nil {
		t.Fatalf("Swap2 failed: %v", err)
	}
	v, _ := s.Pop()
	if v.Number() != 1 {
		t.Errorf("Top after swap is %v, want 1", v)
	}
}

func TestStackDup(t *testing.T) {
	s := NewOperandStack(2)
	s.Push(FromNumber(5))
	if err := s.Dup(); err != nil {
		t.Fatalf("Dup failed: %v", err)
	}
	if err := s.Dup(); err != ErrStackOverflow {
		t.Errorf("Dup on full stack: expected ErrStackOverflow, got %v", err)
	}
	a, _ := s.Pop()
	b, _ := s.Pop()
	if a != b {
		t.Errorf("Dup produced %v and %v, want equal values", a, b)
	}
}

func TestStackClearKeepsCapacity(t *testing.T) {
	s := NewOperandStack(8)
	for i := 0; i < 8; i++ {
		s.Push(Nil)
	}
	s.Clear()
	if s.Depth() != 0 {
		t.Errorf("Depth after Clear is %d", s.Depth())
	}
	if s.Cap() != 8 {
		t.Errorf("Cap after Clear is %d, want 8", s.Cap())
	}
	if err := s.Push(Nil); err != nil {
		t.Errorf("Push after Clear failed: %v", err)
	}
}

func TestStackDefaultCapacity(t *testing.T) {
	if got := NewOperandStack(0).Cap(); got != DefaultStackCapacity {
		t.Errorf("Default capacity is %d, want %d", got, DefaultStackCapacity)
	}
}
