package vm

import (
	"testing"
	"unsafe"
)

func TestValueZeroIsNil(t *testing.T) {
	var v Value
	if !v.IsNil() || v.Kind() != KindNil || v.Payload() != 0 {
		t.Errorf("Zero value should be nil with zero payload, got %v", v)
	}
	if v != Nil {
		t.Error("Zero value should equal Nil")
	}
}

func TestValueIsSixteenBytes(t *testing.T) {
	if size := unsafe.Sizeof(Value{}); size != 16 {
		t.Errorf("Value size is %d bytes, want 16", size)
	}
}

func TestValueNumber(t *testing.T) {
	v := FromNumber(3.5)
	if !v.IsNumber() {
		t.Fatal("FromNumber should produce a number")
	}
	if got := v.Number(); got != 3.5 {
		t.Errorf("Number() = %g, want 3.5", got)
	}
	if _, ok := v.TryNumber(); !ok {
		t.Error("TryNumber should succeed on a number")
	}
	if _, ok := Nil.TryNumber(); ok {
		t.Error("TryNumber should fail on nil")
	}
	if _, ok := v.TryHandle(); ok {
		t.Error("TryHandle should fail on a number")
	}
}

func TestValueNilPayload(t *testing.T) {
	v := NilWithPayload(42)
	if !v.IsNil() {
		t.Fatal("NilWithPayload should produce a nil value")
	}
	if v.Payload() != 42 {
		t.Errorf("Payload() = %d, want 42", v.Payload())
	}
}

func TestValueHandle(t *testing.T) {
	v := FromHandle(7)
	if !v.IsObject() {
		t.Fatal("FromHandle should produce an object value")
	}
	if v.Handle() != 7 {
		t.Errorf("Handle() = %d, want 7", v.Handle())
	}
}

func TestCheckedAccessorsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Number() on nil should panic")
		}
	}()
	_ = Nil.Number()
}

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{NilWithPayload(9), "nil(9)"},
		{FromNumber(2), "2"},
		{FromHandle(3), "buf#3"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
