package image

import (
	"bytes"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/lodelang/lode/vm"
)

func TestRoundTrip(t *testing.T) {
	code := vm.NewBuilder().Emit(vm.OpNop, vm.OpPushA, vm.OpPopIntoR).Bytes()
	img := New(code, 1, vm.CapStandardIO)

	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.HasPrefix(data, Magic) {
		t.Error("Marshaled image should start with the magic bytes")
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !bytes.Equal(got.Code, code) {
		t.Errorf("Code round-trip mismatch: %x", got.Code)
	}
	if got.Entry != 1 || got.Capabilities != vm.CapStandardIO || got.Version != Version {
		t.Errorf("Metadata round-trip mismatch: %+v", got)
	}
	if got.Hash != sha256.Sum256(code) {
		t.Error("Hash round-trip mismatch")
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	img := New([]byte{byte(vm.OpNop)}, 0, 0)
	a, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Canonical encoding should be deterministic")
	}
}

func TestUnmarshalRejectsBadMagic(t *testing.T) {
	data, _ := Marshal(New(nil, 0, 0))
	data[0] ^= 0xFF
	if _, err := Unmarshal(data); err == nil || !strings.Contains(err.Error(), "magic") {
		t.Errorf("Expected magic error, got %v", err)
	}
	if _, err := Unmarshal([]byte("VV")); err == nil {
		t.Error("Truncated input should be rejected")
	}
}

func TestUnmarshalRejectsHashMismatch(t *testing.T) {
	img := New([]byte{byte(vm.OpNop), byte(vm.OpNop)}, 0, 0)
	img.Hash[0] ^= 0xFF
	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := Unmarshal(data); err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Errorf("Expected hash mismatch, got %v", err)
	}
}

func TestUnmarshalRejectsBadEntry(t *testing.T) {
	img := New([]byte{byte(vm.OpNop)}, 0, 0)
	img.Entry = 99
	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := Unmarshal(data); err == nil || !strings.Contains(err.Error(), "entry point") {
		t.Errorf("Expected entry point error, got %v", err)
	}
}

func TestUnmarshalRejectsBadVersion(t *testing.T) {
	img := New(nil, 0, 0)
	img.Version = Version + 1
	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := Unmarshal(data); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("Expected version error, got %v", err)
	}
}

func TestNewVMChecksGrant(t *testing.T) {
	img := New(vm.NewBuilder().Emit(vm.OpNop).Bytes(), 0, vm.CapFileIO)

	if _, err := img.NewVM(0); err == nil {
		t.Error("Ungranted capability should fail VM construction")
	}

	m, err := img.NewVM(vm.CapFileIO | vm.CapStandardIO)
	if err != nil {
		t.Fatalf("NewVM failed: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// The VM carries only what the image requires, not the full grant.
	if m.Capabilities() != vm.CapFileIO {
		t.Errorf("VM capabilities are %v, want file-io only", m.Capabilities())
	}
}

func TestNewVMHonorsEntry(t *testing.T) {
	code := vm.NewBuilder().Emit(vm.OpUnreachable, vm.OpNop).Bytes()
	img := New(code, 1, 0)
	m, err := img.NewVM(0)
	if err != nil {
		t.Fatalf("NewVM failed: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if m.State() != vm.StateHalted {
		t.Errorf("State is %v, want halted", m.State())
	}
}

func TestUnmarshalRejectsCorruptPayload(t *testing.T) {
	bad := append(append([]byte{}, Magic...), 0xFF)
	if _, err := Unmarshal(bad); err == nil {
		t.Fatal("Corrupt payload should be rejected")
	}
}
