// Package image defines the wire format for Lode program images and a
// content-addressed store for verified images.
package image

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/lodelang/lode/vm"
)

// Magic identifies a Lode program image file.
var Magic = []byte("VVMM\x00\x00\x00\x00")

// Version is the current image format version. Increment when making
// incompatible changes to the format.
const Version uint16 = 1

// cborEncMode uses canonical mode for deterministic encoding, so an
// image's bytes (and therefore its hash) are stable across hosts.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Image is a self-contained, executable program: bytecode, the entry
// point, and the capabilities the program needs granted to run.
type Image struct {
	Version      uint16
	Entry        uint64
	Code         []byte
	Capabilities vm.Capability

	// Hash is the sha256 of Code; Unmarshal rejects images whose declared
	// hash does not match their code.
	Hash [32]byte
}

// New creates an image for the given code, computing its content hash.
func New(code []byte, entry uint64, caps vm.Capability) *Image {
	return &Image{
		Version:      Version,
		Entry:        entry,
		Code:         code,
		Capabilities: caps,
		Hash:         sha256.Sum256(code),
	}
}

// Marshal serializes an image to its wire form: magic bytes followed by a
// canonical CBOR payload.
func Marshal(img *Image) ([]byte, error) {
	payload, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("image: marshal: %w", err)
	}
	out := make([]byte, 0, len(Magic)+len(payload))
	out = append(out, Magic...)
	return append(out, payload...), nil
}

// Unmarshal deserializes and validates an image: magic bytes, format
// version, entry bounds, and content hash.
func Unmarshal(data []byte) (*Image, error) {
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, fmt.Errorf("image: invalid magic bytes")
	}

	var img Image
	if err := cbor.Unmarshal(data[len(Magic):], &img); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if img.Version != Version {
		return nil, fmt.Errorf("image: unsupported format version %d", img.Version)
	}
	if img.Entry > uint64(len(img.Code)) {
		return nil, fmt.Errorf("image: entry point %d outside code of length %d",
			img.Entry, len(img.Code))
	}
	if computed := sha256.Sum256(img.Code); computed != img.Hash {
		return nil, fmt.Errorf("image: hash mismatch: declared %x, computed %x",
			img.Hash, computed)
	}
	return &img, nil
}

// NewVM constructs a VM executing this image, combining the image's
// required capabilities with host-side options. It fails when the host
// grant does not cover the image's requirements.
func (img *Image) NewVM(granted vm.Capability, opts ...vm.Option) (*vm.VM, error) {
	if !granted.Has(img.Capabilities) {
		return nil, fmt.Errorf("image: requires capabilities %s, host grants %s",
			img.Capabilities, granted)
	}
	opts = append(opts,
		vm.WithEntry(int(img.Entry)),
		vm.WithCapabilities(img.Capabilities))
	return vm.New(img.Code, opts...)
}
