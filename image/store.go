package image

import (
	"bytes"
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// Store: content-addressed index of verified images
// ---------------------------------------------------------------------------

// Store indexes program images by their content hash. It is the host-local
// cache for images that have already passed Unmarshal validation; VMs are
// transient, the store is what outlives a run.
type Store struct {
	mu     sync.RWMutex
	images map[[32]byte]*Image
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		images: make(map[[32]byte]*Image),
	}
}

// Index adds an image to the store, keyed by its content hash. Images with
// a zero hash are silently ignored.
func (s *Store) Index(img *Image) {
	if img.Hash == ([32]byte{}) {
		return
	}
	s.mu.Lock()
	s.images[img.Hash] = img
	s.mu.Unlock()
}

// Lookup returns the image for the given hash, or nil.
func (s *Store) Lookup(h [32]byte) *Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images[h]
}

// HasHash returns true if the store contains an image with the given hash.
func (s *Store) HasHash(h [32]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.images[h]
	return ok
}

// Len returns the number of indexed images.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// Hashes returns the indexed hashes in lexicographic order.
func (s *Store) Hashes() [][32]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([][32]byte, 0, len(s.images))
	for h := range s.images {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return hashes
}
