// Package index holds the in-memory chunk store: parsing and validation of
// the persisted index artifact, an atomically swappable holder for the
// loaded index, and cosine similarity ranking over it.
package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/portola-retreat/concierge/internal/domain"
)

// Parse decodes and validates an index artifact. Any malformed input
// (bad JSON, missing fields, duplicate ids, inconsistent embedding
// lengths) fails with an INDEX_LOAD domain error.
func Parse(r io.Reader) (*domain.Index, error) {
	var idx domain.Index
	dec := json.NewDecoder(r)
	if err := dec.Decode(&idx); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad, "failed to decode index", err)
	}

	if idx.CreatedAt.IsZero() {
		return nil, domain.NewDomainError(domain.ErrCodeIndexLoad, "index is missing createdAt")
	}

	if err := domain.ValidateIndex(&idx); err != nil {
		return nil, err
	}

	return &idx, nil
}

// LoadFile reads and validates an index artifact from disk.
func LoadFile(path string) (*domain.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad,
			fmt.Sprintf("failed to open index file %s", path), err)
	}
	defer f.Close()

	return Parse(f)
}

// Store holds the currently served index. Readers take a Snapshot and keep
// using it for the whole request; Swap replaces the index wholesale so a
// reload never exposes a half-built store.
type Store struct {
	current atomic.Pointer[domain.Index]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWithIndex creates a Store serving the given index.
func NewStoreWithIndex(idx *domain.Index) *Store {
	s := &Store{}
	if idx != nil {
		s.current.Store(idx)
	}
	return s
}

// Snapshot returns the index currently being served, or nil when no index
// has been loaded. The returned value is immutable.
func (s *Store) Snapshot() *domain.Index {
	return s.current.Load()
}

// Ready reports whether an index is loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// All returns a read-only view of every chunk in the current index.
func (s *Store) All() []domain.Chunk {
	idx := s.current.Load()
	if idx == nil {
		return nil
	}
	return idx.Chunks
}

// Swap atomically replaces the served index.
func (s *Store) Swap(idx *domain.Index) {
	s.current.Store(idx)
}
