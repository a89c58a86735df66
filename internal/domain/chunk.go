package domain

import (
	"fmt"
	"time"
)

// ChunkType classifies a retrievable chunk by its source collection.
type ChunkType string

const (
	ChunkTypeFAQ    ChunkType = "faq"
	ChunkTypeAgenda ChunkType = "agenda"
	ChunkTypeGuest  ChunkType = "guest"
)

// Chunk represents one retrievable text fragment with its precomputed
// embedding. Chunks are built offline and never mutated after load.
type Chunk struct {
	ID        string            `json:"id"`
	Type      ChunkType         `json:"type"`
	Text      string            `json:"text"`
	Meta      map[string]string `json:"meta,omitempty"`
	Embedding []float32         `json:"embedding"`
}

// ScoredChunk is a Chunk plus its cosine similarity to a query vector.
// Produced per query, never persisted.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Index is the wholesale unit of retrieval state: built once per ingestion
// run, persisted, loaded and served read-only. A refresh replaces the
// whole value, never individual fields.
type Index struct {
	CreatedAt time.Time `json:"createdAt"`
	Chunks    []Chunk   `json:"chunks"`
}

// Dimensions returns the embedding length shared by all chunks,
// or 0 for an empty index.
func (idx *Index) Dimensions() int {
	if idx == nil || len(idx.Chunks) == 0 {
		return 0
	}
	return len(idx.Chunks[0].Embedding)
}

// ValidateChunk validates a single Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if !isValidChunkType(c.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidChunkType, c.Type)
	}

	if c.Text == "" {
		return fmt.Errorf("chunk Text is required")
	}

	if len(c.Embedding) == 0 {
		return fmt.Errorf("chunk Embedding is required")
	}

	return nil
}

// ValidateIndex validates a loaded Index: every chunk well-formed, ids
// unique across the store, embedding lengths uniform.
func ValidateIndex(idx *Index) error {
	if idx == nil {
		return fmt.Errorf("index cannot be nil")
	}

	if len(idx.Chunks) == 0 {
		return ErrEmptyIndex
	}

	dims := len(idx.Chunks[0].Embedding)
	seen := make(map[string]struct{}, len(idx.Chunks))

	for i := range idx.Chunks {
		c := &idx.Chunks[i]
		if err := ValidateChunk(c); err != nil {
			return NewDomainErrorWithCause(ErrCodeIndexLoad, fmt.Sprintf("chunk %d is malformed", i), err)
		}
		if _, ok := seen[c.ID]; ok {
			return NewDomainErrorWithCause(ErrCodeIndexLoad, fmt.Sprintf("chunk %q", c.ID), ErrDuplicateChunkID)
		}
		seen[c.ID] = struct{}{}
		if len(c.Embedding) != dims {
			return NewDomainErrorWithCause(ErrCodeIndexLoad,
				fmt.Sprintf("chunk %q has %d dimensions, index has %d", c.ID, len(c.Embedding), dims),
				ErrEmbeddingLength)
		}
	}

	return nil
}

// isValidChunkType checks if a ChunkType is valid
func isValidChunkType(t ChunkType) bool {
	switch t {
	case ChunkTypeFAQ, ChunkTypeAgenda, ChunkTypeGuest:
		return true
	}
	return false
}
