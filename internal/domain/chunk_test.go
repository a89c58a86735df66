package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestChunk(id string) Chunk {
	return Chunk{
		ID:        id,
		Type:      ChunkTypeFAQ,
		Text:      "Q: Where is registration?\nA: In the main lobby.",
		Meta:      map[string]string{"q": "Where is registration?"},
		Embedding: []float32{0.1, 0.2, 0.3},
	}
}

func TestChunkTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		typeVal  ChunkType
		expected string
	}{
		{"FAQ", ChunkTypeFAQ, "faq"},
		{"Agenda", ChunkTypeAgenda, "agenda"},
		{"Guest", ChunkTypeGuest, "guest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.typeVal))
		})
	}
}

func TestValidateChunk(t *testing.T) {
	t.Run("valid chunk passes", func(t *testing.T) {
		c := validTestChunk("faq:registration")
		assert.NoError(t, ValidateChunk(&c))
	})

	t.Run("nil chunk fails", func(t *testing.T) {
		assert.Error(t, ValidateChunk(nil))
	})

	t.Run("missing id fails", func(t *testing.T) {
		c := validTestChunk("")
		assert.Error(t, ValidateChunk(&c))
	})

	t.Run("invalid type fails", func(t *testing.T) {
		c := validTestChunk("faq:registration")
		c.Type = "webpage"
		assert.Error(t, ValidateChunk(&c))
	})

	t.Run("empty text fails", func(t *testing.T) {
		c := validTestChunk("faq:registration")
		c.Text = ""
		assert.Error(t, ValidateChunk(&c))
	})

	t.Run("missing embedding fails", func(t *testing.T) {
		c := validTestChunk("faq:registration")
		c.Embedding = nil
		assert.Error(t, ValidateChunk(&c))
	})
}

func TestValidateIndex(t *testing.T) {
	t.Run("valid index passes", func(t *testing.T) {
		idx := &Index{
			CreatedAt: time.Now(),
			Chunks:    []Chunk{validTestChunk("a"), validTestChunk("b")},
		}
		require.NoError(t, ValidateIndex(idx))
		assert.Equal(t, 3, idx.Dimensions())
	})

	t.Run("empty index fails", func(t *testing.T) {
		err := ValidateIndex(&Index{CreatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrEmptyIndex)
	})

	t.Run("duplicate ids fail", func(t *testing.T) {
		idx := &Index{Chunks: []Chunk{validTestChunk("a"), validTestChunk("a")}}
		err := ValidateIndex(idx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateChunkID)
	})

	t.Run("inconsistent embedding length fails", func(t *testing.T) {
		short := validTestChunk("b")
		short.Embedding = []float32{0.1, 0.2}
		idx := &Index{Chunks: []Chunk{validTestChunk("a"), short}}
		err := ValidateIndex(idx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmbeddingLength)

		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, ErrCodeIndexLoad, domainErr.Code)
	})

	t.Run("malformed chunk fails", func(t *testing.T) {
		bad := validTestChunk("b")
		bad.Text = ""
		idx := &Index{Chunks: []Chunk{validTestChunk("a"), bad}}
		assert.Error(t, ValidateIndex(idx))
	})
}
