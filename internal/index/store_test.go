package index

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validIndexJSON = `{
	"createdAt": "2025-10-01T12:00:00Z",
	"chunks": [
		{"id": "faq:wifi", "type": "faq", "text": "Q: Wifi?\nA: portola-guest", "meta": {"q": "Wifi?"}, "embedding": [0.1, 0.2, 0.3]},
		{"id": "guest:Jane", "type": "guest", "text": "Guest: Jane. Title: CTO.", "embedding": [0.3, 0.2, 0.1]}
	]
}`

func TestParse(t *testing.T) {
	t.Run("valid artifact", func(t *testing.T) {
		idx, err := Parse(strings.NewReader(validIndexJSON))
		require.NoError(t, err)
		assert.Len(t, idx.Chunks, 2)
		assert.Equal(t, 3, idx.Dimensions())
		assert.Equal(t, "faq:wifi", idx.Chunks[0].ID)
	})

	t.Run("invalid json fails", func(t *testing.T) {
		_, err := Parse(strings.NewReader("{not json"))
		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeIndexLoad, domainErr.Code)
	})

	t.Run("missing createdAt fails", func(t *testing.T) {
		payload := `{"chunks": [{"id": "a", "type": "faq", "text": "x", "embedding": [0.1]}]}`
		_, err := Parse(strings.NewReader(payload))
		assert.Error(t, err)
	})

	t.Run("duplicate ids fail", func(t *testing.T) {
		payload := `{
			"createdAt": "2025-10-01T12:00:00Z",
			"chunks": [
				{"id": "a", "type": "faq", "text": "x", "embedding": [0.1]},
				{"id": "a", "type": "faq", "text": "y", "embedding": [0.2]}
			]
		}`
		_, err := Parse(strings.NewReader(payload))
		assert.ErrorIs(t, err, domain.ErrDuplicateChunkID)
	})

	t.Run("inconsistent dimensions fail", func(t *testing.T) {
		payload := `{
			"createdAt": "2025-10-01T12:00:00Z",
			"chunks": [
				{"id": "a", "type": "faq", "text": "x", "embedding": [0.1, 0.2]},
				{"id": "b", "type": "faq", "text": "y", "embedding": [0.2]}
			]
		}`
		_, err := Parse(strings.NewReader(payload))
		assert.ErrorIs(t, err, domain.ErrEmbeddingLength)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("loads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "search-index.json")
		require.NoError(t, os.WriteFile(path, []byte(validIndexJSON), 0o644))

		idx, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, idx.Chunks, 2)
	})

	t.Run("missing file fails with index load error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeIndexLoad, domainErr.Code)
	})
}

func TestStoreSwap(t *testing.T) {
	t.Run("empty store is not ready", func(t *testing.T) {
		s := NewStore()
		assert.False(t, s.Ready())
		assert.Nil(t, s.Snapshot())
		assert.Nil(t, s.All())
	})

	t.Run("swap replaces the index wholesale", func(t *testing.T) {
		first := &domain.Index{CreatedAt: time.Now(), Chunks: []domain.Chunk{
			{ID: "v1:a", Type: domain.ChunkTypeFAQ, Text: "x", Embedding: []float32{1}},
		}}
		second := &domain.Index{CreatedAt: time.Now(), Chunks: []domain.Chunk{
			{ID: "v2:a", Type: domain.ChunkTypeFAQ, Text: "y", Embedding: []float32{1}},
			{ID: "v2:b", Type: domain.ChunkTypeFAQ, Text: "z", Embedding: []float32{1}},
		}}

		s := NewStoreWithIndex(first)
		snap := s.Snapshot()
		s.Swap(second)

		// the snapshot taken before the swap still sees only v1 chunks
		assert.Len(t, snap.Chunks, 1)
		assert.Equal(t, "v1:a", snap.Chunks[0].ID)
		assert.Len(t, s.Snapshot().Chunks, 2)
	})

	t.Run("concurrent readers never see a mixed index", func(t *testing.T) {
		v1 := &domain.Index{CreatedAt: time.Now(), Chunks: []domain.Chunk{
			{ID: "v1:a", Type: domain.ChunkTypeFAQ, Text: "x", Embedding: []float32{1}},
			{ID: "v1:b", Type: domain.ChunkTypeFAQ, Text: "x", Embedding: []float32{1}},
		}}
		v2 := &domain.Index{CreatedAt: time.Now(), Chunks: []domain.Chunk{
			{ID: "v2:a", Type: domain.ChunkTypeFAQ, Text: "x", Embedding: []float32{1}},
			{ID: "v2:b", Type: domain.ChunkTypeFAQ, Text: "x", Embedding: []float32{1}},
		}}

		s := NewStoreWithIndex(v1)

		var wg sync.WaitGroup
		stop := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if i%2 == 0 {
					s.Swap(v2)
				} else {
					s.Swap(v1)
				}
			}
			close(stop)
		}()

		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					snap := s.Snapshot()
					prefix := snap.Chunks[0].ID[:2]
					for _, c := range snap.Chunks {
						if c.ID[:2] != prefix {
							t.Errorf("mixed index versions in one snapshot: %s vs %s", snap.Chunks[0].ID, c.ID)
							return
						}
					}
				}
			}()
		}

		wg.Wait()
	})
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search-index.json")
	require.NoError(t, os.WriteFile(path, []byte(validIndexJSON), 0o644))

	src := NewFileSource(path)

	idx, err := src.Fetch(t.Context())
	require.NoError(t, err)
	assert.Len(t, idx.Chunks, 2)

	v1, err := src.Version(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, v1)

	// rewriting the artifact changes the version marker
	later := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	v2, err := src.Version(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}
