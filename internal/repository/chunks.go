package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/portola-retreat/concierge/internal/domain"
)

// ChunkRepository persists index chunks in Postgres with pgvector
// embeddings. The serving path never queries it per request: the whole
// table is loaded into memory once and on reload polls. It satisfies
// index.IndexRepository.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceAll swaps the stored index wholesale in one transaction so
// readers never observe a half-written index.
func (r *ChunkRepository) ReplaceAll(ctx context.Context, idx *domain.Index) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}

	for _, chunk := range idx.Chunks {
		meta, err := json.Marshal(chunk.Meta)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO chunks (id, type, text, meta, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			chunk.ID, string(chunk.Type), chunk.Text, meta,
			pgvector.NewVector(chunk.Embedding), idx.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// LoadIndex reads every chunk into a fresh in-memory index.
func (r *ChunkRepository) LoadIndex(ctx context.Context) (*domain.Index, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, text, meta, embedding, created_at FROM chunks ORDER BY id`)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad, "failed to query chunks", err)
	}
	defer rows.Close()

	idx := &domain.Index{}
	for rows.Next() {
		var chunk domain.Chunk
		var chunkType string
		var meta []byte
		var vec pgvector.Vector
		var createdAt time.Time
		if err := rows.Scan(&chunk.ID, &chunkType, &chunk.Text, &meta, &vec, &createdAt); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad, "failed to scan chunk", err)
		}
		chunk.Type = domain.ChunkType(chunkType)
		chunk.Embedding = vec.Slice()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &chunk.Meta); err != nil {
				return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad, "failed to decode chunk meta", err)
			}
		}
		idx.CreatedAt = createdAt
		idx.Chunks = append(idx.Chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad, "failed to read chunks", err)
	}

	if len(idx.Chunks) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	if err := domain.ValidateIndex(idx); err != nil {
		return nil, err
	}

	return idx, nil
}

// IndexVersion returns a marker that changes whenever the stored index
// changes. Count plus latest created_at is enough: ReplaceAll rewrites
// every row with a fresh timestamp.
func (r *ChunkRepository) IndexVersion(ctx context.Context) (string, error) {
	var version string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(count(*)::text || ':' || max(created_at)::text, 'empty') FROM chunks`,
	).Scan(&version)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "empty", nil
		}
		return "", err
	}
	return version, nil
}
