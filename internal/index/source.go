package index

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/portola-retreat/concierge/internal/domain"
)

// Source is a place a full index artifact can be fetched from. Every
// implementation returns the whole index; partial updates do not exist.
// Version is a cheap change marker (file mtime, object ETag, row
// timestamp) the reload worker polls before paying for a Fetch.
type Source interface {
	Fetch(ctx context.Context) (*domain.Index, error)
	Version(ctx context.Context) (string, error)
}

// FileSource loads the index artifact from a local JSON file.
type FileSource struct {
	Path string
}

// NewFileSource creates a Source backed by a file path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (*domain.Index, error) {
	return LoadFile(s.Path)
}

func (s *FileSource) Version(ctx context.Context) (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad,
			fmt.Sprintf("failed to stat index file %s", s.Path), err)
	}
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size()), nil
}

// ObjectFetcher is the slice of object storage the ObjectSource needs.
// Implemented by storage.S3Client.
type ObjectFetcher interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	ObjectETag(ctx context.Context, key string) (string, error)
}

// ObjectSource loads the index artifact from S3-compatible object storage.
type ObjectSource struct {
	fetcher ObjectFetcher
	key     string
}

// NewObjectSource creates a Source backed by an object store key.
func NewObjectSource(fetcher ObjectFetcher, key string) *ObjectSource {
	return &ObjectSource{fetcher: fetcher, key: key}
}

func (s *ObjectSource) Fetch(ctx context.Context) (*domain.Index, error) {
	data, err := s.fetcher.GetObject(ctx, s.key)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad,
			fmt.Sprintf("failed to fetch index object %s", s.key), err)
	}
	return Parse(bytes.NewReader(data))
}

func (s *ObjectSource) Version(ctx context.Context) (string, error) {
	etag, err := s.fetcher.ObjectETag(ctx, s.key)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeIndexLoad,
			fmt.Sprintf("failed to head index object %s", s.key), err)
	}
	return etag, nil
}

// IndexRepository is the slice of the database layer the DatabaseSource
// needs. Implemented by repository.ChunkRepository.
type IndexRepository interface {
	LoadIndex(ctx context.Context) (*domain.Index, error)
	IndexVersion(ctx context.Context) (string, error)
}

// DatabaseSource loads the index wholesale from a pgvector-backed table.
// The database is a persistence backend for the build→load lifecycle; the
// query path still runs against process memory.
type DatabaseSource struct {
	repo IndexRepository
}

// NewDatabaseSource creates a Source backed by the chunk repository.
func NewDatabaseSource(repo IndexRepository) *DatabaseSource {
	return &DatabaseSource{repo: repo}
}

func (s *DatabaseSource) Fetch(ctx context.Context) (*domain.Index, error) {
	idx, err := s.repo.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateIndex(idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *DatabaseSource) Version(ctx context.Context) (string, error) {
	return s.repo.IndexVersion(ctx)
}
