package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/portola-retreat/concierge/internal/index"
)

type fakeSource struct {
	version    string
	idx        *domain.Index
	versionErr error
	fetchErr   error

	fetchCalls int
}

func (s *fakeSource) Fetch(ctx context.Context) (*domain.Index, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.idx, nil
}

func (s *fakeSource) Version(ctx context.Context) (string, error) {
	if s.versionErr != nil {
		return "", s.versionErr
	}
	return s.version, nil
}

func indexWithID(id string) *domain.Index {
	return &domain.Index{
		CreatedAt: time.Now(),
		Chunks: []domain.Chunk{
			{ID: id, Type: domain.ChunkTypeFAQ, Text: "text", Embedding: []float32{1}},
		},
	}
}

func TestIndexReloader_Refresh(t *testing.T) {
	t.Run("loads on first poll", func(t *testing.T) {
		store := index.NewStore()
		source := &fakeSource{version: "v1", idx: indexWithID("faq:v1")}
		reloader := NewIndexReloader(source, store)

		require.NoError(t, reloader.Refresh(context.Background()))

		snapshot := store.Snapshot()
		require.NotNil(t, snapshot)
		assert.Equal(t, "faq:v1", snapshot.Chunks[0].ID)
	})

	t.Run("skips fetch when version unchanged", func(t *testing.T) {
		store := index.NewStore()
		source := &fakeSource{version: "v1", idx: indexWithID("faq:v1")}
		reloader := NewIndexReloader(source, store)

		require.NoError(t, reloader.Refresh(context.Background()))
		require.NoError(t, reloader.Refresh(context.Background()))
		require.NoError(t, reloader.Refresh(context.Background()))

		assert.Equal(t, 1, source.fetchCalls)
	})

	t.Run("swaps on version change", func(t *testing.T) {
		store := index.NewStore()
		source := &fakeSource{version: "v1", idx: indexWithID("faq:v1")}
		reloader := NewIndexReloader(source, store)

		require.NoError(t, reloader.Refresh(context.Background()))

		source.version = "v2"
		source.idx = indexWithID("faq:v2")
		require.NoError(t, reloader.Refresh(context.Background()))

		assert.Equal(t, "faq:v2", store.Snapshot().Chunks[0].ID)
		assert.Equal(t, 2, source.fetchCalls)
	})

	t.Run("fetch failure keeps current index serving", func(t *testing.T) {
		store := index.NewStore()
		source := &fakeSource{version: "v1", idx: indexWithID("faq:v1")}
		reloader := NewIndexReloader(source, store)

		require.NoError(t, reloader.Refresh(context.Background()))

		source.version = "v2"
		source.fetchErr = errors.New("source unreachable")
		assert.Error(t, reloader.Refresh(context.Background()))

		// Old index still served, and the version marker did not advance
		// so the next healthy poll retries the fetch.
		assert.Equal(t, "faq:v1", store.Snapshot().Chunks[0].ID)

		source.fetchErr = nil
		source.idx = indexWithID("faq:v2")
		require.NoError(t, reloader.Refresh(context.Background()))
		assert.Equal(t, "faq:v2", store.Snapshot().Chunks[0].ID)
	})

	t.Run("version failure is returned", func(t *testing.T) {
		store := index.NewStore()
		source := &fakeSource{versionErr: errors.New("head failed")}
		reloader := NewIndexReloader(source, store)

		assert.Error(t, reloader.Refresh(context.Background()))
		assert.Nil(t, store.Snapshot())
	})
}

// MockRefresher is a mock implementation of Refresher
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestPoller_StartStop(t *testing.T) {
	refresher := new(MockRefresher)
	refresher.On("Refresh", mock.Anything).Return(nil)

	poller := NewPoller(refresher, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	poller.Stop()
	wg.Wait()

	refresher.AssertCalled(t, "Refresh", mock.Anything)
}

func TestPoller_ContextCancellation(t *testing.T) {
	refresher := new(MockRefresher)
	refresher.On("Refresh", mock.Anything).Return(nil)

	poller := NewPoller(refresher, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	refresher.AssertCalled(t, "Refresh", mock.Anything)
}

func TestPoller_RefreshFailureKeepsPolling(t *testing.T) {
	refresher := new(MockRefresher)
	refresher.On("Refresh", mock.Anything).Return(errors.New("source unreachable"))

	poller := NewPoller(refresher, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(ctx)
	}()

	time.Sleep(180 * time.Millisecond)

	poller.Stop()
	wg.Wait()

	// The loop outlived the failures: more than one tick fired.
	assert.GreaterOrEqual(t, len(refresher.Calls), 2)
}
