//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portola-retreat/concierge/internal/api/handlers"
	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/portola-retreat/concierge/internal/index"
	"github.com/portola-retreat/concierge/internal/repository"
	"github.com/portola-retreat/concierge/internal/schedule"
	"github.com/portola-retreat/concierge/internal/server"
	"github.com/portola-retreat/concierge/internal/service"
	"github.com/portola-retreat/concierge/internal/testutil"
)

const embeddingDims = 1536

// E2ETestEnv holds all resources needed for E2E tests: a pgvector
// container with the chunk table migrated, an in-process HTTP server
// mounted on the real router, and the chunk store it serves from.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Repo       *repository.ChunkRepository
	Store      *index.Store
	Server     *httptest.Server
	HTTPClient *http.Client
}

// agendaFixture covers two days, one item with no start time.
const agendaFixture = `[
	{"name": "Welcome Breakfast", "date": "2025-10-20", "start": "2025-10-20T08:00:00", "end": "2025-10-20T09:00:00", "location": "Terrace"},
	{"name": "Opening Keynote", "date": "2025-10-20", "start": "2025-10-20T09:30:00", "end": "2025-10-20T10:30:00", "location": "Main Hall"},
	{"name": "Sunset Dinner", "date": "2025-10-20", "start": "2025-10-20T18:00:00", "end": "2025-10-20T20:00:00", "location": "Beach"},
	{"name": "Departure Shuttle", "date": "2025-10-21", "start": null, "end": null, "location": "Lobby"}
]`

var dayMap = map[string]string{
	"monday":  "2025-10-20",
	"tuesday": "2025-10-21",
}

// SetupE2EEnv starts the container, migrates it, seeds the chunk table,
// loads the index through the database source, and mounts the router.
// No generative credential is configured: the deterministic and greeting
// routes work end to end, the generative paths fail closed.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")
	repo := repository.NewChunkRepository(pool)

	if err := repo.ReplaceAll(ctx, seedIndex()); err != nil {
		t.Fatalf("failed to seed chunks: %v", err)
	}

	idx, err := index.NewDatabaseSource(repo).Fetch(ctx)
	if err != nil {
		t.Fatalf("failed to load index from database: %v", err)
	}
	store := index.NewStoreWithIndex(idx)

	scheduleRepo, err := schedule.Load(strings.NewReader(agendaFixture))
	if err != nil {
		t.Fatalf("failed to load agenda fixture: %v", err)
	}

	answerSvc := service.NewAnswerService(store, scheduleRepo, dayMap, nil, nil, service.DefaultAnswerConfig())

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:   handlers.NewChatHandler(answerSvc),
		AgendaHandler: handlers.NewAgendaHandler(scheduleRepo),
		IndexHandler:  handlers.NewIndexHandler(store),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Repo:       repo,
		Store:      store,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources.
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// seedIndex builds a small index with synthetic embeddings. The vectors
// only need to satisfy the dimension check; no similarity queries run
// against them in this suite.
func seedIndex() *domain.Index {
	chunks := []domain.Chunk{
		{
			ID:        "faq:What time is check-in?",
			Type:      domain.ChunkTypeFAQ,
			Text:      "FAQ\nQ: What time is check-in?\nA: Check-in opens at 3:00 PM.",
			Embedding: syntheticEmbedding(1),
		},
		{
			ID:        "agenda:2025-10-20:Sunset Dinner",
			Type:      domain.ChunkTypeAgenda,
			Text:      "Agenda item (2025-10-20): Sunset Dinner. Time: 6:00 PM–8:00 PM. Location: Beach.",
			Meta:      map[string]string{"date": "2025-10-20"},
			Embedding: syntheticEmbedding(2),
		},
		{
			ID:        "guest:Dana Whitfield",
			Type:      domain.ChunkTypeGuest,
			Text:      "Guest: Dana Whitfield. Title: CTO. Company: Lumen Ridge.",
			Embedding: syntheticEmbedding(3),
		},
	}
	return &domain.Index{CreatedAt: time.Now().UTC().Truncate(time.Second), Chunks: chunks}
}

func syntheticEmbedding(seed int) []float32 {
	vec := make([]float32, embeddingDims)
	vec[seed%embeddingDims] = 1
	return vec
}

// APIResponse is a parsed envelope from the server.
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage
	Error      string
}

// Get performs a GET against the test server and parses the envelope.
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	resp, err := e.HTTPClient.Get(e.Server.URL + path)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

// Post performs a JSON POST against the test server and parses the envelope.
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := e.HTTPClient.Post(e.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func parseResponse(resp *http.Response) (*APIResponse, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unparseable response body %q: %w", raw, err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Data:       envelope.Data,
		Error:      envelope.Error,
	}, nil
}
