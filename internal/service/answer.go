package service

import (
	"context"
	"log"
	"strings"

	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/portola-retreat/concierge/internal/index"
	"github.com/portola-retreat/concierge/internal/schedule"
	"github.com/portola-retreat/concierge/internal/telemetry"
)

// Fixed user-facing texts. Cheaper, safer paths answer with these instead
// of involving the generative model.
const (
	greetingAnswer = "Hey there 👋 How can I help you?"
	fallbackAnswer = "I'm not fully sure about that one. Please check the info desk or see the Agenda page."
	apologyAnswer  = "Sorry — I'm having trouble answering right now. Please try again in a moment."
)

// Route names the terminal state an answer came from.
type Route string

const (
	RouteGreeting      Route = "greeting"
	RouteDeterministic Route = "deterministic"
	RouteRestricted    Route = "restricted"
	RouteGrounded      Route = "grounded"
	RouteFallback      Route = "fallback"
	RouteApology       Route = "apology"
)

// Embedder vectorizes a query via the external embedding service.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer is the opaque generative completion collaborator.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// AnswerConfig holds the retrieval and gating tunables.
type AnswerConfig struct {
	TopK             int
	Threshold        float64
	MinFallbackCount int
}

// DefaultAnswerConfig returns the reference tuning.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:             6,
		Threshold:        0.75,
		MinFallbackCount: 3,
	}
}

// AnswerInput is the request boundary the router serves.
type AnswerInput struct {
	Message string
	History []domain.ChatMessage
}

// SourceRef identifies one chunk that informed an answer.
type SourceRef struct {
	ID    string
	Type  domain.ChunkType
	Score float64
}

// AnswerOutput is the router's terminal result.
type AnswerOutput struct {
	Answer  string
	Sources []SourceRef
	Route   Route
}

// AnswerService sequences the answer pipeline per request: classify,
// extract or retrieve, gate, assemble, dispatch or short-circuit. It owns
// no mutable state; the store and schedule repository are process-wide
// read-only collaborators.
type AnswerService struct {
	store     *index.Store
	extractor *Extractor
	embedder  Embedder
	completer Completer
	cfg       AnswerConfig
}

// NewAnswerService creates the router. embedder and completer may be nil
// when no credential is configured; the deterministic path keeps working
// and generative-path requests fail with a configuration error.
func NewAnswerService(
	store *index.Store,
	scheduleRepo *schedule.Repository,
	dayMap map[string]string,
	embedder Embedder,
	completer Completer,
	cfg AnswerConfig,
) *AnswerService {
	return &AnswerService{
		store:     store,
		extractor: NewExtractor(scheduleRepo, dayMap),
		embedder:  embedder,
		completer: completer,
		cfg:       cfg,
	}
}

// Answer runs the state machine: Start → EmptyCheck → Greeting | DayCheck
// → DeterministicAnswer | RestrictedGenerative | GeneralRetrieval →
// ConfidenceGate → FallbackAnswer | GroundedGenerative. Cheaper, safer,
// more precise paths run before the generative one.
//
// External-call failures are absorbed here and mapped to a safe apology
// answer; the only error returned is the configuration error for a
// missing credential.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	query := strings.TrimSpace(input.Message)
	if query == "" {
		return &AnswerOutput{Answer: greetingAnswer, Route: RouteGreeting}, nil
	}

	history := domain.SanitizeHistory(input.History)

	if ext := s.extractor.Extract(query); ext.Matched {
		if ext.Answer != "" {
			return &AnswerOutput{Answer: ext.Answer, Route: RouteDeterministic}, nil
		}
		return s.restrictedGenerative(ctx, ext, history, query)
	}

	return s.generalRetrieval(ctx, history, query)
}

// restrictedGenerative answers a day-scoped query the extractor could not
// settle, with context limited to that single day's items.
func (s *AnswerService) restrictedGenerative(ctx context.Context, ext ExtractResult, history []domain.ChatMessage, query string) (*AnswerOutput, error) {
	if s.completer == nil {
		return nil, domain.ErrMissingAPICredential
	}

	ctx, span := telemetry.StartSpan(ctx, "answer.restricted", telemetry.SpanAttributes{
		Route:     string(RouteRestricted),
		Date:      ext.Date,
		Operation: "complete",
	})
	defer span.End()

	contextBlock := AssembleSchedule(ext.Date, ext.Restricted)
	answer, err := s.completer.Complete(ctx, BuildMessages(contextBlock, history, query))
	if err != nil {
		return s.apology(ctx, domain.NewDomainErrorWithCause(domain.ErrCodeGenerativeService, "restricted completion failed", err)), nil
	}

	return &AnswerOutput{Answer: answer, Route: RouteRestricted}, nil
}

// generalRetrieval ranks the whole store, applies the confidence gate and
// either grounds a generative call or short-circuits with the fixed
// fallback.
func (s *AnswerService) generalRetrieval(ctx context.Context, history []domain.ChatMessage, query string) (*AnswerOutput, error) {
	snapshot := s.store.Snapshot()
	if snapshot == nil {
		// Index never loaded: the generative path is refused but the
		// request still gets a safe answer.
		log.Printf("answer: general retrieval requested with no index loaded")
		return &AnswerOutput{Answer: fallbackAnswer, Route: RouteFallback}, nil
	}

	if s.embedder == nil || s.completer == nil {
		return nil, domain.ErrMissingAPICredential
	}

	ctx, span := telemetry.StartSpan(ctx, "answer.retrieval", telemetry.SpanAttributes{
		Operation: "embed+rank+complete",
	})
	defer span.End()

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return s.apology(ctx, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingService, "query embedding failed", err)), nil
	}

	ranked := index.Rank(snapshot, queryEmbedding, s.cfg.TopK)
	gate := Gate(ranked, s.cfg.Threshold, s.cfg.MinFallbackCount)

	if !gate.Answerable {
		// Ungrounded: fixed fallback, no generative call. The gated
		// chunks are surfaced as diagnostic sources only.
		return &AnswerOutput{
			Answer:  fallbackAnswer,
			Sources: sourceRefs(gate.Context),
			Route:   RouteFallback,
		}, nil
	}

	contextBlock := AssembleChunks(gate.Context)
	answer, err := s.completer.Complete(ctx, BuildMessages(contextBlock, history, query))
	if err != nil {
		return s.apology(ctx, domain.NewDomainErrorWithCause(domain.ErrCodeGenerativeService, "grounded completion failed", err)), nil
	}

	return &AnswerOutput{
		Answer:  answer,
		Sources: sourceRefs(gate.Context),
		Route:   RouteGrounded,
	}, nil
}

// apology converts an external-service failure into the non-committal
// user-facing answer. Logged and captured, never retried here.
func (s *AnswerService) apology(ctx context.Context, err error) *AnswerOutput {
	log.Printf("answer: %v", err)
	telemetry.CaptureError(ctx, err)
	return &AnswerOutput{Answer: apologyAnswer, Route: RouteApology}
}

func sourceRefs(chunks []domain.ScoredChunk) []SourceRef {
	refs := make([]SourceRef, len(chunks))
	for i, c := range chunks {
		refs[i] = SourceRef{ID: c.ID, Type: c.Type, Score: c.Score}
	}
	return refs
}
