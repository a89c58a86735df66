// Package ingest builds the semantic index artifact from the event's
// source collections: FAQ entries, the agenda, and the guest list.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/portola-retreat/concierge/internal/domain"
)

const (
	maxFAQIDLen   = 64
	maxChunkIDLen = 120
)

// FAQ is one question/answer pair from faq.json.
type FAQ struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// Guest is one entry from guests.json.
type Guest struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Bio     string `json:"bio,omitempty"`
}

// BuildInput carries the source collections for one index build.
type BuildInput struct {
	FAQs     []FAQ
	Schedule []domain.ScheduleItem
	Guests   []Guest
}

// BatchEmbedder vectorizes chunk texts. The client behind it owns
// request batching.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder assembles chunks and embeds them into a complete index.
type Builder struct {
	embedder BatchEmbedder
}

func NewBuilder(embedder BatchEmbedder) *Builder {
	return &Builder{embedder: embedder}
}

// Build produces a validated index from the input collections.
func (b *Builder) Build(ctx context.Context, input BuildInput) (*domain.Index, error) {
	chunks := MakeChunks(input)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingService, "failed to embed chunks", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, domain.NewDomainError(domain.ErrCodeEmbeddingService,
			fmt.Sprintf("embedding count mismatch: %d chunks, %d embeddings", len(chunks), len(embeddings)))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	idx := &domain.Index{
		CreatedAt: time.Now().UTC(),
		Chunks:    chunks,
	}
	if err := domain.ValidateIndex(idx); err != nil {
		return nil, err
	}

	return idx, nil
}

// MakeChunks renders the source collections into retrievable chunks.
// Chunk text carries everything the generative model needs to answer
// from that chunk alone.
func MakeChunks(input BuildInput) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(input.FAQs)+len(input.Schedule)+len(input.Guests))

	for _, faq := range input.FAQs {
		chunks = append(chunks, domain.Chunk{
			ID:   truncate("faq:"+faq.Question, maxFAQIDLen),
			Type: domain.ChunkTypeFAQ,
			Text: fmt.Sprintf("FAQ\nQ: %s\nA: %s", faq.Question, faq.Answer),
			Meta: map[string]string{"question": faq.Question},
		})
	}

	for _, item := range input.Schedule {
		chunks = append(chunks, domain.Chunk{
			ID:   truncate(fmt.Sprintf("agenda:%s:%s", item.Date, item.Name), maxChunkIDLen),
			Type: domain.ChunkTypeAgenda,
			Text: renderAgendaChunk(item),
			Meta: map[string]string{"name": item.Name, "date": item.Date},
		})
	}

	for _, guest := range input.Guests {
		chunks = append(chunks, domain.Chunk{
			ID:   truncate("guest:"+guest.Name, maxChunkIDLen),
			Type: domain.ChunkTypeGuest,
			Text: renderGuestChunk(guest),
			Meta: map[string]string{"name": guest.Name},
		})
	}

	return chunks
}

func renderAgendaChunk(item domain.ScheduleItem) string {
	line := fmt.Sprintf("Agenda item (%s): %s. Time: %s. Location: %s.",
		item.Date, item.Name, item.TimeRange(), item.Location)
	if item.Notes != "" {
		line += " Notes: " + item.Notes
	}
	return line
}

func renderGuestChunk(guest Guest) string {
	line := fmt.Sprintf("Guest: %s.", guest.Name)
	if guest.Title != "" {
		line += " Title: " + guest.Title + "."
	}
	if guest.Company != "" {
		line += " Company: " + guest.Company + "."
	}
	if guest.Bio != "" {
		line += " Bio: " + guest.Bio
	}
	return line
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// LoadFAQFile reads faq.json.
func LoadFAQFile(path string) ([]FAQ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read faq file", err)
	}
	var faqs []FAQ
	if err := json.Unmarshal(data, &faqs); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to parse faq file", err)
	}
	return faqs, nil
}

// LoadGuestsFile reads guests.json.
func LoadGuestsFile(path string) ([]Guest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read guests file", err)
	}
	var guests []Guest
	if err := json.Unmarshal(data, &guests); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to parse guests file", err)
	}
	return guests, nil
}

// Encode renders the index artifact as indented JSON.
func Encode(idx *domain.Index) ([]byte, error) {
	return json.MarshalIndent(idx, "", "  ")
}

// WriteFile writes the index artifact atomically: readers of the path
// never see a partial file.
func WriteFile(path string, idx *domain.Index) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
