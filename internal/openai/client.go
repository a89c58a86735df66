package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/portola-retreat/concierge/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from text-embedding-3-small
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the OpenAI model used for concierge answers
	DefaultChatModel = "gpt-4o-mini"
	// DefaultTemperature is the sampling temperature for concierge answers
	DefaultTemperature = 0.7

	// embeddingBatchSize is the provider-imposed batch limit honored by EmbedBatch
	embeddingBatchSize = 100
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoCompletion is returned when the completion response carries no choices
	ErrNoCompletion = errors.New("no completion choices returned")
)

// API defines the slice of the OpenAI surface the concierge uses.
type API interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Client wraps the OpenAI API client behind the two collaborator contracts
// the router depends on: query/batch embedding and opaque text completion.
type Client struct {
	api        API
	dimensions int
}

// Config holds explicit client configuration.
type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
	Temperature         float32
}

// OpenAIAdapter implements API against the real service.
type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
	temperature    float32
}

// NewOpenAIAdapter creates an adapter with the given credentials and models.
func NewOpenAIAdapter(apiKey string, embeddingModel openai.EmbeddingModel, chatModel string, temperature float32) *OpenAIAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &OpenAIAdapter{
		client:         openai.NewClient(apiKey),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
		temperature:    temperature,
	}
}

// CreateEmbeddings calls the OpenAI API to embed a batch of texts.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// CreateChatCompletion calls the OpenAI chat API with the prepared messages.
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Temperature: a.temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// NewClient creates a Client with default models.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey, Temperature: DefaultTemperature})
}

// NewClientWithConfig creates a Client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel, cfg.Temperature),
		dimensions: dimensions,
	}
}

// NewClientWithAPI creates a Client over a custom API implementation.
// Used by tests to avoid network calls.
func NewClientWithAPI(api API, dimensions int) *Client {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{api: api, dimensions: dimensions}
}

// EmbedQuery generates an embedding for a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	batch, err := c.api.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	if err := c.checkDimensions(batch[0]); err != nil {
		return nil, err
	}
	return batch[0], nil
}

// EmbedBatch generates embeddings for many texts, splitting the work into
// provider-sized batches of 100.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := c.api.CreateEmbeddings(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch starting at %d: %w", start, err)
		}

		for _, embedding := range batch {
			if err := c.checkDimensions(embedding); err != nil {
				return nil, err
			}
		}
		out = append(out, batch...)
	}

	return out, nil
}

// Complete sends the prepared conversation to the completion service and
// returns its text verbatim. The output is opaque to the caller.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyText
	}

	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	answer, err := c.api.CreateChatCompletion(ctx, converted)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	return answer, nil
}

func (c *Client) checkDimensions(embedding []float32) error {
	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return ErrWrongDimensions
	}
	return nil
}
