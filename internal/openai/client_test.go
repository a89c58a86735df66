package openai

import (
	"context"
	"errors"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records calls and returns canned embeddings/completions.
type fakeAPI struct {
	dims            int
	embedCalls      [][]string
	completionCalls [][]goopenai.ChatCompletionMessage
	embedErr        error
	completion      string
	completionErr   error
}

func (f *fakeAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.embedCalls = append(f.embedCalls, texts)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
		out[i][0] = 1
	}
	return out, nil
}

func (f *fakeAPI) CreateChatCompletion(ctx context.Context, messages []goopenai.ChatCompletionMessage) (string, error) {
	f.completionCalls = append(f.completionCalls, messages)
	if f.completionErr != nil {
		return "", f.completionErr
	}
	return f.completion, nil
}

func TestEmbedQuery(t *testing.T) {
	t.Run("returns validated embedding", func(t *testing.T) {
		api := &fakeAPI{dims: 4}
		client := NewClientWithAPI(api, 4)

		embedding, err := client.EmbedQuery(context.Background(), "where is dinner")
		require.NoError(t, err)
		assert.Len(t, embedding, 4)
		require.Len(t, api.embedCalls, 1)
		assert.Equal(t, []string{"where is dinner"}, api.embedCalls[0])
	})

	t.Run("rejects blank text", func(t *testing.T) {
		client := NewClientWithAPI(&fakeAPI{dims: 4}, 4)
		_, err := client.EmbedQuery(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		client := NewClientWithAPI(&fakeAPI{dims: 3}, 4)
		_, err := client.EmbedQuery(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrWrongDimensions)
	})

	t.Run("wraps service errors", func(t *testing.T) {
		api := &fakeAPI{dims: 4, embedErr: errors.New("boom")}
		client := NewClientWithAPI(api, 4)
		_, err := client.EmbedQuery(context.Background(), "hello")
		assert.Error(t, err)
	})
}

func TestEmbedBatch(t *testing.T) {
	t.Run("splits into batches of 100", func(t *testing.T) {
		api := &fakeAPI{dims: 4}
		client := NewClientWithAPI(api, 4)

		texts := make([]string, 250)
		for i := range texts {
			texts[i] = "chunk"
		}

		embeddings, err := client.EmbedBatch(context.Background(), texts)
		require.NoError(t, err)
		assert.Len(t, embeddings, 250)

		require.Len(t, api.embedCalls, 3)
		assert.Len(t, api.embedCalls[0], 100)
		assert.Len(t, api.embedCalls[1], 100)
		assert.Len(t, api.embedCalls[2], 50)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		client := NewClientWithAPI(&fakeAPI{dims: 4}, 4)
		_, err := client.EmbedBatch(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestComplete(t *testing.T) {
	t.Run("converts roles and returns answer", func(t *testing.T) {
		api := &fakeAPI{dims: 4, completion: "Dinner is at 7 PM in the Main Dining Room."}
		client := NewClientWithAPI(api, 4)

		answer, err := client.Complete(context.Background(), []domain.ChatMessage{
			{Role: domain.ChatRoleSystem, Content: "You are Portola."},
			{Role: domain.ChatRoleUser, Content: "When is dinner?"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Dinner is at 7 PM in the Main Dining Room.", answer)

		require.Len(t, api.completionCalls, 1)
		require.Len(t, api.completionCalls[0], 2)
		assert.Equal(t, "system", api.completionCalls[0][0].Role)
		assert.Equal(t, "user", api.completionCalls[0][1].Role)
	})

	t.Run("service error surfaces", func(t *testing.T) {
		api := &fakeAPI{dims: 4, completionErr: errors.New("rate limited")}
		client := NewClientWithAPI(api, 4)
		_, err := client.Complete(context.Background(), []domain.ChatMessage{
			{Role: domain.ChatRoleUser, Content: "hi"},
		})
		assert.Error(t, err)
	})
}
