//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatResponse struct {
	Answer  string `json:"answer"`
	Route   string `json:"route"`
	Sources []struct {
		ID    string  `json:"id"`
		Type  string  `json:"type"`
		Score float64 `json:"score"`
	} `json:"sources"`
}

func TestE2E_Health(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Get("/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_Chat(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("empty message greets", func(t *testing.T) {
		resp, err := env.Post("/api/chat", map[string]string{"message": "   "})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var chat chatResponse
		require.NoError(t, json.Unmarshal(resp.Data, &chat))
		assert.Equal(t, "greeting", chat.Route)
		assert.NotEmpty(t, chat.Answer)
	})

	t.Run("day overview answered from schedule", func(t *testing.T) {
		resp, err := env.Post("/api/chat", map[string]string{"message": "What's the agenda on Monday?"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var chat chatResponse
		require.NoError(t, json.Unmarshal(resp.Data, &chat))
		assert.Equal(t, "deterministic", chat.Route)
		assert.Contains(t, chat.Answer, "Welcome Breakfast")
		assert.Contains(t, chat.Answer, "Opening Keynote")
		assert.Contains(t, chat.Answer, "Sunset Dinner")
		assert.Empty(t, chat.Sources)
	})

	t.Run("first item on a day", func(t *testing.T) {
		resp, err := env.Post("/api/chat", map[string]string{"message": "what's the first thing on monday?"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var chat chatResponse
		require.NoError(t, json.Unmarshal(resp.Data, &chat))
		assert.Equal(t, "deterministic", chat.Route)
		assert.Contains(t, chat.Answer, "Welcome Breakfast")
		assert.NotContains(t, chat.Answer, "Opening Keynote")
	})

	t.Run("evening bucket", func(t *testing.T) {
		resp, err := env.Post("/api/chat", map[string]string{"message": "anything on monday evening?"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var chat chatResponse
		require.NoError(t, json.Unmarshal(resp.Data, &chat))
		assert.Equal(t, "deterministic", chat.Route)
		assert.Contains(t, chat.Answer, "Sunset Dinner")
		assert.NotContains(t, chat.Answer, "Welcome Breakfast")
	})

	t.Run("retrieval question without credential returns 503", func(t *testing.T) {
		resp, err := env.Post("/api/chat", map[string]string{"message": "Who is speaking at the keynote?"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Contains(t, resp.Error, "not configured")
	})

	t.Run("missing message field rejected", func(t *testing.T) {
		resp, err := env.Post("/api/chat", map[string]string{})
		require.NoError(t, err)
		// A blank message is the greeting path, never a validation error.
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestE2E_Agenda(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	type agendaData struct {
		Date  string   `json:"date"`
		Dates []string `json:"dates"`
		Items []struct {
			Name    string `json:"name"`
			Date    string `json:"date"`
			Display string `json:"display"`
		} `json:"items"`
	}

	t.Run("full agenda", func(t *testing.T) {
		resp, err := env.Get("/api/agenda")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var data agendaData
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, []string{"2025-10-20", "2025-10-21"}, data.Dates)
		assert.Len(t, data.Items, 4)
	})

	t.Run("single day", func(t *testing.T) {
		resp, err := env.Get("/api/agenda?date=2025-10-21")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var data agendaData
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		require.Len(t, data.Items, 1)
		assert.Equal(t, "Departure Shuttle", data.Items[0].Name)
		assert.Equal(t, "Time TBD", data.Items[0].Display)
	})

	t.Run("unknown day is 404", func(t *testing.T) {
		resp, err := env.Get("/api/agenda?date=2025-12-01")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed date is 400", func(t *testing.T) {
		resp, err := env.Get("/api/agenda?date=next-tuesday")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestE2E_IndexStatus(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Get("/api/index")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Loaded     bool           `json:"loaded"`
		Chunks     int            `json:"chunks"`
		Dimensions int            `json:"dimensions"`
		ByType     map[string]int `json:"by_type"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Chunks)
	assert.Equal(t, embeddingDims, status.Dimensions)
	assert.Equal(t, map[string]int{"faq": 1, "agenda": 1, "guest": 1}, status.ByType)
}
