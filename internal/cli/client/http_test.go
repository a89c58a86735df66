package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/index", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"loaded": true, "chunks": 12}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig(server.URL)
	require.NoError(t, err)

	resp, err := api.Get("/api/index")
	require.NoError(t, err)

	var status IndexStatus
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.True(t, status.Loaded)
	assert.Equal(t, 12, status.Chunks)
}

func TestAPIClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "where is dinner?", req.Message)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"answer": "Garden Terrace", "route": "grounded"}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig(server.URL)
	require.NoError(t, err)

	resp, err := api.Post("/api/chat", ChatRequest{Message: "where is dinner?"})
	require.NoError(t, err)

	var chat ChatResponse
	require.NoError(t, json.Unmarshal(resp.Data, &chat))
	assert.Equal(t, "Garden Terrace", chat.Answer)
	assert.Equal(t, "grounded", chat.Route)
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no schedule items for date"}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig(server.URL)
	require.NoError(t, err)

	_, err = api.Get("/api/agenda?date=2030-01-01")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "no schedule items")
}
