package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/portola-retreat/concierge/internal/api"
	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/portola-retreat/concierge/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, input service.AnswerInput) (*service.AnswerOutput, error)
}

type ChatHandler struct {
	svc AnswerService
}

func NewChatHandler(svc AnswerService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string               `json:"message"`
	History []ChatMessageRequest `json:"history,omitempty"`
}

type SourceResponse struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

type ChatResponse struct {
	Answer  string           `json:"answer"`
	Route   string           `json:"route"`
	Sources []SourceResponse `json:"sources,omitempty"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// History entries with unknown roles or empty content are dropped
	// rather than rejected, so a stale client cannot wedge the chat.
	history := make([]domain.ChatMessage, 0, len(req.History))
	for _, m := range req.History {
		role, err := domain.ParseChatRole(m.Role)
		if err != nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		history = append(history, domain.ChatMessage{Role: role, Content: m.Content})
	}

	result, err := h.svc.Answer(r.Context(), service.AnswerInput{
		Message: req.Message,
		History: history,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingAPICredential) {
			api.Error(w, http.StatusServiceUnavailable, "assistant is not configured; contact the operator")
			return
		}
		api.HandleError(w, err)
		return
	}

	sources := make([]SourceResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, SourceResponse{
			ID:    s.ID,
			Type:  string(s.Type),
			Score: s.Score,
		})
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Answer:  result.Answer,
		Route:   string(result.Route),
		Sources: sources,
	})
}
