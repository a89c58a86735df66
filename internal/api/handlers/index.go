package handlers

import (
	"net/http"
	"time"

	"github.com/portola-retreat/concierge/internal/api"
	"github.com/portola-retreat/concierge/internal/index"
)

type IndexHandler struct {
	store *index.Store
}

func NewIndexHandler(store *index.Store) *IndexHandler {
	return &IndexHandler{store: store}
}

type IndexStatusResponse struct {
	Loaded     bool           `json:"loaded"`
	CreatedAt  string         `json:"created_at,omitempty"`
	Chunks     int            `json:"chunks"`
	Dimensions int            `json:"dimensions"`
	ByType     map[string]int `json:"by_type,omitempty"`
}

// Status reports what the in-memory index currently holds. It never
// fails: an unloaded index is a valid status, not an error.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	idx := h.store.Snapshot()
	if idx == nil {
		api.Success(w, http.StatusOK, IndexStatusResponse{Loaded: false})
		return
	}

	byType := make(map[string]int)
	for _, c := range idx.Chunks {
		byType[string(c.Type)]++
	}

	api.Success(w, http.StatusOK, IndexStatusResponse{
		Loaded:     true,
		CreatedAt:  idx.CreatedAt.Format(time.RFC3339),
		Chunks:     len(idx.Chunks),
		Dimensions: idx.Dimensions(),
		ByType:     byType,
	})
}
