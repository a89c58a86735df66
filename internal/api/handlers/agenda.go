package handlers

import (
	"net/http"
	"time"

	"github.com/portola-retreat/concierge/internal/api"
	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/portola-retreat/concierge/internal/schedule"
)

type AgendaHandler struct {
	repo *schedule.Repository
}

func NewAgendaHandler(repo *schedule.Repository) *AgendaHandler {
	return &AgendaHandler{repo: repo}
}

type ScheduleItemResponse struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Date     string `json:"date"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Display  string `json:"display"`
}

type AgendaResponse struct {
	Date  string                 `json:"date,omitempty"`
	Dates []string               `json:"dates"`
	Items []ScheduleItemResponse `json:"items"`
}

func scheduleItemToResponse(item domain.ScheduleItem) ScheduleItemResponse {
	resp := ScheduleItemResponse{
		Name:     item.Name,
		Location: item.Location,
		Notes:    item.Notes,
		Date:     item.Date,
		Display:  item.TimeRange(),
	}
	if item.Start != nil {
		resp.Start = item.Start.Format(time.RFC3339)
	}
	if item.End != nil {
		resp.End = item.End.Format(time.RFC3339)
	}
	return resp
}

// Agenda lists schedule items, optionally filtered to one date via ?date=.
// An unknown date is a 404 so clients can distinguish "no such day" from an
// empty day that exists in the schedule.
func (h *AgendaHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	dates := h.repo.Dates()

	date := r.URL.Query().Get("date")
	if date == "" {
		items := h.repo.All()
		resp := AgendaResponse{Dates: dates, Items: make([]ScheduleItemResponse, 0, len(items))}
		for _, item := range items {
			resp.Items = append(resp.Items, scheduleItemToResponse(item))
		}
		api.Success(w, http.StatusOK, resp)
		return
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		api.Error(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}

	items := h.repo.ByDate(date)
	if len(items) == 0 {
		known := false
		for _, d := range dates {
			if d == date {
				known = true
				break
			}
		}
		if !known {
			api.HandleError(w, domain.ErrScheduleDateNotFound)
			return
		}
	}

	resp := AgendaResponse{Date: date, Dates: dates, Items: make([]ScheduleItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, scheduleItemToResponse(item))
	}
	api.Success(w, http.StatusOK, resp)
}
