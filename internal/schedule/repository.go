// Package schedule loads the structured agenda and serves it read-only,
// grouped by day. Like the chunk store, the collection is immutable after
// load and safe for unlimited concurrent readers.
package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/portola-retreat/concierge/internal/domain"
)

// localTimeLayout is the naive local timestamp format used by the agenda
// source. No timezone conversion happens anywhere; local time is
// authoritative.
const localTimeLayout = "2006-01-02T15:04:05"

type rawItem struct {
	Name     string  `json:"name"`
	Start    *string `json:"start"`
	End      *string `json:"end"`
	Location string  `json:"location"`
	Notes    string  `json:"notes,omitempty"`
	Date     string  `json:"date"`
}

// Repository is the read-only collection of schedule items, indexed by
// calendar date with each day's items in chronological order.
type Repository struct {
	items  []domain.ScheduleItem
	byDate map[string][]domain.ScheduleItem
	dates  []string
}

// Load parses schedule items from a JSON source.
func Load(r io.Reader) (*Repository, error) {
	var raw []rawItem
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to decode schedule", err)
	}

	items := make([]domain.ScheduleItem, 0, len(raw))
	for i, ri := range raw {
		item := domain.ScheduleItem{
			Name:     ri.Name,
			Location: ri.Location,
			Notes:    ri.Notes,
			Date:     ri.Date,
		}

		var err error
		if item.Start, err = parseLocalTime(ri.Start); err != nil {
			return nil, fmt.Errorf("schedule item %d: bad start: %w", i, err)
		}
		if item.End, err = parseLocalTime(ri.End); err != nil {
			return nil, fmt.Errorf("schedule item %d: bad end: %w", i, err)
		}

		if err := domain.ValidateScheduleItem(&item); err != nil {
			return nil, fmt.Errorf("schedule item %d: %w", i, err)
		}

		items = append(items, item)
	}

	return NewRepository(items), nil
}

// LoadFile parses schedule items from a JSON file on disk.
func LoadFile(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule file %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// NewRepository builds a Repository from already validated items.
func NewRepository(items []domain.ScheduleItem) *Repository {
	byDate := make(map[string][]domain.ScheduleItem)
	for _, item := range items {
		byDate[item.Date] = append(byDate[item.Date], item)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		domain.SortScheduleItems(byDate[date])
		dates = append(dates, date)
	}
	sort.Strings(dates)

	return &Repository{items: items, byDate: byDate, dates: dates}
}

// All returns every schedule item.
func (r *Repository) All() []domain.ScheduleItem {
	return r.items
}

// Dates returns every date that has at least one item, ascending.
func (r *Repository) Dates() []string {
	return r.dates
}

// ByDate returns the items for one calendar date, sorted by start time
// with untimed items last. The result is empty, not an error, for a date
// with no items.
func (r *Repository) ByDate(date string) []domain.ScheduleItem {
	return r.byDate[date]
}

func parseLocalTime(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(localTimeLayout, *raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
