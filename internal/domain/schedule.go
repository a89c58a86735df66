package domain

import (
	"fmt"
	"sort"
	"time"
)

// ScheduleItem is one structured agenda entry. Start and End are naive
// local times; nil means the source had no parseable time for the item.
type ScheduleItem struct {
	Name     string     `json:"name"`
	Location string     `json:"location"`
	Notes    string     `json:"notes,omitempty"`
	Date     string     `json:"date"` // YYYY-MM-DD, grouping key
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
}

// HasStart reports whether the item carries a usable start time.
func (s *ScheduleItem) HasStart() bool {
	return s != nil && s.Start != nil
}

// TimeRange renders the item's time span in 12-hour clock form,
// e.g. "6:00 PM–7:30 PM". An item without a start renders "Time TBD".
func (s *ScheduleItem) TimeRange() string {
	if !s.HasStart() {
		return "Time TBD"
	}
	if s.End == nil {
		return formatClock(*s.Start)
	}
	return formatClock(*s.Start) + "–" + formatClock(*s.End)
}

func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

// ValidateScheduleItem validates a single ScheduleItem instance
func ValidateScheduleItem(s *ScheduleItem) error {
	if s == nil {
		return fmt.Errorf("schedule item cannot be nil")
	}

	if s.Name == "" {
		return fmt.Errorf("schedule item Name is required")
	}

	if s.Date == "" {
		return fmt.Errorf("schedule item Date is required")
	}

	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return fmt.Errorf("schedule item Date is invalid: %w", err)
	}

	if s.Start != nil && s.End != nil && s.End.Before(*s.Start) {
		return fmt.Errorf("schedule item End precedes Start")
	}

	return nil
}

// SortScheduleItems orders items chronologically by Start within a day.
// Items without a start time sort last, preserving their input order.
func SortScheduleItems(items []ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Start == nil:
			return false
		case b.Start == nil:
			return true
		default:
			return a.Start.Before(*b.Start)
		}
	})
}
