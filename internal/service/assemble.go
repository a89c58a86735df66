package service

import (
	"fmt"
	"strings"

	"github.com/portola-retreat/concierge/internal/domain"
)

// AssembleChunks formats retrieved chunks into the bounded context block
// for the generative prompt: one line per chunk, tagged with its 1-based
// index and type, in the order the ranker produced. The assembler never
// re-ranks or drops items; the upstream k-limit is the only truncation.
func AssembleChunks(chunks []domain.ScoredChunk) string {
	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = fmt.Sprintf("[%d | %s] %s", i+1, c.Type, c.Text)
	}
	return strings.Join(lines, "\n")
}

// AssembleSchedule formats day-restricted schedule items into a context
// block, in the chronological order provided. A day with no items renders
// an explicit empty marker so the model stays grounded instead of
// guessing.
func AssembleSchedule(date string, items []domain.ScheduleItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("[1 | agenda] No agenda items are scheduled for %s.", date)
	}

	lines := make([]string, len(items))
	for i, item := range items {
		line := fmt.Sprintf("[%d | agenda] %s (%s)", i+1, renderItemLine(item), item.Date)
		if item.Notes != "" {
			line += ". Notes: " + item.Notes
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
