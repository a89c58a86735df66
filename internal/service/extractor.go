package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/portola-retreat/concierge/internal/domain"
	"github.com/portola-retreat/concierge/internal/schedule"
)

// Qualifier classifies what a day-scoped query is asking for.
type Qualifier string

const (
	QualifierOverview  Qualifier = "overview"
	QualifierFirst     Qualifier = "first"
	QualifierLast      Qualifier = "last"
	QualifierMorning   Qualifier = "morning"
	QualifierAfternoon Qualifier = "afternoon"
	QualifierEvening   Qualifier = "evening"
	QualifierSpecific  Qualifier = "specific"
)

// Time-of-day buckets in local hours: morning [5,12), afternoon [12,17),
// evening [17,24).
const (
	morningStartHour   = 5
	afternoonStartHour = 12
	eveningStartHour   = 17
)

// ExtractResult is the outcome of deterministic extraction.
//
// Matched=false means the query carries no day reference and general
// retrieval should run. Matched=true with a non-empty Answer is a terminal
// deterministic answer. Matched=true with an empty Answer means the query
// is day-scoped but not answerable by the extractor alone; Restricted
// holds that day's items for a restricted generative call.
type ExtractResult struct {
	Matched    bool
	Date       string
	Qualifier  Qualifier
	Answer     string
	Restricted []domain.ScheduleItem
}

// Extractor answers well-structured scheduling queries directly from the
// schedule repository, bypassing the generative model entirely for
// time-sensitive facts.
type Extractor struct {
	repo   *schedule.Repository
	dayMap map[string]string
	rules  []qualifierRule
}

// qualifierRule is one entry of the extractor's small grammar: rules are
// evaluated in fixed priority order and the first matching predicate wins.
type qualifierRule struct {
	qualifier Qualifier
	matches   func(query string) bool
}

// NewExtractor creates an Extractor over the schedule repository and a
// day-name→date table (keys lowercase day names, values YYYY-MM-DD).
func NewExtractor(repo *schedule.Repository, dayMap map[string]string) *Extractor {
	normalized := make(map[string]string, len(dayMap))
	for name, date := range dayMap {
		normalized[strings.ToLower(strings.TrimSpace(name))] = date
	}

	return &Extractor{
		repo:   repo,
		dayMap: normalized,
		rules:  buildQualifierRules(),
	}
}

func buildQualifierRules() []qualifierRule {
	overviewPhrases := []string{
		"what's happening", "whats happening", "what is happening",
		"what's on", "whats on", "going on", "schedule", "agenda", "overview",
	}
	firstWords := []string{"first", "earliest"}
	lastWords := []string{"last", "final"}
	morningWords := []string{"morning"}
	afternoonWords := []string{"afternoon"}
	eveningWords := []string{"evening", "tonight", "night"}

	narrower := func(query string) bool {
		return containsAnyWord(query, firstWords) ||
			containsAnyWord(query, lastWords) ||
			containsAnyWord(query, morningWords) ||
			containsAnyWord(query, afternoonWords) ||
			containsAnyWord(query, eveningWords)
	}

	// Priority order: overview (broad phrasing with no narrower qualifier),
	// then first, last, and the time-of-day buckets.
	return []qualifierRule{
		{QualifierOverview, func(q string) bool {
			return containsAnyPhrase(q, overviewPhrases) && !narrower(q)
		}},
		{QualifierFirst, func(q string) bool { return containsAnyWord(q, firstWords) }},
		{QualifierLast, func(q string) bool { return containsAnyWord(q, lastWords) }},
		{QualifierMorning, func(q string) bool { return containsAnyWord(q, morningWords) }},
		{QualifierAfternoon, func(q string) bool { return containsAnyWord(q, afternoonWords) }},
		{QualifierEvening, func(q string) bool { return containsAnyWord(q, eveningWords) }},
	}
}

// Extract runs day detection and the qualifier grammar over a query.
func (e *Extractor) Extract(query string) ExtractResult {
	normalized := strings.ToLower(query)

	date, ok := e.detectDay(normalized)
	if !ok {
		return ExtractResult{}
	}

	qualifier := QualifierSpecific
	for _, rule := range e.rules {
		if rule.matches(normalized) {
			qualifier = rule.qualifier
			break
		}
	}

	items := e.repo.ByDate(date)

	result := ExtractResult{Matched: true, Date: date, Qualifier: qualifier}

	if qualifier == QualifierSpecific {
		result.Restricted = items
		return result
	}

	answer := e.answerFor(date, qualifier, items)
	if answer == "" {
		// No items matched the qualifier: defer to the restricted
		// generative path instead of fabricating an answer.
		result.Restricted = items
		return result
	}

	result.Answer = answer
	return result
}

// detectDay finds the first configured day name occurring in the query.
// When a query names two days the earliest occurrence wins; multi-day
// queries are a documented limitation.
func (e *Extractor) detectDay(normalized string) (string, bool) {
	for _, word := range queryWords(normalized) {
		if date, ok := e.dayMap[word]; ok {
			return date, true
		}
	}
	return "", false
}

func (e *Extractor) answerFor(date string, qualifier Qualifier, items []domain.ScheduleItem) string {
	switch qualifier {
	case QualifierOverview:
		if len(items) == 0 {
			return ""
		}
		lines := make([]string, 0, len(items)+1)
		lines = append(lines, fmt.Sprintf("Here's what's happening on %s:", friendlyDate(date)))
		for _, item := range items {
			lines = append(lines, renderItemLine(item))
		}
		return strings.Join(lines, "\n")

	case QualifierFirst:
		item, ok := firstTimed(items)
		if !ok {
			return ""
		}
		return fmt.Sprintf("First up on %s: %s", friendlyDate(date), renderItemLine(item))

	case QualifierLast:
		item, ok := lastTimed(items)
		if !ok {
			return ""
		}
		return fmt.Sprintf("Last on %s: %s", friendlyDate(date), renderItemLine(item))

	case QualifierMorning, QualifierAfternoon, QualifierEvening:
		bucket := bucketItems(items, qualifier)
		if len(bucket) == 0 {
			return ""
		}
		lines := make([]string, 0, len(bucket)+1)
		lines = append(lines, fmt.Sprintf("%s %s:", bucketLabel(qualifier), friendlyDate(date)))
		for _, item := range bucket {
			lines = append(lines, renderItemLine(item))
		}
		return strings.Join(lines, "\n")
	}

	return ""
}

// renderItemLine formats one schedule line: "<time range> • <name> — <location>".
func renderItemLine(item domain.ScheduleItem) string {
	line := fmt.Sprintf("%s • %s", item.TimeRange(), item.Name)
	if item.Location != "" {
		line += " — " + item.Location
	}
	return line
}

// firstTimed returns the earliest item with a start time. Untimed items
// are excluded from first/last selection.
func firstTimed(items []domain.ScheduleItem) (domain.ScheduleItem, bool) {
	for _, item := range items {
		if item.HasStart() {
			return item, true
		}
	}
	return domain.ScheduleItem{}, false
}

func lastTimed(items []domain.ScheduleItem) (domain.ScheduleItem, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].HasStart() {
			return items[i], true
		}
	}
	return domain.ScheduleItem{}, false
}

func bucketItems(items []domain.ScheduleItem, qualifier Qualifier) []domain.ScheduleItem {
	var out []domain.ScheduleItem
	for _, item := range items {
		if !item.HasStart() {
			continue
		}
		hour := item.Start.Hour()
		var in bool
		switch qualifier {
		case QualifierMorning:
			in = hour >= morningStartHour && hour < afternoonStartHour
		case QualifierAfternoon:
			in = hour >= afternoonStartHour && hour < eveningStartHour
		case QualifierEvening:
			in = hour >= eveningStartHour
		}
		if in {
			out = append(out, item)
		}
	}
	return out
}

func bucketLabel(qualifier Qualifier) string {
	switch qualifier {
	case QualifierMorning:
		return "In the morning on"
	case QualifierAfternoon:
		return "In the afternoon on"
	default:
		return "In the evening on"
	}
}

func friendlyDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

func queryWords(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
}

func containsAnyWord(query string, words []string) bool {
	for _, w := range queryWords(query) {
		for _, want := range words {
			if w == want {
				return true
			}
		}
	}
	return false
}

func containsAnyPhrase(query string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(query, p) {
			return true
		}
	}
	return false
}
