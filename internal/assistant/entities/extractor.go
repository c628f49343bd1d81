// internal/assistant/entities/extractor.go
package entities

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"resource-scheduling/internal/models"
)

const DefaultNameLookback = 3

var (
	pronounPattern     = regexp.MustCompile(`(?i)\b(he|she|him|her|his|their|them)\b`)
	forNamePattern     = regexp.MustCompile(`\bfor\s+([A-Z][a-z]+)\b`)
	possessivePattern  = regexp.MustCompile(`\b([A-Z][a-z]+)'s\b`)
	capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]{1,20}\b`)
	overLoadPattern    = regexp.MustCompile(`over\s+(\d{1,3})\s*%?`)
	highLoadPattern    = regexp.MustCompile(`high load|very busy`)
)

// Capitalized words that are never treated as a person.
var nameStoplist = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"I", "The", "Show", "Give", "What", "Which", "How", "Can", "Is", "Are", "Do", "Does",
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
		"January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December",
		"Today", "Tomorrow", "Yesterday", "Next", "Last", "This", "All", "Get", "Find", "When",
		"And", "But", "So", "Then", "Also", "Who", "Whose", "Where", "Please", "Tell", "List", "Any",
	} {
		nameStoplist[w] = struct{}{}
	}
}

// Extractor pulls filter values out of a single utterance. It holds no
// per-turn state and is safe to share.
type Extractor struct {
	now          func() time.Time
	nameLookback int
}

// NewExtractor returns an extractor using now as the reference clock for
// relative dates. A nil clock means time.Now.
func NewExtractor(now func() time.Time, nameLookback int) *Extractor {
	if now == nil {
		now = time.Now
	}
	if nameLookback <= 0 {
		nameLookback = DefaultNameLookback
	}
	return &Extractor{now: now, nameLookback: nameLookback}
}

// Extract builds the unresolved filter set for a query utterance. Keys that
// cannot be found are left unset.
func (e *Extractor) Extract(utterance string, in models.Intent, history []models.ConversationTurn) models.FilterSet {
	var filters models.FilterSet

	if in.QueryType.IsAggregate() {
		filters.Aggregate = true
	} else if name, ok := e.ExtractName(utterance, history); ok {
		filters.Name = name
	}

	date := e.ExtractDate(utterance)
	filters.DateISO = date.DateISO
	filters.Weekday = date.Weekday
	filters.DateRange = date.DateRange

	if threshold, ok := ExtractLoadThreshold(utterance); ok {
		filters.LoadThreshold = &threshold
	}

	return filters
}

// ExtractName finds a person in the utterance. Pronouns are resolved from
// the most recent history turns that carried a name; when none did, the
// literal patterns still apply.
func (e *Extractor) ExtractName(utterance string, history []models.ConversationTurn) (string, bool) {
	if pronounPattern.MatchString(utterance) {
		if name, ok := e.nameFromHistory(history); ok {
			return name, true
		}
	}

	if m := forNamePattern.FindStringSubmatch(utterance); m != nil && !isStopword(m[1]) {
		return m[1], true
	}
	if m := possessivePattern.FindStringSubmatch(utterance); m != nil && !isStopword(m[1]) {
		return m[1], true
	}
	for _, token := range capitalizedPattern.FindAllString(utterance, -1) {
		if !isStopword(token) {
			return token, true
		}
	}
	return "", false
}

func (e *Extractor) nameFromHistory(history []models.ConversationTurn) (string, bool) {
	for i, seen := len(history)-1, 0; i >= 0 && seen < e.nameLookback; i, seen = i-1, seen+1 {
		if name := history[i].Filters.Name; name != "" {
			return name, true
		}
	}
	return "", false
}

// ExtractLoadThreshold returns the minimum load percentage implied by the
// utterance.
func ExtractLoadThreshold(utterance string) (float64, bool) {
	lower := strings.ToLower(utterance)

	if m := overLoadPattern.FindStringSubmatch(lower); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v, true
		}
	}
	if highLoadPattern.MatchString(lower) {
		return 80, true
	}
	if strings.Contains(lower, "busy") {
		return 70, true
	}
	return 0, false
}

func isStopword(word string) bool {
	_, ok := nameStoplist[word]
	return ok
}
