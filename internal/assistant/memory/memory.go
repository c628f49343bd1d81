// internal/assistant/memory/memory.go
package memory

import "resource-scheduling/internal/models"

const DefaultCapacity = 10

// LastResult is the most recent filtered result set and the intent that
// produced it.
type LastResult struct {
	Intent  models.Intent
	Records []models.MeetingRecord
}

type resolvedIntent struct {
	intent  models.Intent
	filters models.FilterSet
}

type state struct {
	turns        []models.ConversationTurn
	lastResult   *LastResult
	lastResolved *resolvedIntent
}

// Memory is the transcript of one session. It is not safe for concurrent
// use; each session owns its own instance.
type Memory struct {
	capacity int
	state    *state
}

func New(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity, state: &state{}}
}

// FromTurns rebuilds a memory from a serialized transcript, keeping only the
// newest turns that fit. The last query turn becomes the resolved intent.
func FromTurns(capacity int, turns []models.ConversationTurn) *Memory {
	m := New(capacity)
	for _, turn := range turns {
		m.Append(turn)
		if turn.Intent.Kind == models.IntentQuery {
			m.SetLastIntent(turn.Intent, turn.Filters)
		}
	}
	return m
}

func (m *Memory) Capacity() int {
	return m.capacity
}

func (m *Memory) Len() int {
	return len(m.state.turns)
}

// Append adds a turn at the tail and evicts from the head beyond capacity.
func (m *Memory) Append(turn models.ConversationTurn) {
	turns := append(m.state.turns, turn)
	if over := len(turns) - m.capacity; over > 0 {
		turns = append([]models.ConversationTurn(nil), turns[over:]...)
	}
	m.state.turns = turns
}

// Turns returns a copy of the transcript, oldest first.
func (m *Memory) Turns() []models.ConversationTurn {
	out := make([]models.ConversationTurn, len(m.state.turns))
	copy(out, m.state.turns)
	return out
}

// Recent returns up to n of the newest turns, oldest first.
func (m *Memory) Recent(n int) []models.ConversationTurn {
	if n <= 0 {
		return []models.ConversationTurn{}
	}
	turns := m.state.turns
	if n < len(turns) {
		turns = turns[len(turns)-n:]
	}
	out := make([]models.ConversationTurn, len(turns))
	copy(out, turns)
	return out
}

func (m *Memory) SetLastResult(in models.Intent, records []models.MeetingRecord) {
	m.state.lastResult = &LastResult{Intent: in, Records: records}
}

func (m *Memory) LastResult() (*LastResult, bool) {
	return m.state.lastResult, m.state.lastResult != nil
}

func (m *Memory) HasLastResult() bool {
	return m.state.lastResult != nil
}

// SetLastIntent records the intent and resolved filters of the latest
// query turn.
func (m *Memory) SetLastIntent(in models.Intent, filters models.FilterSet) {
	m.state.lastResolved = &resolvedIntent{intent: in, filters: filters.Clone()}
}

// LastFilters returns the resolved filters of the latest query turn.
func (m *Memory) LastFilters() (models.FilterSet, bool) {
	if m.state.lastResolved == nil {
		return models.FilterSet{}, false
	}
	return m.state.lastResolved.filters.Clone(), true
}

func (m *Memory) LastIntent() (models.Intent, bool) {
	if m.state.lastResolved == nil {
		return models.Intent{}, false
	}
	return m.state.lastResolved.intent, true
}

// Clear drops the transcript, the cached result and the resolved intent in
// one step.
func (m *Memory) Clear() {
	m.state = &state{}
}
