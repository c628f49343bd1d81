// internal/models/conversation.go
package models

import "time"

type IntentKind string

const (
	IntentChitchat IntentKind = "chitchat"
	IntentQuery    IntentKind = "query"
)

type ChitchatKind string

const (
	ChitchatGreeting        ChitchatKind = "greeting"
	ChitchatThanks          ChitchatKind = "thanks"
	ChitchatFarewell        ChitchatKind = "farewell"
	ChitchatSmallTalk       ChitchatKind = "small_talk"
	ChitchatAcknowledgement ChitchatKind = "acknowledgement"
)

// Intent is the classification of a single utterance.
type Intent struct {
	Kind         IntentKind   `json:"kind"`
	QueryType    QueryType    `json:"queryType,omitempty"`
	Chitchat     ChitchatKind `json:"chitchat,omitempty"`
	IsFollowUp   bool         `json:"isFollowUp"`
	NeedsContext bool         `json:"needsContext"`
}

func (i Intent) IsChitchat() bool {
	return i.Kind == IntentChitchat
}

// FilterSet holds the resolved constraints of one turn. At most one of
// DateISO, Weekday and DateRange is set, and Aggregate excludes Name.
type FilterSet struct {
	Name          string    `json:"name,omitempty"`
	DateISO       string    `json:"dateIso,omitempty"`
	Weekday       string    `json:"weekday,omitempty"`
	DateRange     DateRange `json:"dateRange,omitempty"`
	LoadThreshold *float64  `json:"loadThreshold,omitempty"`
	Aggregate     bool      `json:"aggregate,omitempty"`
}

func (f FilterSet) IsEmpty() bool {
	return f.Name == "" &&
		f.DateISO == "" &&
		f.Weekday == "" &&
		f.DateRange == "" &&
		f.LoadThreshold == nil &&
		!f.Aggregate
}

// Clone returns a copy that shares no pointers with f.
func (f FilterSet) Clone() FilterSet {
	out := f
	if f.LoadThreshold != nil {
		v := *f.LoadThreshold
		out.LoadThreshold = &v
	}
	return out
}

// ConversationTurn is one recorded exchange. Turns are never modified after
// they are appended to a history.
type ConversationTurn struct {
	ID            string    `json:"id"`
	UserText      string    `json:"user"`
	AssistantText string    `json:"assistant"`
	Intent        Intent    `json:"intent"`
	Filters       FilterSet `json:"filters"`
	Timestamp     time.Time `json:"timestamp"`
}
