// internal/models/meeting.go
package models

// MeetingRecord is one row of the meetings table. Empty strings and a nil
// LoadPercentage mean the store had no value for that column.
type MeetingRecord struct {
	UserEmail      string   `json:"user_email,omitempty"`
	FirstName      string   `json:"first_name,omitempty"`
	Date           string   `json:"date,omitempty"`
	Weekday        string   `json:"weekday,omitempty"`
	StartTime      string   `json:"start_time,omitempty"`
	EndTime        string   `json:"end_time,omitempty"`
	Subject        string   `json:"meeting_subject,omitempty"`
	LoadPercentage *float64 `json:"load_percentage,omitempty"`
	Summary        string   `json:"summary_sentence,omitempty"`
}

// Person returns the display name, falling back to the email address.
func (m MeetingRecord) Person() string {
	if m.FirstName != "" {
		return m.FirstName
	}
	return m.UserEmail
}

// LoadBand buckets the load percentage the same way the ingestion job does.
func (m MeetingRecord) LoadBand() string {
	if m.LoadPercentage == nil {
		return "Unknown"
	}
	p := *m.LoadPercentage
	switch {
	case p >= 80:
		return "Very Busy"
	case p >= 50:
		return "Busy"
	case p >= 20:
		return "Moderate"
	default:
		return "Light"
	}
}
