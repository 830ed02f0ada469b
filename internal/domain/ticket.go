package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew         TicketStatus = "new"
	TicketStatusAnswered    TicketStatus = "answered"
	TicketStatusNeedInfo    TicketStatus = "need_info"
	TicketStatusHumanNeeded TicketStatus = "human_needed"
)

// KnownStatuses lists every valid lifecycle state.
var KnownStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAnswered,
	TicketStatusNeedInfo,
	TicketStatusHumanNeeded,
}

// IsValidStatus reports whether the value belongs to the closed status set.
func IsValidStatus(s TicketStatus) bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Ticket is the persisted record of one customer inquiry.
type Ticket struct {
	ID              int64
	FullName        string
	ObjectName      string
	Phone           string
	Email           string
	SerialNumbers   string
	DeviceType      string
	Sentiment       Sentiment
	IssueSummary    string
	Status          TicketStatus
	OriginalMessage string
	AIDraft         string
	FinalAnswer     *string
	Context         map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subject returns the original mail subject captured at intake.
func (t *Ticket) Subject() string {
	if t.Context == nil {
		return ""
	}
	return t.Context["subject"]
}
