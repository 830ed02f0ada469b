package events

import (
	"time"

	"github.com/teplocom/support-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketAnswered  EventType = "ticket_answered"
	EventTicketNeedInfo  EventType = "ticket_need_info"
	EventTicketEscalated EventType = "ticket_escalated"
	EventTicketReplySent EventType = "ticket_reply_sent"
)

// AllEventTypes lists every event type the services emit.
func AllEventTypes() []EventType {
	return []EventType{
		EventTicketCreated,
		EventTicketAnswered,
		EventTicketNeedInfo,
		EventTicketEscalated,
		EventTicketReplySent,
	}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Sender       string              `json:"sender"`
	Sentiment    domain.Sentiment    `json:"sentiment"`
	Decision     domain.Decision     `json:"decision"`
	IssueSummary string              `json:"issue_summary"`
	Status       domain.TicketStatus `json:"status"`
}

// TicketResolvedPayload payload for answered / need-info / escalated events.
type TicketResolvedPayload struct {
	Status    domain.TicketStatus `json:"status"`
	Delivered bool                `json:"delivered"`
}

// TicketReplySentPayload payload for operator replies.
type TicketReplySentPayload struct {
	Recipient string `json:"recipient"`
}
