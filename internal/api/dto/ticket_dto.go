package dto

import (
	"time"

	"github.com/teplocom/support-triage/internal/domain"
)

// InboundEmailRequest is the webhook payload from the mail server.
type InboundEmailRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// InboundEmailResponse is the webhook reply once a ticket exists.
type InboundEmailResponse struct {
	Status       string              `json:"status"`
	TicketID     int64               `json:"ticket_id"`
	TicketStatus domain.TicketStatus `json:"ticket_status"`
}

// TicketResponse carries every ticket field for the operator API.
type TicketResponse struct {
	ID              int64               `json:"id"`
	FullName        string              `json:"full_name"`
	ObjectName      string              `json:"object_name"`
	Phone           string              `json:"phone"`
	Email           string              `json:"email"`
	SerialNumbers   string              `json:"serial_numbers"`
	DeviceType      string              `json:"device_type"`
	Sentiment       domain.Sentiment    `json:"sentiment"`
	IssueSummary    string              `json:"issue_summary"`
	Status          domain.TicketStatus `json:"status"`
	OriginalMessage string              `json:"original_message"`
	AIDraft         string              `json:"ai_draft"`
	FinalAnswer     *string             `json:"final_answer"`
	Context         map[string]string   `json:"context"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketTableRow carries the nine display fields for the dashboard table.
type TicketTableRow struct {
	ID            int64               `json:"id"`
	Date          time.Time           `json:"date"`
	FullName      string              `json:"full_name"`
	ObjectName    string              `json:"object_name"`
	Phone         string              `json:"phone"`
	Email         string              `json:"email"`
	SerialNumbers string              `json:"serial_numbers"`
	DeviceType    string              `json:"device_type"`
	Sentiment     domain.Sentiment    `json:"sentiment"`
	IssueSummary  string              `json:"issue_summary"`
	Status        domain.TicketStatus `json:"status"`
}

// UpdateTicketRequest carries operator edits; omitted fields keep their value.
type UpdateTicketRequest struct {
	FullName      *string `json:"full_name"`
	ObjectName    *string `json:"object_name"`
	Phone         *string `json:"phone"`
	SerialNumbers *string `json:"serial_numbers"`
	DeviceType    *string `json:"device_type"`
	Sentiment     *string `json:"sentiment"`
	IssueSummary  *string `json:"issue_summary"`
	FinalAnswer   *string `json:"final_answer"`
	Status        *string `json:"status"`
}

// ReplyRequest carries the operator's outbound answer.
type ReplyRequest struct {
	ReplyText string `json:"reply_text"`
}

// DailyCountResponse is one day of ticket intake.
type DailyCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsResponse aggregates dashboard statistics.
type AnalyticsResponse struct {
	ByStatus    map[string]int64     `json:"by_status"`
	BySentiment map[string]int64     `json:"by_sentiment"`
	Daily       []DailyCountResponse `json:"daily"`
}
