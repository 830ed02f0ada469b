package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/events"
	"github.com/teplocom/support-triage/internal/notify"
	"github.com/teplocom/support-triage/internal/repository"
	apperrors "github.com/teplocom/support-triage/pkg/util/errorutil"
)

// TicketService backs the operator dashboard: review, edit and answer
// tickets the pipeline produced.
type TicketService struct {
	tickets    repository.TicketRepository
	mailer     notify.EmailSender
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Mailer     notify.EmailSender
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketUpdateInput carries the operator-editable fields; nil means keep.
type TicketUpdateInput struct {
	FullName      *string
	ObjectName    *string
	Phone         *string
	SerialNumbers *string
	DeviceType    *string
	Sentiment     *string
	IssueSummary  *string
	FinalAnswer   *string
	Status        *string
}

// AnalyticsReport aggregates dashboard statistics.
type AnalyticsReport struct {
	ByStatus    map[domain.TicketStatus]int64
	BySentiment map[domain.Sentiment]int64
	Daily       []repository.DailyCount
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// List returns all tickets, newest first.
func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx)
}

// Get fetches one ticket.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Update applies operator edits to a ticket.
func (s *TicketService) Update(ctx context.Context, id int64, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString(&ticket.FullName, input.FullName)
	applyString(&ticket.ObjectName, input.ObjectName)
	applyString(&ticket.Phone, input.Phone)
	applyString(&ticket.SerialNumbers, input.SerialNumbers)
	applyString(&ticket.DeviceType, input.DeviceType)
	applyString(&ticket.IssueSummary, input.IssueSummary)
	if input.Sentiment != nil {
		ticket.Sentiment = domain.ParseSentiment(*input.Sentiment)
	}
	if input.FinalAnswer != nil {
		ticket.FinalAnswer = input.FinalAnswer
	}
	if input.Status != nil {
		status := domain.TicketStatus(*input.Status)
		if !domain.IsValidStatus(status) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
		}
		ticket.Status = status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Reply sends an operator answer to the ticket's sender and marks the
// ticket answered. An empty replyText falls back to the stored final
// answer, then to the classifier draft.
func (s *TicketService) Reply(ctx context.Context, id int64, replyText string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if replyText == "" {
		if ticket.FinalAnswer != nil {
			replyText = *ticket.FinalAnswer
		} else {
			replyText = ticket.AIDraft
		}
	}
	if replyText == "" {
		return nil, apperrors.NewValidationError("no reply text available", nil)
	}

	subject := ticket.Subject()
	if subject == "" {
		subject = "Поддержка"
	}
	if err := s.mailer.Send(ctx, ticket.Email, "Re: "+subject, replyText); err != nil {
		// The answer still becomes the ticket's final state; losing the
		// operator's text would be worse than a missed delivery.
		s.logger.Warn("operator reply delivery failed", zap.Int64("ticket_id", id), zap.Error(err))
	}

	ticket.FinalAnswer = &replyText
	ticket.Status = domain.TicketStatusAnswered
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketReplySent,
			TicketID:  ticket.ID,
			Timestamp: time.Now(),
			Payload:   events.TicketReplySentPayload{Recipient: ticket.Email},
		})
	}
	return ticket, nil
}

// Analytics aggregates dashboard statistics over the last week of intake.
func (s *TicketService) Analytics(ctx context.Context) (*AnalyticsReport, error) {
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bySentiment, err := s.tickets.CountBySentiment(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.tickets.DailyCounts(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	return &AnalyticsReport{ByStatus: byStatus, BySentiment: bySentiment, Daily: daily}, nil
}

var csvHeader = []string{
	"ID", "Дата", "ФИО", "Объект", "Телефон", "Email",
	"Заводские номера", "Тип приборов", "Тональность", "Суть вопроса", "Статус",
}

// ExportCSV streams the ticket table as CSV.
func (s *TicketService) ExportCSV(ctx context.Context, w io.Writer) error {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tickets {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.CreatedAt.Format(time.RFC3339),
			t.FullName,
			t.ObjectName,
			t.Phone,
			t.Email,
			t.SerialNumbers,
			t.DeviceType,
			string(t.Sentiment),
			t.IssueSummary,
			string(t.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func applyString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
