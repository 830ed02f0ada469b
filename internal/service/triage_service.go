package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/events"
	"github.com/teplocom/support-triage/internal/notify"
	"github.com/teplocom/support-triage/internal/repository"
	apperrors "github.com/teplocom/support-triage/pkg/util/errorutil"
)

// clarificationSubject is the fixed subject for need-more-info mail,
// deliberately distinct from the original thread subject.
const clarificationSubject = "Уточнение по обращению"

// Classifier turns one inbound message into a verdict. Implementations are
// total: remote failures degrade internally instead of surfacing here.
type Classifier interface {
	Classify(ctx context.Context, body, subject, sender string) *domain.Verdict
}

// TriageService is the decision pipeline: it consumes one inbound message,
// classifies it, persists a ticket, drives the outbound action the verdict
// selected and records the terminal status.
type TriageService struct {
	tickets    repository.TicketRepository
	classifier Classifier
	mailer     notify.EmailSender
	alerts     notify.AlertSender
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TriageDependencies bundles collaborators for the pipeline.
type TriageDependencies struct {
	TicketRepo repository.TicketRepository
	Classifier Classifier
	Mailer     notify.EmailSender
	Alerts     notify.AlertSender
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTriageService constructs the pipeline.
func NewTriageService(deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{
		tickets:    deps.TicketRepo,
		classifier: deps.Classifier,
		mailer:     deps.Mailer,
		alerts:     deps.Alerts,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// HandleInbound runs the full pipeline for one message. The ticket is
// persisted before any outbound call is attempted; delivery failures are
// logged but never undo the decided status. Only classification contract
// violations and persistence failures are returned as errors.
func (s *TriageService) HandleInbound(ctx context.Context, from, subject, body string) (*domain.Ticket, error) {
	verdict := s.classifier.Classify(ctx, body, subject, from)
	if verdict == nil {
		return nil, apperrors.NewProcessingError("classifier returned no verdict", nil)
	}

	ticket := &domain.Ticket{
		FullName:        verdict.FullName,
		ObjectName:      verdict.ObjectName,
		Phone:           verdict.Phone,
		Email:           from,
		SerialNumbers:   verdict.SerialNumbers,
		DeviceType:      verdict.DeviceType,
		Sentiment:       verdict.Sentiment,
		IssueSummary:    verdict.IssueSummary,
		Status:          domain.TicketStatusNew,
		OriginalMessage: body,
		AIDraft:         verdict.DraftReply,
		Context:         map[string]string{"subject": subject},
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewProcessingError("persist ticket", err)
	}
	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("sender", from),
		zap.String("decision", string(verdict.Decision)))
	s.publish(ctx, events.EventTicketCreated, ticket.ID, events.TicketCreatedPayload{
		Sender:       from,
		Sentiment:    verdict.Sentiment,
		Decision:     verdict.Decision,
		IssueSummary: verdict.IssueSummary,
		Status:       ticket.Status,
	})

	delivered := s.dispatch(ctx, ticket, verdict, from, subject)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NewProcessingError("persist ticket status", err)
	}
	s.publish(ctx, eventForStatus(ticket.Status), ticket.ID, events.TicketResolvedPayload{
		Status:    ticket.Status,
		Delivered: delivered,
	})
	return ticket, nil
}

// dispatch performs the outbound action and sets the terminal status on the
// ticket. It reports whether delivery succeeded; a delivery failure never
// changes the decided status.
func (s *TriageService) dispatch(ctx context.Context, ticket *domain.Ticket, verdict *domain.Verdict, from, subject string) bool {
	switch verdict.Decision {
	case domain.DecisionFullAnswer:
		err := s.mailer.Send(ctx, from, "Re: "+subject, verdict.DraftReply)
		if err != nil {
			s.logger.Warn("reply delivery failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
		ticket.Status = domain.TicketStatusAnswered
		finalAnswer := verdict.DraftReply
		ticket.FinalAnswer = &finalAnswer
		return err == nil

	case domain.DecisionNeedMoreInfo:
		err := s.mailer.Send(ctx, from, clarificationSubject, verdict.DraftReply)
		if err != nil {
			s.logger.Warn("clarification delivery failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
		ticket.Status = domain.TicketStatusNeedInfo
		return err == nil

	default:
		// escalate_to_human, plus anything the decision parser let through.
		err := s.alerts.Push(ctx, escalationAlert(ticket))
		if err != nil {
			s.logger.Warn("operator alert failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
		ticket.Status = domain.TicketStatusHumanNeeded
		return err == nil
	}
}

func escalationAlert(ticket *domain.Ticket) string {
	return fmt.Sprintf("⚠️ Новое обращение #%d требует внимания!\nОт: %s\n%s",
		ticket.ID, ticket.FullName, ticket.IssueSummary)
}

func eventForStatus(status domain.TicketStatus) events.EventType {
	switch status {
	case domain.TicketStatusAnswered:
		return events.EventTicketAnswered
	case domain.TicketStatusNeedInfo:
		return events.EventTicketNeedInfo
	default:
		return events.EventTicketEscalated
	}
}

func (s *TriageService) publish(ctx context.Context, eventType events.EventType, ticketID int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
