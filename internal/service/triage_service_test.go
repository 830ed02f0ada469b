package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/events"
	"github.com/teplocom/support-triage/internal/repository"
)

type fakeTicketRepo struct {
	tickets   map[int64]*domain.Ticket
	nextID    int64
	createErr error
	updateErr error
	updates   []domain.TicketStatus
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[int64]*domain.Ticket{}, nextID: 1}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if r.createErr != nil {
		return r.createErr
	}
	ticket.ID = r.nextID
	r.nextID++
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates = append(r.updates, ticket.Status)
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, errors.New("ticket not found")
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) List(_ context.Context) ([]domain.Ticket, error) {
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context) (map[domain.TicketStatus]int64, error) {
	counts := map[domain.TicketStatus]int64{}
	for _, t := range r.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) CountBySentiment(_ context.Context) (map[domain.Sentiment]int64, error) {
	counts := map[domain.Sentiment]int64{}
	for _, t := range r.tickets {
		counts[t.Sentiment]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) DailyCounts(_ context.Context, _ time.Time) ([]repository.DailyCount, error) {
	return nil, nil
}

type stubClassifier struct {
	verdict *domain.Verdict
}

func (c *stubClassifier) Classify(_ context.Context, _, _, _ string) *domain.Verdict {
	return c.verdict
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeAlerts struct {
	pushed []string
	err    error
}

func (a *fakeAlerts) Push(_ context.Context, text string) error {
	if a.err != nil {
		return a.err
	}
	a.pushed = append(a.pushed, text)
	return nil
}

type triageFixture struct {
	repo       *fakeTicketRepo
	mailer     *fakeMailer
	alerts     *fakeAlerts
	dispatcher events.Dispatcher
	published  *[]events.Event
	service    *TriageService
}

func newTriageFixture(verdict *domain.Verdict) *triageFixture {
	repo := newFakeTicketRepo()
	mailer := &fakeMailer{}
	alerts := &fakeAlerts{}
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	record := func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	}
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, record)
	}

	return &triageFixture{
		repo:       repo,
		mailer:     mailer,
		alerts:     alerts,
		dispatcher: dispatcher,
		published:  &published,
		service: NewTriageService(TriageDependencies{
			TicketRepo: repo,
			Classifier: &stubClassifier{verdict: verdict},
			Mailer:     mailer,
			Alerts:     alerts,
			Dispatcher: dispatcher,
		}),
	}
}

func fullAnswerVerdict() *domain.Verdict {
	return &domain.Verdict{
		FullName:      "Петров Пётр",
		ObjectName:    "ЖК Северный",
		Phone:         "+7 999 111 22 33",
		Email:         "petrov@example.com",
		SerialNumbers: "SN-42",
		DeviceType:    "Датчик давления",
		Sentiment:     domain.SentimentNeutral,
		IssueSummary:  "Датчик показывает ноль",
		Decision:      domain.DecisionFullAnswer,
		DraftReply:    "Здравствуйте! Проверьте кабель питания датчика.",
	}
}

func TestHandleInboundFullAnswer(t *testing.T) {
	fx := newTriageFixture(fullAnswerVerdict())

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Проблема с датчиком", "текст письма")
	require.NoError(t, err)
	require.NotNil(t, ticket)

	assert.Equal(t, domain.TicketStatusAnswered, ticket.Status)
	require.NotNil(t, ticket.FinalAnswer)
	assert.Equal(t, "Здравствуйте! Проверьте кабель питания датчика.", *ticket.FinalAnswer)

	require.Len(t, fx.mailer.sent, 1)
	assert.Equal(t, "petrov@example.com", fx.mailer.sent[0].to)
	assert.Equal(t, "Re: Проблема с датчиком", fx.mailer.sent[0].subject)
	assert.Empty(t, fx.alerts.pushed)

	stored, err := fx.repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAnswered, stored.Status)
	assert.Equal(t, "Проблема с датчиком", stored.Subject())
}

func TestHandleInboundNeedMoreInfo(t *testing.T) {
	verdict := fullAnswerVerdict()
	verdict.Decision = domain.DecisionNeedMoreInfo
	verdict.DraftReply = "Уточните, пожалуйста, серийный номер."
	fx := newTriageFixture(verdict)

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Вопрос", "текст")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusNeedInfo, ticket.Status)
	assert.Nil(t, ticket.FinalAnswer)

	require.Len(t, fx.mailer.sent, 1)
	assert.Equal(t, clarificationSubject, fx.mailer.sent[0].subject)
}

func TestHandleInboundEscalates(t *testing.T) {
	verdict := fullAnswerVerdict()
	verdict.Decision = domain.DecisionEscalate
	verdict.DraftReply = ""
	fx := newTriageFixture(verdict)

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Срочно!", "текст")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusHumanNeeded, ticket.Status)
	assert.Empty(t, fx.mailer.sent)
	require.Len(t, fx.alerts.pushed, 1)
	assert.Contains(t, fx.alerts.pushed[0], "Петров Пётр")
	assert.Contains(t, fx.alerts.pushed[0], "Датчик показывает ноль")
}

func TestHandleInboundUnknownDecisionEscalates(t *testing.T) {
	verdict := fullAnswerVerdict()
	verdict.Decision = domain.Decision("surprise")
	fx := newTriageFixture(verdict)

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusHumanNeeded, ticket.Status)
	assert.Empty(t, fx.mailer.sent)
	assert.Len(t, fx.alerts.pushed, 1)
}

func TestHandleInboundDeliveryFailureKeepsStatus(t *testing.T) {
	fx := newTriageFixture(fullAnswerVerdict())
	fx.mailer.err = errors.New("smtp down")

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	require.NoError(t, err, "delivery failure is not a pipeline failure")

	assert.Equal(t, domain.TicketStatusAnswered, ticket.Status)
	require.NotNil(t, ticket.FinalAnswer)

	stored, err := fx.repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAnswered, stored.Status)
}

func TestHandleInboundAlertFailureKeepsStatus(t *testing.T) {
	verdict := fullAnswerVerdict()
	verdict.Decision = domain.DecisionEscalate
	fx := newTriageFixture(verdict)
	fx.alerts.err = errors.New("telegram unreachable")

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusHumanNeeded, ticket.Status)
}

func TestHandleInboundCreateFailure(t *testing.T) {
	fx := newTriageFixture(fullAnswerVerdict())
	fx.repo.createErr = errors.New("connection refused")

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	assert.Error(t, err)
	assert.Nil(t, ticket)
	assert.Empty(t, fx.mailer.sent, "no outbound mail before the ticket exists")
}

func TestHandleInboundUpdateFailure(t *testing.T) {
	fx := newTriageFixture(fullAnswerVerdict())
	fx.repo.updateErr = errors.New("connection reset")

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	assert.Error(t, err)
	assert.Nil(t, ticket)
}

func TestHandleInboundNilVerdict(t *testing.T) {
	fx := newTriageFixture(nil)

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	assert.Error(t, err)
	assert.Nil(t, ticket)
	assert.Empty(t, fx.repo.tickets)
}

func TestHandleInboundPublishesLifecycleEvents(t *testing.T) {
	fx := newTriageFixture(fullAnswerVerdict())

	ticket, err := fx.service.HandleInbound(context.Background(), "petrov@example.com", "Тема", "текст")
	require.NoError(t, err)

	require.Len(t, *fx.published, 2)
	created := (*fx.published)[0]
	resolved := (*fx.published)[1]

	assert.Equal(t, events.EventTicketCreated, created.Type)
	assert.Equal(t, ticket.ID, created.TicketID)
	assert.Equal(t, events.EventTicketAnswered, resolved.Type)
	payload, ok := resolved.Payload.(events.TicketResolvedPayload)
	require.True(t, ok)
	assert.True(t, payload.Delivered)
	assert.Equal(t, domain.TicketStatusAnswered, payload.Status)
}
