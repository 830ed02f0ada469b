package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teplocom/support-triage/internal/domain"
	"github.com/teplocom/support-triage/internal/events"
)

func seedTicket(t *testing.T, repo *fakeTicketRepo, ticket domain.Ticket) *domain.Ticket {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &ticket))
	return &ticket
}

func baseTicket() domain.Ticket {
	return domain.Ticket{
		FullName:        "Сидорова Анна",
		ObjectName:      "Школа №12",
		Phone:           "+7 921 555 44 33",
		Email:           "sidorova@example.com",
		SerialNumbers:   "SN-7",
		DeviceType:      "Теплосчетчик",
		Sentiment:       domain.SentimentNegative,
		IssueSummary:    "Счетчик не передает показания",
		Status:          domain.TicketStatusNew,
		OriginalMessage: "Добрый день, счетчик молчит уже неделю.",
		AIDraft:         "Здравствуйте! Проверьте антенну модема.",
		Context:         map[string]string{"subject": "Нет показаний"},
	}
}

func TestTicketUpdateAppliesFields(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := seedTicket(t, repo, baseTicket())
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: &fakeMailer{}})

	name := "Сидорова Анна Петровна"
	sentiment := "срочно"
	status := string(domain.TicketStatusHumanNeeded)
	updated, err := svc.Update(context.Background(), ticket.ID, TicketUpdateInput{
		FullName:  &name,
		Sentiment: &sentiment,
		Status:    &status,
	})
	require.NoError(t, err)

	assert.Equal(t, name, updated.FullName)
	assert.Equal(t, domain.SentimentUrgent, updated.Sentiment)
	assert.Equal(t, domain.TicketStatusHumanNeeded, updated.Status)
	assert.Equal(t, "Школа №12", updated.ObjectName, "unset fields stay untouched")
}

func TestTicketUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := seedTicket(t, repo, baseTicket())
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: &fakeMailer{}})

	bad := "archived"
	_, err := svc.Update(context.Background(), ticket.ID, TicketUpdateInput{Status: &bad})
	assert.Error(t, err)

	stored, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, stored.Status)
}

func TestTicketReplySendsMailAndMarksAnswered(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := seedTicket(t, repo, baseTicket())
	mailer := &fakeMailer{}
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	dispatcher.Subscribe(events.EventTicketReplySent, func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: mailer, Dispatcher: dispatcher})

	updated, err := svc.Reply(context.Background(), ticket.ID, "Антенну заменили, показания пошли.")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusAnswered, updated.Status)
	require.NotNil(t, updated.FinalAnswer)
	assert.Equal(t, "Антенну заменили, показания пошли.", *updated.FinalAnswer)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "sidorova@example.com", mailer.sent[0].to)
	assert.Equal(t, "Re: Нет показаний", mailer.sent[0].subject)

	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.TicketReplySentPayload)
	require.True(t, ok)
	assert.Equal(t, "sidorova@example.com", payload.Recipient)
}

func TestTicketReplyFallsBackToDraft(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := seedTicket(t, repo, baseTicket())
	mailer := &fakeMailer{}
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: mailer})

	updated, err := svc.Reply(context.Background(), ticket.ID, "")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Здравствуйте! Проверьте антенну модема.", mailer.sent[0].body)
	require.NotNil(t, updated.FinalAnswer)
	assert.Equal(t, "Здравствуйте! Проверьте антенну модема.", *updated.FinalAnswer)
}

func TestTicketReplyWithoutAnyText(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := baseTicket()
	ticket.AIDraft = ""
	stored := seedTicket(t, repo, ticket)
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: &fakeMailer{}})

	_, err := svc.Reply(context.Background(), stored.ID, "")
	assert.Error(t, err)
}

func TestTicketReplyDeliveryFailureStillAnswers(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := seedTicket(t, repo, baseTicket())
	mailer := &fakeMailer{err: errors.New("smtp timeout")}
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: mailer})

	updated, err := svc.Reply(context.Background(), ticket.ID, "ответ оператора")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAnswered, updated.Status)
}

func TestTicketAnalytics(t *testing.T) {
	repo := newFakeTicketRepo()
	answered := baseTicket()
	answered.Status = domain.TicketStatusAnswered
	seedTicket(t, repo, answered)
	seedTicket(t, repo, baseTicket())
	seedTicket(t, repo, baseTicket())
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: &fakeMailer{}})

	report, err := svc.Analytics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.ByStatus[domain.TicketStatusNew])
	assert.Equal(t, int64(1), report.ByStatus[domain.TicketStatusAnswered])
	assert.Equal(t, int64(3), report.BySentiment[domain.SentimentNegative])
}

func TestTicketExportCSV(t *testing.T) {
	repo := newFakeTicketRepo()
	seedTicket(t, repo, baseTicket())
	svc := NewTicketService(TicketDependencies{TicketRepo: repo, Mailer: &fakeMailer{}})

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "Сидорова Анна", records[1][2])
	assert.Equal(t, string(domain.TicketStatusNew), records[1][10])
}
