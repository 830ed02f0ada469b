package classifier

import (
	"regexp"

	"github.com/teplocom/support-triage/internal/domain"
)

// Sentinel values for fields the fallback cannot extract.
const (
	SentinelUnrecognized = "Не удалось распознать"
	SentinelNoPhone      = "Не указан"
	SentinelNoEmail      = "Не указан"
	SentinelNoSerials    = "Не указаны"
	SentinelNoDevice     = "Не указан"
)

// fallbackDraftReply tells the customer a human will take over.
const fallbackDraftReply = "Здравствуйте! Наш AI-агент временно недоступен. Оператор свяжется с вами в ближайшее время."

const summaryLimit = 100

var (
	phonePattern = regexp.MustCompile(`\+7[-\s]?\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2}`)
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
)

// Fallback produces a safe verdict from the raw message alone. It is total:
// every field gets a value and the decision always escalates to a human.
func Fallback(messageText string) *domain.Verdict {
	verdict := &domain.Verdict{
		FullName:      SentinelUnrecognized,
		ObjectName:    SentinelUnrecognized,
		Phone:         SentinelNoPhone,
		Email:         SentinelNoEmail,
		SerialNumbers: SentinelNoSerials,
		DeviceType:    SentinelNoDevice,
		Sentiment:     domain.SentimentNeutral,
		IssueSummary:  truncateRunes(messageText, summaryLimit),
		Decision:      domain.DecisionEscalate,
		DraftReply:    fallbackDraftReply,
	}
	if phone := phonePattern.FindString(messageText); phone != "" {
		verdict.Phone = phone
	}
	if email := emailPattern.FindString(messageText); email != "" {
		verdict.Email = email
	}
	return verdict
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
