package domain

import "strings"

// Decision selects the outbound action for a classified message.
type Decision string

const (
	DecisionFullAnswer   Decision = "full_answer"
	DecisionNeedMoreInfo Decision = "need_more_info"
	DecisionEscalate     Decision = "escalate_to_human"
)

// ParseDecision maps a raw classifier value onto the decision enum. Anything
// unrecognized, including the empty string, escalates to a human.
func ParseDecision(raw string) Decision {
	switch Decision(strings.TrimSpace(strings.ToLower(raw))) {
	case DecisionFullAnswer:
		return DecisionFullAnswer
	case DecisionNeedMoreInfo:
		return DecisionNeedMoreInfo
	case DecisionEscalate:
		return DecisionEscalate
	default:
		return DecisionEscalate
	}
}

// SendsMail reports whether the decision produces an outbound email.
func (d Decision) SendsMail() bool {
	return d == DecisionFullAnswer || d == DecisionNeedMoreInfo
}

// Sentiment labels the tone of an inbound message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUrgent   Sentiment = "urgent"
)

// sentimentAliases folds the Russian labels the model tends to answer with
// onto the canonical enum.
var sentimentAliases = map[string]Sentiment{
	"positive":   SentimentPositive,
	"позитив":    SentimentPositive,
	"neutral":    SentimentNeutral,
	"нейтрально": SentimentNeutral,
	"negative":   SentimentNegative,
	"негатив":    SentimentNegative,
	"urgent":     SentimentUrgent,
	"срочно":     SentimentUrgent,
}

// ParseSentiment normalizes a raw sentiment label; unknown values read as neutral.
func ParseSentiment(raw string) Sentiment {
	if s, ok := sentimentAliases[strings.TrimSpace(strings.ToLower(raw))]; ok {
		return s
	}
	return SentimentNeutral
}

// Verdict is the classifier's structured output for one message. It is
// produced per inbound message and consumed once by the triage pipeline.
type Verdict struct {
	FullName      string    `json:"full_name"`
	ObjectName    string    `json:"object_name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	SerialNumbers string    `json:"serial_numbers"`
	DeviceType    string    `json:"device_type"`
	Sentiment     Sentiment `json:"sentiment"`
	IssueSummary  string    `json:"issue_summary"`
	Decision      Decision  `json:"decision"`
	DraftReply    string    `json:"draft_reply"`
}
