package mailbox

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/config"
)

// MessageSink receives fetched inbox mail.
type MessageSink func(ctx context.Context, from, subject, body string) error

// Poller periodically fetches unseen messages from the support inbox and
// feeds them into the sink. Fetching a body section marks the message seen
// on the server, so a message is consumed at most once.
type Poller struct {
	cfg    config.IMAPConfig
	sink   MessageSink
	logger *zap.Logger
}

// NewPoller constructs the poller.
func NewPoller(cfg config.IMAPConfig, sink MessageSink, logger *zap.Logger) *Poller {
	return &Poller{cfg: cfg, sink: sink, logger: logger}
}

// Run polls until the context is cancelled. Each cycle's errors are logged
// and the next cycle starts fresh; a broken mailbox never stops the service.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval())
	defer ticker.Stop()

	p.logger.Info("mailbox poller started",
		zap.String("server", p.cfg.Addr),
		zap.Duration("interval", p.cfg.PollInterval()))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("mailbox poller stopped")
			return
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				p.logger.Warn("mailbox poll failed", zap.Error(err))
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	c, err := client.DialTLS(p.cfg.Addr, nil)
	if err != nil {
		return err
	}
	defer c.Logout() //nolint:errcheck

	if err := c.Login(p.cfg.Username, p.cfg.Password); err != nil {
		return err
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if limit := p.cfg.FetchLimit; limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	// The full message is fetched so transfer encodings and multipart
	// structure can be decoded; the bare TEXT section would hand the
	// pipeline raw base64 or quoted-printable.
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	for msg := range messages {
		from, subject, body := decodeMessage(msg, section)
		if from == "" || body == "" {
			p.logger.Warn("skipping undecodable message", zap.Uint32("seq", msg.SeqNum))
			continue
		}
		if err := p.sink(ctx, from, subject, body); err != nil {
			p.logger.Error("inbound message processing failed",
				zap.String("from", from), zap.Error(err))
		}
	}
	return <-done
}

func decodeMessage(msg *imap.Message, section *imap.BodySectionName) (from, subject, body string) {
	if msg.Envelope != nil {
		if len(msg.Envelope.From) > 0 {
			from = msg.Envelope.From[0].Address()
		}
		subject = msg.Envelope.Subject
	}
	if r := msg.GetBody(section); r != nil {
		body = extractText(r)
	}
	return from, subject, body
}

// extractText pulls the human-readable text out of a raw RFC 5322 message.
// Multipart messages yield their text/plain part; without one the first
// inline part stands in. Transfer encodings and charsets are decoded by the
// reader.
func extractText(r io.Reader) string {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return ""
	}

	var fallback string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		raw, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}

		mediaType, _, _ := header.ContentType()
		if mediaType == "" || mediaType == "text/plain" {
			return text
		}
		if fallback == "" {
			fallback = text
		}
	}
	return fallback
}
