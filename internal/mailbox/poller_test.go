package mailbox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartBase64Message = "From: client@example.com\r\n" +
	"To: support@example.com\r\n" +
	"Subject: =?UTF-8?B?0J3QtdGCINC00LDQstC70LXQvdC40Y8=?=\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"frontier\"\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"0JfQtNGA0LDQstGB0YLQstGD0LnRgtC1ISDQndC1INGA0LDQsdC+0YLQsNC10YIg0LTQsNGC0YfQ\r\n" +
	"uNC6INC00LDQstC70LXQvdC40Y8uCtCi0LXQu9C10YTQvtC9ICs3IDkxMiAzNDUgNjcgODksINC/\r\n" +
	"0L7Rh9GC0LAgY2xpZW50QGV4YW1wbGUuY29tLgo=\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>html variant</p>\r\n" +
	"--frontier--\r\n"

func TestExtractTextDecodesBase64Multipart(t *testing.T) {
	text := extractText(strings.NewReader(multipartBase64Message))

	assert.Contains(t, text, "Не работает датчик давления")
	assert.Contains(t, text, "+7 912 345 67 89")
	assert.Contains(t, text, "client@example.com")
	assert.NotContains(t, text, "0JfQtNGA", "transfer encoding must be stripped")
	assert.NotContains(t, text, "<p>", "text/plain wins over the html variant")
}

func TestExtractTextDecodesQuotedPrintable(t *testing.T) {
	raw := "From: client@example.com\r\n" +
		"Subject: test\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"=D0=9D=D0=B5 =D1=80=D0=B0=D0=B1=D0=BE=D1=82=D0=B0=D0=B5=D1=82\r\n"

	assert.Equal(t, "Не работает", extractText(strings.NewReader(raw)))
}

func TestExtractTextPlainMessage(t *testing.T) {
	raw := "From: client@example.com\r\n" +
		"Subject: test\r\n" +
		"\r\n" +
		"обычное письмо без MIME-структуры\r\n"

	assert.Equal(t, "обычное письмо без MIME-структуры", extractText(strings.NewReader(raw)))
}

func TestExtractTextFallsBackToHTMLOnly(t *testing.T) {
	raw := "From: client@example.com\r\n" +
		"Subject: test\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>только html</p>\r\n"

	text := extractText(strings.NewReader(raw))
	assert.Contains(t, text, "только html")
}

func TestDecodeMessage(t *testing.T) {
	section := &imap.BodySectionName{}
	msg := &imap.Message{
		Envelope: &imap.Envelope{
			Subject: "Нет давления",
			From: []*imap.Address{
				{MailboxName: "client", HostName: "example.com"},
			},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(multipartBase64Message),
		},
	}

	from, subject, body := decodeMessage(msg, section)
	require.Equal(t, "client@example.com", from)
	assert.Equal(t, "Нет давления", subject)
	assert.Contains(t, body, "Не работает датчик давления")
}
