package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRawHeaders(t *testing.T) {
	m := To(" ama@example.com ", "").CC("ops@example.com").
		Subject("Order W360-1\r\nBcc: evil@example.com").
		Body("<p>hi</p>")
	raw := string(m.Raw("Wellness360 <hello@wellness360.app>", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))

	assert.Contains(t, raw, "To: ama@example.com\r\n")
	assert.Contains(t, raw, "Cc: ops@example.com\r\n")
	assert.Contains(t, raw, "Subject: Order W360-1Bcc: evil@example.com\r\n")
	assert.NotContains(t, raw, "\r\nBcc:")
	assert.Contains(t, raw, "Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n<p>hi</p>")
	assert.Equal(t, []string{"ama@example.com", "ops@example.com"}, m.Recipients())
}

func TestNonASCIISubjectIsEncoded(t *testing.T) {
	raw := string(To("a@example.com").Subject("Café reçu").Text("x").Raw("x@example.com", time.Now()))
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.True(t, strings.Contains(raw, "Content-Type: text/plain"))
}

func TestLogSenderNeedsRecipients(t *testing.T) {
	assert.ErrorIs(t, LogSender{}.Send(context.Background(), To()), ErrNoRecipients)
	assert.NoError(t, LogSender{}.Send(context.Background(), To("a@example.com").Subject("hi")))
}
