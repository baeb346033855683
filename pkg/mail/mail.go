// Package mail builds and delivers transactional email.
//
//	msg := mail.To("ama@example.com").
//	    Subject("Your order W360-20260301-0007").
//	    Body(html)
//	err := sender.Send(ctx, msg)
//
// FromConfig returns an SMTP sender when MAIL_HOST is set and a sender
// that only logs otherwise.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

var ErrNoRecipients = errors.New("mail: no recipients")

// Message is a single outgoing email.
type Message struct {
	to      []string
	cc      []string
	subject string
	body    string
	isHTML  bool
}

// To starts a message with the primary recipients.
func To(addresses ...string) *Message {
	return &Message{to: clean(addresses), isHTML: true}
}

func (m *Message) CC(addresses ...string) *Message {
	m.cc = append(m.cc, clean(addresses)...)
	return m
}

func (m *Message) Subject(s string) *Message {
	m.subject = headerSafe(s)
	return m
}

// Body sets an HTML body.
func (m *Message) Body(html string) *Message {
	m.body, m.isHTML = html, true
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body, m.isHTML = text, false
	return m
}

func (m *Message) Recipients() []string {
	return append(append([]string(nil), m.to...), m.cc...)
}

func (m *Message) SubjectLine() string { return m.subject }
func (m *Message) Content() string     { return m.body }

// Raw renders the message as RFC 5322 bytes.
func (m *Message) Raw(from string, now time.Time) []byte {
	ct := "text/plain"
	if m.isHTML {
		ct = "text/html"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.to, ", "))
	if len(m.cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(m.cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", ct)
	b.WriteString(m.body)
	return []byte(b.String())
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}

// SMTP holds connection settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// FromConfig builds the configured sender.
func FromConfig() Sender {
	cfg := SMTP{
		Host:     config.MailHost(),
		Port:     config.MailPort(),
		Username: config.MailUsername(),
		Password: config.MailPassword(),
		From:     config.MailFrom(),
		FromName: config.MailFromName(),
	}
	if cfg.Host == "" {
		return LogSender{}
	}
	return cfg
}

func (c SMTP) Send(ctx context.Context, m *Message) error {
	rcpt := m.Recipients()
	if len(rcpt) == 0 {
		return ErrNoRecipients
	}
	from := fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", c.FromName), c.From)
	raw := m.Raw(from, time.Now())
	addr := net.JoinHostPort(c.Host, c.Port)

	var auth smtp.Auth
	if c.Username != "" {
		auth = smtp.PlainAuth("", c.Username, c.Password, c.Host)
	}

	d := net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	var err error
	if c.Port == "465" {
		conn, err = tls.DialWithDialer(&d, "tcp", addr, &tls.Config{ServerName: c.Host})
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer client.Close()

	if c.Port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: c.Host}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}
	if err := client.Mail(c.From); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	for _, a := range rcpt {
		if err := client.Rcpt(a); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", a, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: data close: %w", err)
	}
	return client.Quit()
}

// LogSender records messages in the log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m *Message) error {
	if len(m.Recipients()) == 0 {
		return ErrNoRecipients
	}
	logger.WithCtx(ctx).Info("mail: not sent, MAIL_HOST unset",
		"to", strings.Join(m.Recipients(), ","), "subject", m.subject)
	return nil
}

func clean(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a = headerSafe(strings.TrimSpace(a)); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// headerSafe drops CR and LF so values cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
