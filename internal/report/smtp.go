package report

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends reports through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	send     SendFunc
}

// SMTPOption configures an SMTPMailer.
type SMTPOption func(*SMTPMailer)

// WithAuth enables PLAIN auth.
func WithAuth(username, password string) SMTPOption {
	return func(m *SMTPMailer) {
		m.username = username
		m.password = password
	}
}

// WithSendFunc replaces the transport, mainly for tests.
func WithSendFunc(fn SendFunc) SMTPOption {
	return func(m *SMTPMailer) {
		if fn != nil {
			m.send = fn
		}
	}
}

// NewSMTPMailer creates a mailer for host:port sending from from to to.
func NewSMTPMailer(host string, port int, from string, to []string, opts ...SMTPOption) *SMTPMailer {
	m := &SMTPMailer{
		host: host,
		port: port,
		from: from,
		to:   append([]string(nil), to...),
		send: smtp.SendMail,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available reports whether a relay, a sender and a recipient are set.
func (m *SMTPMailer) Available() bool {
	return m != nil && m.host != "" && m.from != "" && len(m.to) > 0
}

// Send delivers r. The context is only checked before dialing; net/smtp
// has no cancellation.
func (m *SMTPMailer) Send(ctx context.Context, r Report) error {
	if !m.Available() {
		return ErrMailUnavailable
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	if err := m.send(addr, auth, m.from, m.to, m.message(r)); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}

// message renders r as a plain-text RFC 5322 message.
func (m *SMTPMailer) message(r Report) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + strings.Join(m.to, ", ") + "\r\n")
	b.WriteString("Subject: " + r.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(r.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
