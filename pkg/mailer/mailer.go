package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"mentorhub/config"
	"mentorhub/pkg/logger"
)

// Mailer delivers plain-text mail. Implementations must be safe for
// concurrent use; callers send from goroutines and never wait on the
// result.
type Mailer interface {
	Send(to, subject, body string) error
}

// NewFromConfig returns the SMTP mailer when SMTP is enabled, otherwise
// a console mailer that only logs the delivery.
func NewFromConfig(cfg *config.Config, log *logger.Logger) Mailer {
	if cfg.SMTP.Enabled {
		return NewSMTPMailer(cfg.SMTP, log)
	}
	return NewConsoleMailer(log)
}

// smtpMailer sends through a plain SMTP relay.
type smtpMailer struct {
	cfg    config.SMTP
	logger *logger.Logger

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer that delivers via the configured relay.
func NewSMTPMailer(cfg config.SMTP, log *logger.Logger) Mailer {
	return &smtpMailer{
		cfg:      cfg,
		logger:   log,
		sendMail: smtp.SendMail,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, m.cfg.FromName, to, subject, body)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	m.logger.Debugw("Mail sent", "to", to, "subject", subject)
	return nil
}

// buildMessage assembles the RFC 5322 headers and body.
func buildMessage(from, fromName, to, subject, body string) []byte {
	var b strings.Builder

	if fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", escapeHeader(fromName), from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", escapeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	return []byte(b.String())
}

// escapeHeader strips CR and LF so user-supplied values cannot smuggle
// extra headers into the message.
func escapeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}

// consoleMailer stands in when SMTP is disabled. It logs the delivery
// but not the body; codes reach developers through the development-mode
// console print instead.
type consoleMailer struct {
	logger *logger.Logger
}

// NewConsoleMailer creates a mailer that only logs deliveries.
func NewConsoleMailer(log *logger.Logger) Mailer {
	return &consoleMailer{logger: log}
}

func (m *consoleMailer) Send(to, subject, body string) error {
	m.logger.Infow("Mail delivery skipped, SMTP disabled", "to", to, "subject", subject)
	return nil
}
