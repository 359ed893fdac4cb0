// Package smtp implements a Provider that delivers through an SMTP account,
// such as the Gmail mailbox the forms have always used.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/antqd/emailsender/internal/email"
)

// SMTPProviderConfig holds the account used to send.
type SMTPProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Dialer is the part of gomail.Dialer the provider uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPProvider sends each message over a fresh SMTP connection, so a single
// instance serves concurrent requests.
type SMTPProvider struct {
	dialer Dialer
}

// New creates an SMTPProvider. Port 465 uses implicit TLS, other ports
// STARTTLS.
func New(cfg SMTPProviderConfig) *SMTPProvider {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return &SMTPProvider{dialer: d}
}

// NewWithDialer creates an SMTPProvider over a custom dialer, used for testing.
func NewWithDialer(d Dialer) *SMTPProvider {
	return &SMTPProvider{dialer: d}
}

// Send builds the MIME message and delivers it. The context is not observed:
// gomail bounds the exchange with its own connection timeout.
func (p *SMTPProvider) Send(_ context.Context, msg *email.Email) error {
	if err := p.dialer.DialAndSend(buildMessage(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (p *SMTPProvider) Name() string {
	return "smtp"
}

func buildMessage(msg *email.Email) *gomail.Message {
	m := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)

	m.SetAddressHeader("From", msg.From.Address, msg.From.Name)
	m.SetHeader("To", msg.To...)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	for _, att := range msg.Attachments {
		content := att.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	return m
}
