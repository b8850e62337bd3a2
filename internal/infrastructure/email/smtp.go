package email

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/sbn-software/samsync/internal/shared/config"
	"github.com/sbn-software/samsync/internal/shared/errors"
)

// dialer sends composed messages; *gomail.Dialer in production.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Renderer turns a markdown report into an HTML document.
type Renderer interface {
	Render(title, body string) (string, error)
}

// SMTPReportMailer mails run reports written in markdown. The markdown is the
// plain-text part; its rendering is the HTML alternative.
type SMTPReportMailer struct {
	config   config.EmailConfig
	dialer   dialer
	renderer Renderer
}

func NewSMTPReportMailer(cfg config.EmailConfig, renderer Renderer) *SMTPReportMailer {
	return &SMTPReportMailer{
		config:   cfg,
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		renderer: renderer,
	}
}

// SendReport mails body to every configured recipient.
func (s *SMTPReportMailer) SendReport(subject, body string) error {
	if len(s.config.To) == 0 {
		return errors.NewValidationError("no report recipients configured")
	}

	htmlBody, err := s.renderer.Render(subject, body)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	m := gomail.NewMessage()
	if s.config.FromName != "" {
		m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	} else {
		m.SetHeader("From", s.config.FromAddress)
	}
	m.SetHeader("To", s.config.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send report to %s: %w", strings.Join(s.config.To, ", "), err)
	}
	return nil
}
