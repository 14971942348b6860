package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/loaneye/internal/report"
)

type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	From      string
	Receivers []string
}

type EmailNotifier struct {
	config EmailConfig
	dialer *gomail.Dialer
}

func NewEmailNotifier(config EmailConfig) *EmailNotifier {
	username := config.Username
	if username == "" {
		username = config.From
	}
	return &EmailNotifier{
		config: config,
		dialer: gomail.NewDialer(config.SMTPHost, config.SMTPPort, username, config.Password),
	}
}

func (e *EmailNotifier) Name() string {
	return "email"
}

func (e *EmailNotifier) Enabled() bool {
	return e.config.SMTPHost != "" && e.config.From != "" && len(e.config.Receivers) > 0
}

// Message builds the digest email.
func (e *EmailNotifier) Message(d *report.Dashboard) (*gomail.Message, error) {
	body, err := report.RenderHTML(d)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", e.config.From)
	m.SetHeader("To", e.config.Receivers...)
	m.SetHeader("Subject", report.Subject(d))
	m.SetBody("text/plain", report.Summary(d))
	m.AddAlternative("text/html", body)
	return m, nil
}

func (e *EmailNotifier) Send(ctx context.Context, d *report.Dashboard) error {
	m, err := e.Message(d)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- e.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
