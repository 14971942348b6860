package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/slack-go/slack"

	"github.com/loaneye/internal/report"
)

// SlackNotifier posts digests through an incoming webhook, or through the
// chat API when a bot token is configured instead.
type SlackNotifier struct {
	WebhookURL string
	Token      string
	Channel    string
	Username   string
	client     *slack.Client
}

func NewSlackNotifier(webhookURL, token, channel, username string) *SlackNotifier {
	s := &SlackNotifier{
		WebhookURL: webhookURL,
		Token:      token,
		Channel:    channel,
		Username:   username,
	}
	if token != "" {
		s.client = slack.New(token)
	}
	return s
}

func (s *SlackNotifier) Name() string {
	return "slack"
}

func (s *SlackNotifier) Enabled() bool {
	return s.WebhookURL != "" || (s.client != nil && s.Channel != "")
}

func (s *SlackNotifier) Send(ctx context.Context, d *report.Dashboard) error {
	attachment := digestAttachment(d)

	if s.WebhookURL != "" {
		msg := &slack.WebhookMessage{
			Channel:     s.Channel,
			Username:    s.Username,
			IconEmoji:   ":bell:",
			Text:        report.Subject(d),
			Attachments: []slack.Attachment{attachment},
		}
		if err := slack.PostWebhookContext(ctx, s.WebhookURL, msg); err != nil {
			return fmt.Errorf("failed to send slack message: %w", err)
		}
		return nil
	}

	_, _, err := s.client.PostMessageContext(ctx, s.Channel,
		slack.MsgOptionText(report.Subject(d), false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	return nil
}

func digestAttachment(d *report.Dashboard) slack.Attachment {
	return slack.Attachment{
		Color: riskColor(d),
		Title: "EWS dashboard digest",
		Text:  report.Summary(d),
		Fields: []slack.AttachmentField{
			{Title: "Total Alerts", Value: strconv.Itoa(d.Metrics.TotalAlerts), Short: true},
			{Title: "Borrowers with Alerts", Value: strconv.Itoa(d.Metrics.BorrowersWithAlerts), Short: true},
			{Title: "Total Overdue (Cr INR)", Value: d.Overdue.Display, Short: true},
			{Title: "High Risk Borrowers", Value: strconv.Itoa(len(d.HighRiskBorrowers)), Short: true},
		},
		Footer: "LoanEye",
		Ts:     json.Number(strconv.FormatInt(d.GeneratedAt.Unix(), 10)),
	}
}

// riskColor reflects the share of high severity alerts.
func riskColor(d *report.Dashboard) string {
	for _, s := range d.SeverityMix {
		if s.Label != "High" {
			continue
		}
		switch {
		case s.Percent >= 50:
			return "#FF0000"
		case s.Percent >= 20:
			return "#FFA500"
		}
	}
	return "#36a64f"
}
