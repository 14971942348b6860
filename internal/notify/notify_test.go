package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/loaneye/internal/report"
)

func sampleDashboard() *report.Dashboard {
	return &report.Dashboard{
		GeneratedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Metrics:     report.Metrics{TotalAlerts: 12, BorrowersWithAlerts: 4, TotalBorrowers: 10},
		Overdue:     report.Overdue{Crore: 1.5, Display: "1.50"},
		SeverityMix: []report.Share{{Label: "High", Count: 6, Percent: 50}},
		HighRiskBorrowers: []report.BorrowerRisk{
			{BorrowerID: "B1", BorrowerName: "Acme", High: 3, Total: 3, Score: 0.5},
		},
	}
}

func TestSlackNotifier_Webhook(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlackNotifier(srv.URL, "", "#ews", "loaneye")
	require.True(t, s.Enabled())
	require.NoError(t, s.Send(context.Background(), sampleDashboard()))

	assert.Equal(t, "#ews", got["channel"])
	assert.Equal(t, "LoanEye EWS digest (2024-03-01)", got["text"])
	attachments, ok := got["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]interface{})
	assert.Equal(t, "#FF0000", att["color"])
	assert.Contains(t, att["text"], "B1 Acme")
}

func TestSlackNotifier_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSlackNotifier(srv.URL, "", "", "")
	assert.Error(t, s.Send(context.Background(), sampleDashboard()))
}

func TestSlackNotifier_Enabled(t *testing.T) {
	assert.False(t, NewSlackNotifier("", "", "#ews", "").Enabled())
	assert.False(t, NewSlackNotifier("", "xoxb-token", "", "").Enabled())
	assert.True(t, NewSlackNotifier("", "xoxb-token", "#ews", "").Enabled())
}

func TestEmailNotifier_Message(t *testing.T) {
	e := NewEmailNotifier(EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		From:      "ews@example.com",
		Receivers: []string{"risk@example.com", "ops@example.com"},
	})
	require.True(t, e.Enabled())

	m, err := e.Message(sampleDashboard())
	require.NoError(t, err)
	assert.Equal(t, []string{"ews@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"risk@example.com", "ops@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"LoanEye EWS digest (2024-03-01)"}, m.GetHeader("Subject"))

	assert.False(t, NewEmailNotifier(EmailConfig{SMTPHost: "smtp.example.com"}).Enabled())
}

type fakeSender struct {
	name    string
	enabled bool
	err     error
	calls   int
}

func (f *fakeSender) Name() string  { return f.name }
func (f *fakeSender) Enabled() bool { return f.enabled }
func (f *fakeSender) Send(ctx context.Context, d *report.Dashboard) error {
	f.calls++
	return f.err
}

func TestManager_Notify(t *testing.T) {
	ok := &fakeSender{name: "slack", enabled: true}
	off := &fakeSender{name: "email"}
	m := NewManager(zaptest.NewLogger(t), ok, off)

	assert.Equal(t, []string{"slack"}, m.Channels())

	sent, err := m.Notify(context.Background(), sampleDashboard())
	require.NoError(t, err)
	assert.Equal(t, []string{"slack"}, sent)
	assert.Equal(t, 0, off.calls)

	failing := &fakeSender{name: "email", enabled: true, err: errors.New("smtp down")}
	m = NewManager(zaptest.NewLogger(t), ok, failing)
	sent, err = m.Notify(context.Background(), sampleDashboard())
	assert.Equal(t, []string{"slack"}, sent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email: smtp down")
}
