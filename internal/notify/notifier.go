// Package notify delivers dashboard digests to Slack and email.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/loaneye/internal/report"
)

// Sender is one delivery channel.
type Sender interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, d *report.Dashboard) error
}

type Manager struct {
	senders []Sender
	logger  *zap.Logger
}

func NewManager(logger *zap.Logger, senders ...Sender) *Manager {
	return &Manager{senders: senders, logger: logger}
}

// Channels lists the configured channel names.
func (m *Manager) Channels() []string {
	var out []string
	for _, s := range m.senders {
		if s.Enabled() {
			out = append(out, s.Name())
		}
	}
	return out
}

// Notify sends d through every configured channel and returns the names of
// the channels that accepted it. Unconfigured channels are skipped.
func (m *Manager) Notify(ctx context.Context, d *report.Dashboard) ([]string, error) {
	sent := []string{}
	var errs []error
	for _, s := range m.senders {
		if !s.Enabled() {
			continue
		}
		if err := s.Send(ctx, d); err != nil {
			m.logger.Error("failed to send digest", zap.String("channel", s.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		m.logger.Info("digest sent", zap.String("channel", s.Name()))
		sent = append(sent, s.Name())
	}
	return sent, errors.Join(errs...)
}
