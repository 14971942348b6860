package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type SessionCounter interface {
	Count() int
}

type RuleCounter interface {
	Counts() (enabled, disabled int64, err error)
}

// Collector periodically refreshes the gauges that mirror session and rule
// state.
type Collector struct {
	metrics  *Metrics
	sessions SessionCounter
	rules    RuleCounter
	interval time.Duration
	logger   *zap.Logger
}

func NewCollector(metrics *Metrics, sessions SessionCounter, rules RuleCounter, interval time.Duration, logger *zap.Logger) *Collector {
	return &Collector{
		metrics:  metrics,
		sessions: sessions,
		rules:    rules,
		interval: interval,
		logger:   logger,
	}
}

// Start collects immediately and then on every tick until ctx is done.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

func (c *Collector) Collect() {
	c.metrics.activeSessions.Set(float64(c.sessions.Count()))

	enabled, disabled, err := c.rules.Counts()
	if err != nil {
		c.logger.Warn("failed to collect rule counts", zap.Error(err))
		return
	}
	c.metrics.publishedRules.WithLabelValues("enabled").Set(float64(enabled))
	c.metrics.publishedRules.WithLabelValues("disabled").Set(float64(disabled))
}
