package rule

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/loaneye/internal/models"
)

// Manager keeps rule-building sessions in an expiring cache. A session's
// lifetime is extended every time it is fetched.
type Manager struct {
	sessions *cache.Cache
	source   VariableSource
	logger   *zap.Logger
}

func NewManager(source VariableSource, ttl time.Duration, logger *zap.Logger) *Manager {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	m := &Manager{
		sessions: cache.New(ttl, cleanup),
		source:   source,
		logger:   logger,
	}
	m.sessions.OnEvicted(func(id string, _ interface{}) {
		m.logger.Debug("session evicted", zap.String("session_id", id))
	})
	return m
}

// Create starts a session for signalCode owned by owner.
func (m *Manager) Create(signalCode int, owner string) *Session {
	s := NewSession(uuid.New().String(), signalCode, m.source)
	s.Owner = owner
	m.sessions.Set(s.ID, s, cache.DefaultExpiration)
	m.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("owner", owner),
		zap.Int("signal_code", signalCode))
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	s := v.(*Session)
	m.sessions.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

func (m *Manager) Delete(id string) error {
	if _, ok := m.sessions.Get(id); !ok {
		return models.ErrSessionNotFound
	}
	m.sessions.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
