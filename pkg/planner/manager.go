package planner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

// Publisher receives every event of every session, e.g. to fan it out to websocket clients.
type Publisher interface {
	Publish(sessionID string, ev Event)
}

type Deps struct {
	Router    Router
	Geocoder  Geocoder
	Publisher Publisher
}

// Manager owns the live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	configFn func() Config
	deps     Deps
	log      *zap.Logger
}

// NewManager. configFn is called for every new session so that reloaded settings apply to sessions
// created afterwards.
func NewManager(configFn func() Config, deps Deps, log *zap.Logger) *Manager {
	if configFn == nil {
		configFn = DefaultConfig
	}
	return &Manager{
		sessions: make(map[string]*Session),
		configFn: configFn,
		deps:     deps,
		log:      log,
	}
}

// Overrides adjusts the configuration of a single session. Nil fields keep the configured value.
type Overrides struct {
	EnableDragReorder *bool
	EnableAnimation   *bool
	Vehicle           *da.VehicleClass
	AnimationSpeedMs  int
}

func (o *Overrides) apply(cfg Config) Config {
	if o == nil {
		return cfg
	}
	if o.EnableDragReorder != nil {
		cfg.EnableDragReorder = *o.EnableDragReorder
	}
	if o.EnableAnimation != nil {
		cfg.EnableAnimation = *o.EnableAnimation
	}
	if o.Vehicle != nil {
		cfg.Vehicle = *o.Vehicle
	}
	if o.AnimationSpeedMs > 0 {
		cfg.AnimationSpeedMs = o.AnimationSpeedMs
	}
	return cfg
}

// Create starts a new session and subscribes the publisher to its events.
func (m *Manager) Create(ctx context.Context, overrides *Overrides) (*Session, error) {
	cfg := overrides.apply(m.configFn())
	id := uuid.NewString()
	s := NewSession(id, cfg, m.deps.Router, m.deps.Geocoder, m.log)

	if m.deps.Publisher != nil {
		pub := m.deps.Publisher
		if _, err := s.Subscribe(ctx, func(ev Event) { pub.Publish(ev.SessionID, ev) }); err != nil {
			s.Close()
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	m.log.Info("session created", zap.String("session_id", id))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, util.NewErrorf(util.ErrNotFound, "session %s not found", id)
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return util.NewErrorf(util.ErrNotFound, "session %s not found", id)
	}
	s.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ReapIdle closes sessions with no activity for maxIdle and returns how many were closed.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		m.log.Info("reaped idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (m *Manager) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReapIdle(maxIdle)
		}
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
