package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aq2208/gorder-storefront/internal/cart"
	"github.com/aq2208/gorder-storefront/internal/checkout"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/google/uuid"
)

const DefaultTTL = 2 * time.Hour

type Option func(*Manager)

func WithTTL(d time.Duration) Option { return func(m *Manager) { m.ttl = d } }

func WithFlowFactory(f FlowFactory) Option { return func(m *Manager) { m.newFlow = f } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// Manager is the in-memory registry of visitor sessions.
type Manager struct {
	ttl     time.Duration
	now     func() time.Time
	newFlow FlowFactory
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		ttl:      DefaultTTL,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newFlow == nil {
		m.newFlow = func(s *Session) *checkout.Flow { return checkout.New(s.Cart()) }
	}
	if m.log == nil {
		m.log = logging.New("session")
	}
	return m
}

func (m *Manager) Create() *Session {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		cart:      cart.NewStore(),
		newFlow:   m.newFlow,
		lastSeen:  now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Debug("session_created", "session_id", s.ID)
	return s
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.shutdown()
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL. Sessions with a
// pending submission are kept until it finishes.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) && !s.Busy() {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.shutdown()
	}
	if len(expired) > 0 {
		m.log.Info("sessions_expired", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

// Shutdown closes every session's checkout.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, s := range all {
		s.shutdown()
	}
}
