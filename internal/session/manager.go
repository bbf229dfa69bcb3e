package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/identity"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
	"github.com/MrSnakeDoc/flare/internal/utils"
)

// Deps are the collaborators shared by every session of a Manager.
// Channel and Listener may be nil to disable cross-tab and remote sync.
type Deps struct {
	Persister Persister
	Channel   broadcast.Channel
	Listener  realtime.Listener
	Logger    logger.Logger
	IDs       *identity.Generator
	Now       func() time.Time
}

// Manager creates, looks up and tears down sessions.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a Manager. Missing IDs and Now get defaults.
func NewManager(d Deps) *Manager {
	if d.IDs == nil {
		d.IDs = identity.New()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	return &Manager{deps: d, sessions: make(map[string]*Session)}
}

// Login opens a session for userID. Both subscriptions are established
// before the initial fetch so no change committed in between is missed.
func (m *Manager) Login(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	if m.isClosed() {
		return nil, ErrClosed
	}

	tabID := m.deps.IDs.TabID()

	var opened []io.Closer
	abort := func() { _ = utils.CloseAll(opened...) }

	var bcSub *broadcast.Subscription
	if m.deps.Channel != nil {
		sub, err := m.deps.Channel.Subscribe(ctx)
		if err != nil {
			return nil, fmt.Errorf("subscribe broadcast: %w", err)
		}
		bcSub = sub
		opened = append(opened, sub)
	}

	var rtSub *realtime.Subscription
	if m.deps.Listener != nil {
		sub, err := m.deps.Listener.Subscribe(ctx, userID)
		if err != nil {
			abort()
			return nil, fmt.Errorf("subscribe changes: %w", err)
		}
		rtSub = sub
		opened = append(opened, sub)
	}

	records, err := m.deps.Persister.ListByOwner(ctx, userID)
	if err != nil {
		abort()
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}

	s := newSession(sessionDeps{
		tabID:   tabID,
		userID:  userID,
		ids:     m.deps.IDs,
		persist: m.deps.Persister,
		channel: m.deps.Channel,
		bcSub:   bcSub,
		rtSub:   rtSub,
		logger:  m.deps.Logger,
		now:     m.deps.Now,
	}, records)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = s.Close()
		return nil, ErrClosed
	}
	m.sessions[tabID] = s
	m.mu.Unlock()

	m.deps.Logger.Info("session opened",
		logger.String("tab_id", tabID),
		logger.String("user_id", userID),
		logger.Int("bookmarks", len(records)),
	)
	return s, nil
}

// Get returns the live session for tabID.
func (m *Manager) Get(tabID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tabID]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Logout closes the session for tabID.
func (m *Manager) Logout(_ context.Context, tabID string) error {
	m.mu.Lock()
	s, ok := m.sessions[tabID]
	delete(m.sessions, tabID)
	m.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}

	err := s.Close()
	m.deps.Logger.Info("session closed",
		logger.String("tab_id", tabID),
		logger.String("user_id", s.userID),
	)
	return err
}

// ReapIdle logs out every session inactive for longer than ttl and returns
// their tab ids.
func (m *Manager) ReapIdle(ctx context.Context, ttl time.Duration) []string {
	cutoff := m.deps.Now().Add(-ttl)

	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()
	sort.Strings(idle)

	reaped := idle[:0]
	for _, id := range idle {
		err := m.Logout(ctx, id)
		if errors.Is(err, ErrUnknownSession) {
			continue // logged out meanwhile
		}
		if err != nil {
			m.deps.Logger.Warn("idle session closed with errors",
				logger.String("tab_id", id),
				logger.Error(err))
		}
		reaped = append(reaped, id)
	}
	return reaped
}

// TabIDs returns the ids of the live sessions, sorted.
func (m *Manager) TabIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close logs out every session and rejects further logins.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
