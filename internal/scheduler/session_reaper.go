package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/session"
)

const (
	// DefaultIdleTTL is how long a session may go without commands or reads
	// before it is logged out.
	DefaultIdleTTL = 24 * time.Hour
)

// SessionReaper periodically logs out idle sessions, releasing their
// subscriptions for tabs that never logged out.
type SessionReaper struct {
	sessions *session.Manager
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
}

// NewSessionReaper creates a reaper. A zero ttl uses DefaultIdleTTL.
func NewSessionReaper(
	sessions *session.Manager,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
) *SessionReaper {
	if ttl == 0 {
		ttl = DefaultIdleTTL
	}

	return &SessionReaper{
		sessions: sessions,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (sr *SessionReaper) Start(ctx context.Context) error {
	if sr.interval <= 0 {
		return fmt.Errorf("session reaper interval must be > 0, got %v", sr.interval)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.Collect(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reaper
func (sr *SessionReaper) Stop() {
	close(sr.stopCh)
}

// Collect logs out every session idle for longer than the ttl and returns
// how many were closed.
func (sr *SessionReaper) Collect(ctx context.Context) int {
	reaped := sr.sessions.ReapIdle(ctx, sr.ttl)
	if len(reaped) == 0 {
		sr.logger.Debug("no idle sessions")
		return 0
	}

	sr.logger.Info("idle sessions logged out",
		logger.Int("count", len(reaped)),
		logger.Strings("tab_ids", reaped),
		logger.Duration("idle_ttl", sr.ttl))
	return len(reaped)
}
