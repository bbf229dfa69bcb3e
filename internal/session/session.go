// Package session owns the per-tab state of a logged-in user: the bookmark
// collection, the commands that mutate it, and the reconciler that merges
// changes from other tabs and from the persistent store.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/identity"
	"github.com/MrSnakeDoc/flare/internal/index"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
	"github.com/MrSnakeDoc/flare/internal/utils"
)

// Session is one tab of one user.
//
// Every read and write of the collection, the notices and the draft runs on
// the reconciler goroutine, one task at a time. Commands hand it closures
// through the inbox and wait for them; inbound broadcast and realtime events
// are consumed by the same select loop.
type Session struct {
	tabID  string
	userID string
	merger Merger

	ids     *identity.Generator
	persist Persister
	channel broadcast.Channel
	logger  logger.Logger
	now     func() time.Time

	bcSub *broadcast.Subscription
	rtSub *realtime.Subscription

	inbox     chan func()
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error

	lastActive atomic.Int64 // unix nanos of the last command or read

	// owned by the reconciler
	items   *index.Collection
	notices []Notice
	draft   domain.Draft
	draftID string // temp id of the Add that last set draft
}

type sessionDeps struct {
	tabID   string
	userID  string
	ids     *identity.Generator
	persist Persister
	channel broadcast.Channel
	bcSub   *broadcast.Subscription
	rtSub   *realtime.Subscription
	logger  logger.Logger
	now     func() time.Time
}

// newSession loads records and starts the reconciler.
func newSession(d sessionDeps, records []domain.Bookmark) *Session {
	s := &Session{
		tabID:   d.tabID,
		userID:  d.userID,
		merger:  Merger{TabID: d.tabID, UserID: d.userID},
		ids:     d.ids,
		persist: d.persist,
		channel: d.channel,
		logger:  d.logger.With(logger.String("tab_id", d.tabID), logger.String("user_id", d.userID)),
		now:     d.now,
		bcSub:   d.bcSub,
		rtSub:   d.rtSub,
		inbox:   make(chan func()),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		items:   index.NewCollection(),
	}

	owned := make([]domain.Bookmark, 0, len(records))
	for _, b := range records {
		if b.OwnerID != s.userID {
			continue
		}
		b.Provisional = false
		owned = append(owned, b)
	}
	s.items.Load(owned)
	s.touch()

	go s.run()
	return s
}

// TabID returns the identity of this tab on the broadcast channel.
func (s *Session) TabID() string { return s.tabID }

// UserID returns the user the session is bound to.
func (s *Session) UserID() string { return s.userID }

func (s *Session) run() {
	defer close(s.stopped)

	var bc <-chan broadcast.Message
	if s.bcSub != nil {
		bc = s.bcSub.C
	}
	var rt <-chan realtime.Change
	if s.rtSub != nil {
		rt = s.rtSub.C
	}

	for {
		select {
		case <-s.stop:
			s.items.Purge()
			s.notices = nil
			s.draft, s.draftID = domain.Draft{}, ""
			return
		case fn := <-s.inbox:
			fn()
		case m, ok := <-bc:
			if !ok {
				s.logger.Warn("broadcast subscription ended")
				bc = nil
				continue
			}
			s.mergeBroadcast(m)
		case c, ok := <-rt:
			if !ok {
				s.logger.Warn("realtime subscription ended")
				rt = nil
				continue
			}
			s.mergeRemote(c)
		}
	}
}

func (s *Session) mergeBroadcast(m broadcast.Message) {
	out := s.merger.ApplyBroadcast(s.items, m)
	if !out.Applied {
		s.logger.Debug("broadcast discarded",
			logger.String("from_tab", m.TabID),
			logger.String("type", m.Type),
			logger.String("reason", out.Reason),
		)
	}
}

func (s *Session) mergeRemote(c realtime.Change) {
	out := s.merger.ApplyRemote(s.items, c)
	if !out.Applied {
		s.logger.Debug("remote change discarded",
			logger.String("kind", string(c.Kind)),
			logger.String("reason", out.Reason),
		)
	}
}

func (s *Session) touch() { s.lastActive.Store(s.now().UnixNano()) }

// LastActive returns when the session last served a command or read.
// Inbound sync events do not count.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// do runs fn on the reconciler and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	s.touch()
	done := make(chan struct{})
	task := func() {
		fn()
		close(done)
	}

	select {
	case s.inbox <- task:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Snapshot returns the current records in arrival order.
func (s *Session) Snapshot(ctx context.Context) ([]domain.Bookmark, error) {
	var out []domain.Bookmark
	err := s.do(ctx, func() { out = s.items.Snapshot() })
	return out, err
}

// Notices returns the pending notices, oldest first.
func (s *Session) Notices(ctx context.Context) ([]Notice, error) {
	var out []Notice
	err := s.do(ctx, func() { out = append([]Notice{}, s.notices...) })
	return out, err
}

// DismissNotices clears the pending notices and returns how many there were.
func (s *Session) DismissNotices(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() {
		n = len(s.notices)
		s.notices = nil
	})
	return n, err
}

// Draft returns the last submitted input that has not been saved yet.
func (s *Session) Draft(ctx context.Context) (domain.Draft, error) {
	var d domain.Draft
	err := s.do(ctx, func() { d = s.draft })
	return d, err
}

// Close stops the reconciler, purges the collection and cancels both
// subscriptions. Commands still in flight have their completion discarded.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.stopped

		var subs []io.Closer
		if s.bcSub != nil {
			subs = append(subs, s.bcSub)
		}
		if s.rtSub != nil {
			subs = append(subs, s.rtSub)
		}
		s.closeErr = utils.CloseAll(subs...)
	})
	return s.closeErr
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.stopped }
