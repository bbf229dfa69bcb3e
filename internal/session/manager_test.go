package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

type failingListener struct{}

func (failingListener) Subscribe(context.Context, string) (*realtime.Subscription, error) {
	return nil, errors.New("feed unavailable")
}

func TestLoginLoadsOwnRecords(t *testing.T) {
	h := newHarness(t)
	h.store.seed(domain.Bookmark{ID: "a", OwnerID: "u1", Title: "A", URL: "https://a.example", CreatedAt: time.Unix(10, 0)})
	h.store.seed(domain.Bookmark{ID: "b", OwnerID: "u1", Title: "B", URL: "https://b.example", CreatedAt: time.Unix(20, 0)})
	h.store.seed(domain.Bookmark{ID: "c", OwnerID: "u2", Title: "C", URL: "https://c.example", CreatedAt: time.Unix(30, 0)})
	h.store.extra = []domain.Bookmark{{ID: "leak", OwnerID: "u2", Title: "L", URL: "https://l.example"}}

	s := h.login(t, "u1")
	if s.UserID() != "u1" || s.TabID() == "" {
		t.Fatalf("session = %s/%s", s.UserID(), s.TabID())
	}

	got := ids(snapshot(t, s))
	want := []string{"b", "a"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("loaded %v, want %v", got, want)
	}

	if found, err := h.mgr.Get(s.TabID()); err != nil || found != s {
		t.Fatalf("Get = %v, %v", found, err)
	}
	if h.mgr.Len() != 1 {
		t.Fatalf("Len = %d", h.mgr.Len())
	}
}

func TestLoginErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty user", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.mgr.Login(ctx, ""); !errors.Is(err, ErrEmptyUser) {
			t.Fatalf("Login = %v, want ErrEmptyUser", err)
		}
	})

	t.Run("list fails", func(t *testing.T) {
		h := newHarness(t)
		h.store.listErr = errStoreDown
		if _, err := h.mgr.Login(ctx, "u1"); !errors.Is(err, errStoreDown) {
			t.Fatalf("Login = %v, want wrapped errStoreDown", err)
		}
		if h.mgr.Len() != 0 {
			t.Fatalf("failed login registered a session")
		}
	})

	t.Run("listener fails", func(t *testing.T) {
		log := logger.NewNop()
		mgr := NewManager(Deps{
			Persister: newFakeStore(nil),
			Channel:   broadcast.NewHub(broadcast.DefaultName, log),
			Listener:  failingListener{},
			Logger:    log,
		})
		defer mgr.Close()
		if _, err := mgr.Login(ctx, "u1"); err == nil {
			t.Fatal("Login succeeded with a failing listener")
		}
	})

	t.Run("after close", func(t *testing.T) {
		h := newHarness(t)
		_ = h.mgr.Close()
		if _, err := h.mgr.Login(ctx, "u1"); !errors.Is(err, ErrClosed) {
			t.Fatalf("Login = %v, want ErrClosed", err)
		}
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.login(t, "u1")

	if err := h.mgr.Logout(ctx, s.TabID()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := h.mgr.Get(s.TabID()); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("Get after logout = %v", err)
	}
	if err := h.mgr.Logout(ctx, s.TabID()); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("second Logout = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close after Logout = %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("session not stopped")
	}
	if _, err := s.Add(ctx, "Go", "go.dev"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Add after logout = %v", err)
	}
}

func TestManagerClose(t *testing.T) {
	h := newHarness(t)
	a := h.login(t, "u1")
	b := h.login(t, "u2")

	if err := h.mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, s := range []*Session{a, b} {
		select {
		case <-s.Done():
		case <-time.After(time.Second):
			t.Fatalf("session %s still running", s.TabID())
		}
	}
	if h.mgr.Len() != 0 || len(h.mgr.TabIDs()) != 0 {
		t.Fatal("sessions left after Close")
	}
}

func TestReapIdle(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	mgr := NewManager(Deps{Persister: newFakeStore(nil), Logger: logger.NewNop(), Now: clock})
	defer mgr.Close()
	ctx := context.Background()

	stale, err := mgr.Login(ctx, "u1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	advance(2 * time.Hour)
	fresh, err := mgr.Login(ctx, "u1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := stale.LastActive(); !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("LastActive = %v", got)
	}

	reaped := mgr.ReapIdle(ctx, time.Hour)
	if len(reaped) != 1 || reaped[0] != stale.TabID() {
		t.Fatalf("reaped = %v, want [%s]", reaped, stale.TabID())
	}
	if _, err := mgr.Get(fresh.TabID()); err != nil {
		t.Fatalf("fresh session reaped: %v", err)
	}

	// Activity resets the idle clock.
	advance(50 * time.Minute)
	if _, err := fresh.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	advance(30 * time.Minute)
	if reaped := mgr.ReapIdle(ctx, time.Hour); len(reaped) != 0 {
		t.Fatalf("active session reaped: %v", reaped)
	}
}
