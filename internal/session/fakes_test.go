package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory Persister. When gate is set, Insert and Delete
// signal started and block until gate is closed or ctx is done.
type fakeStore struct {
	publisher realtime.Publisher
	gate      chan struct{}
	started   chan struct{}

	mu        sync.Mutex
	records   map[string]domain.Bookmark
	extra     []domain.Bookmark
	seq       int
	insertErr error
	deleteErr error
	listErr   error
}

func newFakeStore(pub realtime.Publisher) *fakeStore {
	return &fakeStore{publisher: pub, records: make(map[string]domain.Bookmark)}
}

func (f *fakeStore) wait(ctx context.Context) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeStore) seed(b domain.Bookmark) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[b.ID] = b
}

func (f *fakeStore) Insert(ctx context.Context, ownerID, title, url string) (domain.Bookmark, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Bookmark{}, err
	}

	f.mu.Lock()
	if f.insertErr != nil {
		err := f.insertErr
		f.mu.Unlock()
		return domain.Bookmark{}, err
	}
	f.seq++
	b := domain.Bookmark{
		ID:        fmt.Sprintf("bm-%d", f.seq),
		OwnerID:   ownerID,
		Title:     title,
		URL:       url,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC),
	}
	f.records[b.ID] = b
	f.mu.Unlock()

	if f.publisher != nil {
		_ = f.publisher.Publish(ctx, realtime.Inserted(b))
	}
	return b, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	if f.deleteErr != nil {
		err := f.deleteErr
		f.mu.Unlock()
		return err
	}
	b, ok := f.records[id]
	delete(f.records, id)
	f.mu.Unlock()

	if ok && f.publisher != nil {
		_ = f.publisher.Publish(ctx, realtime.Deleted(b.OwnerID, id))
	}
	return nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []domain.Bookmark{}
	for _, b := range f.records {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return append(out, f.extra...), nil
}

type harness struct {
	store   *fakeStore
	channel *broadcast.Hub
	feed    *realtime.Hub
	mgr     *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNop()
	feed := realtime.NewHub(log)
	h := &harness{
		store:   newFakeStore(feed),
		channel: broadcast.NewHub(broadcast.DefaultName, log),
		feed:    feed,
	}
	h.mgr = NewManager(Deps{
		Persister: h.store,
		Channel:   h.channel,
		Listener:  h.feed,
		Logger:    log,
		Now:       func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() { _ = h.mgr.Close() })
	return h
}

func (h *harness) login(t *testing.T, userID string) *Session {
	t.Helper()
	s, err := h.mgr.Login(context.Background(), userID)
	if err != nil {
		t.Fatalf("Login(%q): %v", userID, err)
	}
	return s
}

func snapshot(t *testing.T, s *Session) []domain.Bookmark {
	t.Helper()
	out, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return out
}

func ids(records []domain.Bookmark) []string {
	out := make([]string, 0, len(records))
	for _, b := range records {
		out = append(out, b.ID)
	}
	return out
}

// eventually polls cond until it holds or a deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
