package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis, *realtime.Hub) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := realtime.NewHub(logger.NewNop())
	return NewStore(client, hub, logger.NewNop()), mr, hub
}

func TestInsertAndList(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	calls := 0
	store.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	}

	first, err := store.Insert(ctx, "u1", "Docs", "https://example.com")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	second, err := store.Insert(ctx, "u1", "News", "https://news.ycombinator.com")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := store.Insert(ctx, "u2", "Other", "https://other.example"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("Insert() ids %q and %q should be distinct and non-empty", first.ID, second.ID)
	}
	if first.OwnerID != "u1" || first.Provisional {
		t.Errorf("Insert() = %+v, want confirmed record owned by u1", first)
	}

	list, err := store.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListByOwner() returned %d bookmarks, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("ListByOwner() should be newest first, got %s then %s", list[0].Title, list[1].Title)
	}
}

func TestListByOwnerEmpty(t *testing.T) {
	store, _, _ := newTestStore(t)

	list, err := store.ListByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("ListByOwner() = %v, want empty non-nil slice", list)
	}
}

func TestDelete(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()

	b, err := store.Insert(ctx, "u1", "Docs", "https://example.com")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := store.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists(BookmarkKey(b.ID)) {
		t.Error("Delete() left the bookmark key behind")
	}
	if _, err := store.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}

	// Deleting again is not an error
	if err := store.Delete(ctx, b.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestWritesAreAnnounced(t *testing.T) {
	store, _, hub := newTestStore(t)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	b, err := store.Insert(ctx, "u1", "Docs", "https://example.com")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if c := <-sub.C; c.Kind != realtime.KindInsert || c.Record.ID != b.ID {
		t.Errorf("first change = %+v, want insert %s", c, b.ID)
	}
	if c := <-sub.C; c.Kind != realtime.KindDelete || c.ID != b.ID {
		t.Errorf("second change = %+v, want delete %s", c, b.ID)
	}
}

func TestInsertFailsWhenRedisDown(t *testing.T) {
	store, mr, _ := newTestStore(t)
	mr.Close()

	if _, err := store.Insert(context.Background(), "u1", "Docs", "https://example.com"); err == nil {
		t.Error("Insert() with redis down should fail")
	}
}
