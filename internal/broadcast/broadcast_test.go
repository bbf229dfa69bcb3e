package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/logger"
)

func TestValidate(t *testing.T) {
	b := domain.Bookmark{ID: "r1", OwnerID: "u1", Title: "Docs", URL: "https://example.com"}

	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "add", msg: AddMessage("tab", "u1", b)},
		{name: "delete", msg: DeleteMessage("tab", "u1", "r1")},
		{name: "add without bookmark", msg: Message{Type: TypeAdd, TabID: "tab", UserID: "u1"}, wantErr: true},
		{name: "add with empty id", msg: AddMessage("tab", "u1", domain.Bookmark{}), wantErr: true},
		{name: "delete without id", msg: Message{Type: TypeDelete, TabID: "tab", UserID: "u1"}, wantErr: true},
		{name: "unknown type", msg: Message{Type: "bookmark_edit", TabID: "tab", UserID: "u1", ID: "r1"}, wantErr: true},
		{name: "missing tab", msg: DeleteMessage("", "u1", "r1"), wantErr: true},
		{name: "missing user", msg: DeleteMessage("tab", "", "r1"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case m := <-sub.C:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func exerciseChannel(t *testing.T, ch Channel) {
	ctx := context.Background()

	a, err := ch.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer a.Close()
	b, err := ch.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer b.Close()

	bm := domain.Bookmark{ID: "r1", OwnerID: "u1", Title: "Docs", URL: "https://example.com"}
	if err := ch.Post(ctx, AddMessage("tab-a", "u1", bm)); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if err := ch.Post(ctx, DeleteMessage("tab-a", "u1", "r1")); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	for _, sub := range []*Subscription{a, b} {
		first := receive(t, sub)
		if first.Type != TypeAdd || first.Bookmark == nil || first.Bookmark.ID != "r1" {
			t.Errorf("first message = %+v, want bookmark_add r1", first)
		}
		second := receive(t, sub)
		if second.Type != TypeDelete || second.ID != "r1" {
			t.Errorf("second message = %+v, want bookmark_delete r1", second)
		}
	}
}

func TestHub(t *testing.T) {
	exerciseChannel(t, NewHub(DefaultName, logger.NewNop()))
}

func TestRedisChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseChannel(t, NewRedisChannel(client, DefaultName, logger.NewNop()))
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	h := NewHub(DefaultName, logger.NewNop())
	sub, _ := h.Subscribe(context.Background())

	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed")
	}
}
