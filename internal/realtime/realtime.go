// Package realtime is the change feed of the persistent store: every
// committed insert or delete is announced to the subscribers of its owner.
package realtime

import (
	"context"
	"errors"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/fanout"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/redis"
)

// Kind is the kind of a persisted change.
type Kind string

const (
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
)

// ErrMalformed is returned by Validate for changes missing required fields.
var ErrMalformed = errors.New("malformed change event")

// Change describes one committed write.
type Change struct {
	Kind    Kind             `json:"kind"`
	OwnerID string           `json:"ownerId"`
	Record  *domain.Bookmark `json:"record,omitempty"`
	ID      string           `json:"id,omitempty"`
}

// Inserted builds the change for a stored record.
func Inserted(b domain.Bookmark) Change {
	return Change{Kind: KindInsert, OwnerID: b.OwnerID, Record: &b}
}

// Deleted builds the change for a removed record.
func Deleted(ownerID, id string) Change {
	return Change{Kind: KindDelete, OwnerID: ownerID, ID: id}
}

// Validate checks that c carries the fields its kind requires.
func (c Change) Validate() error {
	if c.OwnerID == "" {
		return ErrMalformed
	}
	switch c.Kind {
	case KindInsert:
		if c.Record == nil || c.Record.ID == "" {
			return ErrMalformed
		}
	case KindDelete:
		if c.ID == "" {
			return ErrMalformed
		}
	default:
		return ErrMalformed
	}
	return nil
}

// Publisher announces committed writes. Stores call it after each write.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Listener subscribes to the changes of one owner.
type Listener interface {
	Subscribe(ctx context.Context, ownerID string) (*Subscription, error)
}

// Subscription delivers changes on C until Close is called.
type Subscription struct {
	C <-chan Change

	once   sync.Once
	cancel func() error
}

// Close cancels the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() { err = s.cancel() })
	return err
}

// Hub is an in-process Publisher and Listener. A subscriber more than
// fanout.DefaultBuffer changes behind misses the overflow; a change missed
// this way stays missing in that session until its next login.
type Hub struct {
	hub *fanout.Hub[Change]
}

// NewHub creates an in-process change feed.
func NewHub(log logger.Logger) *Hub {
	return &Hub{hub: fanout.New[Change](fanout.DefaultBuffer, log)}
}

func (h *Hub) Publish(_ context.Context, c Change) error {
	h.hub.Publish(c.OwnerID, c)
	return nil
}

func (h *Hub) Subscribe(_ context.Context, ownerID string) (*Subscription, error) {
	ch, cancel := h.hub.Subscribe(ownerID)
	return &Subscription{C: ch, cancel: func() error { cancel(); return nil }}, nil
}

// RedisFeed is a Publisher and Listener over Redis pub/sub, one channel
// per owner.
type RedisFeed struct {
	client *goredis.Client
	logger logger.Logger
}

// NewRedisFeed creates a feed on client.
func NewRedisFeed(client *goredis.Client, log logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, logger: log}
}

// ChannelFor returns the pub/sub channel carrying ownerID's changes.
func ChannelFor(ownerID string) string {
	return "flare:changes:" + ownerID
}

func (f *RedisFeed) Publish(ctx context.Context, c Change) error {
	return redis.Publish(ctx, f.client, ChannelFor(c.OwnerID), c)
}

func (f *RedisFeed) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	sub, err := redis.Subscribe[Change](ctx, f.client, ChannelFor(ownerID), f.logger)
	if err != nil {
		return nil, err
	}
	return &Subscription{C: sub.C, cancel: sub.Close}, nil
}
