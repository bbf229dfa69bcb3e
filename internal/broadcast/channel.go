package broadcast

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/fanout"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/redis"
)

// DefaultName is the channel name shared by every session.
const DefaultName = "webwise-sync"

// Channel is a best-effort, in-order transport for Messages.
// Every subscriber receives every posted message, including its own.
type Channel interface {
	Post(ctx context.Context, m Message) error
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Subscription delivers inbound messages on C until Close is called.
type Subscription struct {
	C <-chan Message

	once   sync.Once
	cancel func() error
}

// Close stops delivery. Safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() { err = s.cancel() })
	return err
}

// Hub is an in-process Channel shared by sessions of one server.
type Hub struct {
	name string
	hub  *fanout.Hub[Message]
}

// NewHub creates an in-process channel called name.
func NewHub(name string, log logger.Logger) *Hub {
	return &Hub{name: name, hub: fanout.New[Message](fanout.DefaultBuffer, log)}
}

func (h *Hub) Post(_ context.Context, m Message) error {
	h.hub.Publish(h.name, m)
	return nil
}

func (h *Hub) Subscribe(_ context.Context) (*Subscription, error) {
	ch, cancel := h.hub.Subscribe(h.name)
	return &Subscription{C: ch, cancel: func() error { cancel(); return nil }}, nil
}

// RedisChannel is a Channel over Redis pub/sub, shared by every server
// pointed at the same Redis.
type RedisChannel struct {
	client  *goredis.Client
	channel string
	logger  logger.Logger
}

// NewRedisChannel creates a channel published on "flare:broadcast:<name>".
func NewRedisChannel(client *goredis.Client, name string, log logger.Logger) *RedisChannel {
	return &RedisChannel{client: client, channel: "flare:broadcast:" + name, logger: log}
}

func (r *RedisChannel) Post(ctx context.Context, m Message) error {
	return redis.Publish(ctx, r.client, r.channel, m)
}

func (r *RedisChannel) Subscribe(ctx context.Context) (*Subscription, error) {
	sub, err := redis.Subscribe[Message](ctx, r.client, r.channel, r.logger)
	if err != nil {
		return nil, err
	}
	return &Subscription{C: sub.C, cancel: sub.Close}, nil
}
