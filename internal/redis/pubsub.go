package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/logger"
)

// Publish JSON-encodes v and publishes it on channel.
func Publish(ctx context.Context, client *redis.Client, channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// Subscription is a decoded pub/sub feed. Messages are delivered on C in
// the order Redis delivered them; payloads that do not decode are dropped.
type Subscription[T any] struct {
	C <-chan T

	ps   *redis.PubSub
	once sync.Once
	done chan struct{}
}

// Subscribe listens on channel and decodes every payload into T.
// The subscription is confirmed with Redis before Subscribe returns.
func Subscribe[T any](ctx context.Context, client *redis.Client, channel string, log logger.Logger) (*Subscription[T], error) {
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan T)
	sub := &Subscription[T]{C: out, ps: ps, done: make(chan struct{})}

	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var v T
			if err := json.Unmarshal([]byte(msg.Payload), &v); err != nil {
				log.Debug("dropping undecodable pubsub payload",
					logger.String("channel", channel),
					logger.Error(err))
				continue
			}
			select {
			case out <- v:
			case <-sub.done:
				return
			}
		}
	}()

	return sub, nil
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription[T]) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
