package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

// Store persists bookmarks in Redis and announces every committed write
// on a realtime.Publisher.
type Store struct {
	client    *redis.Client
	publisher realtime.Publisher
	logger    logger.Logger
	now       func() time.Time
}

// NewStore creates a new Redis store. publisher may be nil.
func NewStore(client *redis.Client, publisher realtime.Publisher, log logger.Logger) *Store {
	return &Store{
		client:    client,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// announce publishes c. The write is already committed, so a failed
// announcement is logged and not returned.
func (s *Store) announce(ctx context.Context, c realtime.Change) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c); err != nil {
		s.logger.Warn("failed to announce change",
			logger.String("kind", string(c.Kind)),
			logger.String("owner_id", c.OwnerID),
			logger.Error(err))
	}
}
