package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

// Insert stores a new bookmark for ownerID and returns it with its
// store-assigned id and creation time.
func (s *Store) Insert(ctx context.Context, ownerID, title, url string) (domain.Bookmark, error) {
	bookmark := domain.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		URL:       url,
		CreatedAt: s.now().UTC(),
	}

	data, err := json.Marshal(bookmark)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	// Record and owner index are written together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
	pipe.SAdd(ctx, OwnerKey(ownerID), bookmark.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", err)
	}

	s.announce(ctx, realtime.Inserted(bookmark))
	return bookmark, nil
}

// Get retrieves a bookmark by ID
func (s *Store) Get(ctx context.Context, id string) (domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Bookmark{}, fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
		}
		return domain.Bookmark{}, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	return bookmark, nil
}

// Delete removes a bookmark. Deleting an id that is not stored succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	bookmark, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, BookmarkKey(id))
	pipe.SRem(ctx, OwnerKey(bookmark.OwnerID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	s.announce(ctx, realtime.Deleted(bookmark.OwnerID, id))
	return nil
}

// ListByOwner returns every bookmark of ownerID, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, OwnerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, BookmarkKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Set member whose record is gone
			continue
		}
		var bookmark domain.Bookmark
		if err := json.Unmarshal(data, &bookmark); err != nil {
			s.logger.Warn("skipping undecodable bookmark",
				logger.String("bookmark_id", ids[i]),
				logger.Error(err))
			continue
		}
		if bookmark.ID == "" {
			bookmark.ID = ids[i]
		}
		bookmarks = append(bookmarks, bookmark)
	}

	sort.SliceStable(bookmarks, func(i, j int) bool {
		return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
	})
	return bookmarks, nil
}
