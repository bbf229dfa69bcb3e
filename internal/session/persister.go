package session

import (
	"context"

	"github.com/MrSnakeDoc/flare/internal/domain"
)

// Persister is the authoritative bookmark store.
type Persister interface {
	Insert(ctx context.Context, ownerID, title, url string) (domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
}
