package index

import (
	"github.com/MrSnakeDoc/flare/internal/domain"
)

// Collection is the in-memory set of bookmarks rendered for one session.
//
// It is the single point of mutation for those records. It does no locking:
// the owning session's reconciler is its only caller, so every operation
// runs to completion before the next one starts.
type Collection struct {
	order []string                    // ids in arrival order
	byID  map[string]*domain.Bookmark // ID -> Bookmark
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		byID: make(map[string]*domain.Bookmark),
	}
}

// Upsert inserts b unless a record with the same ID is already present,
// in which case the call is a no-op. Returns the resulting records.
func (c *Collection) Upsert(b domain.Bookmark) []domain.Bookmark {
	c.insert(b)
	return c.Snapshot()
}

// Remove deletes the record with id. Absent ids are a no-op.
// Returns the resulting records.
func (c *Collection) Remove(id string) []domain.Bookmark {
	c.delete(id)
	return c.Snapshot()
}

// Replace removes oldID and inserts b in one step.
// If a record with b.ID already arrived through another channel only the
// removal takes effect; the existing record is left untouched.
func (c *Collection) Replace(oldID string, b domain.Bookmark) []domain.Bookmark {
	c.delete(oldID)
	c.insert(b)
	return c.Snapshot()
}

// Snapshot returns a copy of the records in arrival order.
func (c *Collection) Snapshot() []domain.Bookmark {
	out := make([]domain.Bookmark, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// Get returns the record with id.
func (c *Collection) Get(id string) (domain.Bookmark, bool) {
	b, ok := c.byID[id]
	if !ok {
		return domain.Bookmark{}, false
	}
	return *b, true
}

// Has reports whether a record with id is present.
func (c *Collection) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.order)
}

// Load upserts every record of an initial fetch.
func (c *Collection) Load(records []domain.Bookmark) {
	for _, b := range records {
		c.insert(b)
	}
}

// Purge drops every record. Used on logout.
func (c *Collection) Purge() {
	c.order = nil
	c.byID = make(map[string]*domain.Bookmark)
}

func (c *Collection) insert(b domain.Bookmark) {
	if _, exists := c.byID[b.ID]; exists {
		return
	}
	c.byID[b.ID] = &b
	c.order = append(c.order, b.ID)
}

func (c *Collection) delete(id string) {
	if _, exists := c.byID[id]; !exists {
		return
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
