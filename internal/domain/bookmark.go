package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyTitle is returned when a submitted title is blank after trimming.
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrEmptyURL is returned when a submitted url is blank after trimming.
	ErrEmptyURL = errors.New("url must not be empty")
)

// Bookmark is a single saved URL owned by one user.
//
// A Bookmark is either confirmed (ID assigned by the persistent store) or
// provisional (temporary ID, inserted before the store acknowledged it).
// JSON names match the records exchanged with other tabs.
type Bookmark struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is unique within a collection.
	// Either a store-assigned id or a "temp-" placeholder.
	ID string `json:"id"`

	// OwnerID is the user the bookmark belongs to.
	// Fixed for every record of a session.
	OwnerID string `json:"user_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the non-empty display string.
	Title string `json:"title"`

	// URL is absolute and always carries a scheme.
	// Example: https://example.com
	URL string `json:"url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is assigned by the store, or by the client
	// while the record is provisional.
	CreatedAt time.Time `json:"created_at"`

	// Provisional is true only between the optimistic insert
	// and the confirmed-or-failed persistence call.
	Provisional bool `json:"isOptimistic,omitempty"`
}

// Draft is the user's add-form input after trimming and URL normalisation.
type Draft struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// IsZero reports whether the draft holds no input.
func (d Draft) IsZero() bool {
	return d.Title == "" && d.URL == ""
}

// NewDraft trims and validates an add request.
func NewDraft(title, rawURL string) (Draft, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Draft{}, ErrEmptyTitle
	}
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Title: title, URL: u}, nil
}

// NormalizeURL trims raw and prepends https:// when no http(s) scheme is present.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw, nil
	}
	return "https://" + raw, nil
}
