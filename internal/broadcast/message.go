// Package broadcast carries lightweight bookmark change notices between
// sessions of the same user, the server-side counterpart of a same-origin
// BroadcastChannel shared by browser tabs.
package broadcast

import (
	"errors"

	"github.com/MrSnakeDoc/flare/internal/domain"
)

// Message types.
const (
	TypeAdd    = "bookmark_add"
	TypeDelete = "bookmark_delete"
)

// ErrMalformed is returned by Validate for messages missing required fields.
var ErrMalformed = errors.New("malformed broadcast message")

// Message is the cross-tab wire schema.
type Message struct {
	Type     string           `json:"type"`
	TabID    string           `json:"tabId"`
	UserID   string           `json:"userId"`
	Bookmark *domain.Bookmark `json:"bookmark,omitempty"`
	ID       string           `json:"id,omitempty"`
}

// AddMessage announces a confirmed bookmark.
func AddMessage(tabID, userID string, b domain.Bookmark) Message {
	return Message{Type: TypeAdd, TabID: tabID, UserID: userID, Bookmark: &b}
}

// DeleteMessage announces the removal of id.
func DeleteMessage(tabID, userID, id string) Message {
	return Message{Type: TypeDelete, TabID: tabID, UserID: userID, ID: id}
}

// Validate checks that m carries the fields its type requires.
func (m Message) Validate() error {
	if m.TabID == "" || m.UserID == "" {
		return ErrMalformed
	}
	switch m.Type {
	case TypeAdd:
		if m.Bookmark == nil || m.Bookmark.ID == "" {
			return ErrMalformed
		}
	case TypeDelete:
		if m.ID == "" {
			return ErrMalformed
		}
	default:
		return ErrMalformed
	}
	return nil
}
