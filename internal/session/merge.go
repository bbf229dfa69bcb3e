package session

import (
	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/identity"
	"github.com/MrSnakeDoc/flare/internal/index"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

// Reasons an inbound event was discarded.
const (
	ReasonSelfEcho    = "self_echo"
	ReasonForeignUser = "foreign_user"
	ReasonMalformed   = "malformed"
)

// Outcome describes what a merge did with an inbound event.
type Outcome struct {
	Applied bool
	Reason  string
}

func applied() Outcome                { return Outcome{Applied: true} }
func discarded(reason string) Outcome { return Outcome{Reason: reason} }

// Merger applies inbound broadcast and realtime events to a collection
// through Upsert and Remove only, so repeated delivery is harmless.
type Merger struct {
	TabID  string
	UserID string
}

// ApplyBroadcast merges a cross-tab message. Messages from this tab, for
// another user, or missing required fields are discarded.
func (m Merger) ApplyBroadcast(c *index.Collection, msg broadcast.Message) Outcome {
	if msg.TabID == m.TabID {
		return discarded(ReasonSelfEcho)
	}
	if err := msg.Validate(); err != nil {
		return discarded(ReasonMalformed)
	}
	if msg.UserID != m.UserID {
		return discarded(ReasonForeignUser)
	}

	switch msg.Type {
	case broadcast.TypeAdd:
		b := *msg.Bookmark
		if identity.IsTemp(b.ID) {
			return discarded(ReasonMalformed)
		}
		if b.OwnerID != m.UserID {
			return discarded(ReasonForeignUser)
		}
		b.Provisional = false
		c.Upsert(b)
	case broadcast.TypeDelete:
		c.Remove(msg.ID)
	}
	return applied()
}

// ApplyRemote merges a change from the persistent store's feed. Remote
// changes are never self-filtered: the echo of a local write is absorbed
// by idempotent Upsert and Remove.
func (m Merger) ApplyRemote(c *index.Collection, change realtime.Change) Outcome {
	if err := change.Validate(); err != nil {
		return discarded(ReasonMalformed)
	}
	if change.OwnerID != m.UserID {
		return discarded(ReasonForeignUser)
	}

	switch change.Kind {
	case realtime.KindInsert:
		b := *change.Record
		if b.OwnerID != m.UserID {
			return discarded(ReasonForeignUser)
		}
		b.Provisional = false
		c.Upsert(b)
	case realtime.KindDelete:
		c.Remove(change.ID)
	}
	return applied()
}
