package session

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/identity"
	"github.com/MrSnakeDoc/flare/internal/logger"
)

const (
	addFailedMessage    = "Failed to add bookmark. Please try again."
	deleteFailedMessage = "Failed to delete bookmark. It has been restored."
)

// Add shows a provisional record immediately, persists it and then swaps
// in the confirmed record. On a persistence failure the provisional record
// is removed, a notice is recorded and a *PersistenceError is returned.
func (s *Session) Add(ctx context.Context, title, rawURL string) (domain.Bookmark, error) {
	draft, err := domain.NewDraft(title, rawURL)
	if err != nil {
		return domain.Bookmark{}, err
	}

	tempID := s.ids.TempID()
	if err := s.do(ctx, func() {
		s.draft, s.draftID = draft, tempID
		s.items.Upsert(domain.Bookmark{
			ID:          tempID,
			OwnerID:     s.userID,
			Title:       draft.Title,
			URL:         draft.URL,
			CreatedAt:   s.now().UTC(),
			Provisional: true,
		})
	}); err != nil {
		return domain.Bookmark{}, err
	}

	// The rest must land even if the caller goes away.
	settle := context.WithoutCancel(ctx)

	confirmed, perr := s.persist.Insert(ctx, s.userID, draft.Title, draft.URL)
	if perr == nil && confirmed.OwnerID != s.userID {
		perr = errors.New("store returned a record for another owner")
	}
	if perr != nil {
		pe := &PersistenceError{Op: OpInsert, ID: tempID, Err: perr}
		s.logger.Warn("add failed",
			logger.String("temp_id", tempID),
			logger.Error(perr),
		)
		if err := s.do(settle, func() {
			s.items.Remove(tempID)
			s.draft, s.draftID = draft, tempID
			s.notify(Notice{Kind: NoticeAddFailed, Message: addFailedMessage, At: s.now().UTC()})
		}); err != nil {
			return domain.Bookmark{}, err
		}
		return domain.Bookmark{}, pe
	}

	confirmed.Provisional = false
	if err := s.do(settle, func() {
		s.items.Replace(tempID, confirmed)
		// A later Add owns the draft now; leave its input alone.
		if s.draftID == tempID {
			s.draft, s.draftID = domain.Draft{}, ""
		}
	}); err != nil {
		return domain.Bookmark{}, err
	}

	s.post(settle, broadcast.AddMessage(s.tabID, s.userID, confirmed))
	return confirmed, nil
}

// Delete removes a persisted record immediately and then deletes it from
// the store. On failure the record is restored, a notice is recorded and a
// *PersistenceError is returned. Provisional and unknown ids are rejected
// without side effects.
func (s *Session) Delete(ctx context.Context, id string) error {
	if identity.IsTemp(id) {
		return ErrProvisional
	}

	var captured domain.Bookmark
	var rejected error
	if err := s.do(ctx, func() {
		b, ok := s.items.Get(id)
		switch {
		case !ok:
			rejected = ErrNotFound
		case b.Provisional:
			rejected = ErrProvisional
		default:
			captured = b
			s.items.Remove(id)
		}
	}); err != nil {
		return err
	}
	if rejected != nil {
		return rejected
	}

	settle := context.WithoutCancel(ctx)

	// Sent before the store confirms; a failed delete is not retracted.
	s.post(settle, broadcast.DeleteMessage(s.tabID, s.userID, id))

	if perr := s.persist.Delete(ctx, id); perr != nil {
		s.logger.Warn("delete failed",
			logger.String("bookmark_id", id),
			logger.Error(perr),
		)
		if err := s.do(settle, func() {
			s.items.Upsert(captured)
			s.notify(Notice{Kind: NoticeDeleteFailed, BookmarkID: id, Message: deleteFailedMessage, At: s.now().UTC()})
		}); err != nil {
			return err
		}
		return &PersistenceError{Op: OpDelete, ID: id, Err: perr}
	}
	return nil
}

// post is best effort. A lost broadcast is usually repaired by the realtime
// feed, which is itself lossy under backpressure; the next login reloads.
func (s *Session) post(ctx context.Context, m broadcast.Message) {
	if s.channel == nil {
		return
	}
	if err := s.channel.Post(ctx, m); err != nil {
		s.logger.Warn("broadcast failed",
			logger.String("type", m.Type),
			logger.Error(err),
		)
	}
}
