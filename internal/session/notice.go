package session

import "time"

// Notice kinds.
const (
	NoticeAddFailed    = "add_failed"
	NoticeDeleteFailed = "delete_failed"
)

// maxNotices bounds the notices kept per session; older ones are dropped.
const maxNotices = 50

// Notice is a user-visible, non-fatal failure report.
type Notice struct {
	Kind       string    `json:"kind"`
	BookmarkID string    `json:"bookmarkId,omitempty"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// notify appends n. Must run on the reconciler.
func (s *Session) notify(n Notice) {
	s.notices = append(s.notices, n)
	if over := len(s.notices) - maxNotices; over > 0 {
		s.notices = append([]Notice(nil), s.notices[over:]...)
	}
}
