package session

import (
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/flare/internal/broadcast"
	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/index"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

func bm(id, owner string) domain.Bookmark {
	return domain.Bookmark{ID: id, OwnerID: owner, Title: id, URL: "https://" + id + ".example", CreatedAt: time.Unix(0, 0).UTC()}
}

func TestApplyBroadcast(t *testing.T) {
	m := Merger{TabID: "tab-self", UserID: "u1"}
	rec := bm("r1", "u1")
	foreignRec := bm("r9", "u2")
	provisional := bm("r2", "u1")
	provisional.Provisional = true
	temp := bm(identityTemp(), "u1")

	tests := []struct {
		name    string
		seed    []domain.Bookmark
		msg     broadcast.Message
		want    Outcome
		wantIDs []string
	}{
		{"self echo", nil, broadcast.AddMessage("tab-self", "u1", rec), discarded(ReasonSelfEcho), []string{}},
		{"other user", nil, broadcast.AddMessage("tab-2", "u2", foreignRec), discarded(ReasonForeignUser), []string{}},
		{"owner mismatch", nil, broadcast.AddMessage("tab-2", "u1", foreignRec), discarded(ReasonForeignUser), []string{}},
		{"missing bookmark", nil, broadcast.Message{Type: broadcast.TypeAdd, TabID: "tab-2", UserID: "u1"}, discarded(ReasonMalformed), []string{}},
		{"unknown type", nil, broadcast.Message{Type: "bookmark_edit", TabID: "tab-2", UserID: "u1", ID: "r1"}, discarded(ReasonMalformed), []string{}},
		{"temp id", nil, broadcast.AddMessage("tab-2", "u1", temp), discarded(ReasonMalformed), []string{}},
		{"add", nil, broadcast.AddMessage("tab-2", "u1", rec), applied(), []string{"r1"}},
		{"add duplicate", []domain.Bookmark{rec}, broadcast.AddMessage("tab-2", "u1", rec), applied(), []string{"r1"}},
		{"add clears provisional flag", nil, broadcast.AddMessage("tab-2", "u1", provisional), applied(), []string{"r2"}},
		{"delete", []domain.Bookmark{rec}, broadcast.DeleteMessage("tab-2", "u1", "r1"), applied(), []string{}},
		{"delete absent", nil, broadcast.DeleteMessage("tab-2", "u1", "r1"), applied(), []string{}},
		{"delete from self", []domain.Bookmark{rec}, broadcast.DeleteMessage("tab-self", "u1", "r1"), discarded(ReasonSelfEcho), []string{"r1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := index.NewCollection()
			c.Load(tt.seed)
			got := m.ApplyBroadcast(c, tt.msg)
			if got != tt.want {
				t.Fatalf("outcome = %+v, want %+v", got, tt.want)
			}
			snap := c.Snapshot()
			if gotIDs := ids(snap); !reflect.DeepEqual(gotIDs, tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", gotIDs, tt.wantIDs)
			}
			for _, b := range snap {
				if b.Provisional && tt.want.Applied && len(tt.seed) == 0 {
					t.Fatalf("merged record %s is provisional", b.ID)
				}
			}
		})
	}
}

func TestApplyRemote(t *testing.T) {
	m := Merger{TabID: "tab-self", UserID: "u1"}
	rec := bm("r1", "u1")

	tests := []struct {
		name    string
		seed    []domain.Bookmark
		change  realtime.Change
		want    Outcome
		wantIDs []string
	}{
		{"insert", nil, realtime.Inserted(rec), applied(), []string{"r1"}},
		{"insert duplicate", []domain.Bookmark{rec}, realtime.Inserted(rec), applied(), []string{"r1"}},
		{"foreign owner", nil, realtime.Inserted(bm("r9", "u2")), discarded(ReasonForeignUser), []string{}},
		{"record owner differs", nil, realtime.Change{Kind: realtime.KindInsert, OwnerID: "u1", Record: ptr(bm("r9", "u2"))}, discarded(ReasonForeignUser), []string{}},
		{"malformed", nil, realtime.Change{Kind: realtime.KindInsert, OwnerID: "u1"}, discarded(ReasonMalformed), []string{}},
		{"delete", []domain.Bookmark{rec}, realtime.Deleted("u1", "r1"), applied(), []string{}},
		{"delete absent", nil, realtime.Deleted("u1", "r1"), applied(), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := index.NewCollection()
			c.Load(tt.seed)
			if got := m.ApplyRemote(c, tt.change); got != tt.want {
				t.Fatalf("outcome = %+v, want %+v", got, tt.want)
			}
			if gotIDs := ids(c.Snapshot()); !reflect.DeepEqual(gotIDs, tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", gotIDs, tt.wantIDs)
			}
		})
	}
}

// The realtime echo of a local insert can arrive before the insert
// returns. Replace must then leave a single confirmed record.
func TestRemoteEchoBeforeConfirm(t *testing.T) {
	m := Merger{TabID: "tab-self", UserID: "u1"}
	c := index.NewCollection()

	temp := bm(identityTemp(), "u1")
	temp.Provisional = true
	c.Upsert(temp)

	confirmed := bm("r1", "u1")
	m.ApplyRemote(c, realtime.Inserted(confirmed))
	got := c.Replace(temp.ID, confirmed)

	if len(got) != 1 || got[0].ID != "r1" || got[0].Provisional {
		t.Fatalf("after echo and replace = %+v", got)
	}
}

func identityTemp() string { return "temp-1-1-abcdefghi" }

func ptr(b domain.Bookmark) *domain.Bookmark { return &b }
