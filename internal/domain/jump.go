package domain

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	// Jump scoring tiers, title matches first
	ScoreExactMatch     = 300.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0

	// Position bonus (earlier substring is better)
	ScorePositionBonus = 10.0

	// Fuzzy matches score ScoreFuzzyCeiling/rank
	ScoreFuzzyCeiling = 25.0
)

// JumpCandidate is a bookmark ranked against a jump query.
type JumpCandidate struct {
	Bookmark Bookmark
	Score    float64
}

// jumpSource exposes bookmarks to the fuzzy matcher as "title url" strings.
type jumpSource []Bookmark

func (s jumpSource) String(i int) string { return s[i].Title + " " + s[i].URL }
func (s jumpSource) Len() int            { return len(s) }

// ScoreTitle scores query against a bookmark title: exact, prefix, then
// substring. Zero means no direct match.
func ScoreTitle(query, title string) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	title = strings.ToLower(strings.TrimSpace(title))
	if query == "" || title == "" {
		return 0
	}

	switch {
	case query == title:
		return ScoreExactMatch
	case strings.HasPrefix(title, query):
		return ScorePrefixMatch
	}

	if i := strings.Index(title, query); i >= 0 {
		return ScoreSubstringMatch + ScorePositionBonus*(1-float64(i)/float64(len(title)))
	}
	return 0
}

// RankJump returns the confirmed bookmarks matching query, best match
// first. Direct title matches outrank fuzzy matches on "title url".
func RankJump(query string, records []Bookmark) []JumpCandidate {
	query = strings.TrimSpace(query)
	if query == "" || len(records) == 0 {
		return nil
	}

	confirmed := make([]Bookmark, 0, len(records))
	for _, b := range records {
		if !b.Provisional {
			confirmed = append(confirmed, b)
		}
	}

	scores := make(map[int]float64, len(confirmed))
	for i, b := range confirmed {
		if s := ScoreTitle(query, b.Title); s > 0 {
			scores[i] = s
		}
	}

	// FindFrom returns matches best first; keep that order below the
	// direct matches.
	for rank, m := range fuzzy.FindFrom(query, jumpSource(confirmed)) {
		if _, direct := scores[m.Index]; direct {
			continue
		}
		scores[m.Index] = ScoreFuzzyCeiling / float64(rank+1)
	}

	candidates := make([]JumpCandidate, 0, len(scores))
	for i, s := range scores {
		candidates = append(candidates, JumpCandidate{Bookmark: confirmed[i], Score: s})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Bookmark.CreatedAt.After(candidates[j].Bookmark.CreatedAt)
	})
	return candidates
}

// BestJump returns the best match for query.
func BestJump(query string, records []Bookmark) (Bookmark, bool) {
	c := RankJump(query, records)
	if len(c) == 0 {
		return Bookmark{}, false
	}
	return c[0].Bookmark, true
}
