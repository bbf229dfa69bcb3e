package homepage

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/flare/internal/domain"
)

// ErrNoBookmarks is returned when a file yields nothing importable.
var ErrNoBookmarks = errors.New("no valid bookmarks found in config")

// Skipped records an entry that could not be turned into a draft.
type Skipped struct {
	Group string
	Name  string
	Err   error
}

func (s Skipped) Error() string { return fmt.Sprintf("%s/%s: %v", s.Group, s.Name, s.Err) }
func (s Skipped) Unwrap() error { return s.Err }

// MapDrafts converts a bookmarks config into add-form drafts in file order
// of groups, bookmark names sorted within a group. The bookmark name is the
// title, falling back to abbr. Entries without a usable href are reported
// in skipped; repeated URLs are kept once.
func MapDrafts(config BookmarksConfig) (drafts []domain.Draft, skipped []Skipped, err error) {
	seen := make(map[string]bool)

	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			for _, bookmarkMap := range group[groupName] {
				for _, name := range sortedKeys(bookmarkMap) {
					entries := bookmarkMap[name]
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					title := name
					if title == "" {
						title = entry.Abbr
					}

					d, derr := domain.NewDraft(title, entry.Href)
					if derr != nil {
						skipped = append(skipped, Skipped{Group: groupName, Name: name, Err: derr})
						continue
					}
					if seen[d.URL] {
						continue
					}
					seen[d.URL] = true
					drafts = append(drafts, d)
				}
			}
		}
	}

	if len(drafts) == 0 {
		return nil, skipped, ErrNoBookmarks
	}
	return drafts, skipped, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
