package domain

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Sort orders accepted by View.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

// Date windows accepted by View.
const (
	DateAll   = "all"
	DateToday = "today"
	DateWeek  = "week"
	DateMonth = "month"
)

// AllDomains is the folder entry that disables domain filtering.
const AllDomains = "all"

const (
	maxFolders   = 8
	recentWindow = 7 * 24 * time.Hour
)

// DomainLabel is the short site name shown for a bookmark, e.g. "Github".
type DomainLabel string

// ParseDomain derives the display label of u: the first hostname label
// without a leading "www.", capitalised. It reports false when u has no host.
func ParseDomain(u string) (DomainLabel, bool) {
	key, ok := domainKey(u)
	if !ok {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(key)
	return DomainLabel(string(unicode.ToUpper(r)) + key[size:]), true
}

// domainKey returns the lowercased first hostname label of u.
func domainKey(u string) (string, bool) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "", false
	}
	return label, true
}

// View is the stateless filter/sort applied to a collection snapshot
// before it is rendered.
type View struct {
	Query  string // substring of title or url, case-insensitive
	Domain string // folder label or "all"
	Date   string // all | today | week | month
	Sort   string // newest | oldest | title
}

// Apply returns the records matching v, ordered by v.Sort.
// Records with equal sort keys keep their arrival order.
func (v View) Apply(records []Bookmark, now time.Time) []Bookmark {
	query := strings.ToLower(strings.TrimSpace(v.Query))
	folder := strings.ToLower(strings.TrimSpace(v.Domain))

	out := make([]Bookmark, 0, len(records))
	for _, b := range records {
		if query != "" &&
			!strings.Contains(strings.ToLower(b.Title), query) &&
			!strings.Contains(strings.ToLower(b.URL), query) {
			continue
		}
		if folder != "" && folder != AllDomains {
			key, ok := domainKey(b.URL)
			if !ok || key != folder {
				continue
			}
		}
		if !matchesDate(v.Date, b.CreatedAt, now) {
			continue
		}
		out = append(out, b)
	}

	switch v.Sort {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

func matchesDate(window string, created, now time.Time) bool {
	// Whole days elapsed, floored: a record stamped ahead of now is day -1.
	days := int(math.Floor(now.Sub(created).Hours() / 24))
	switch window {
	case DateToday:
		return days == 0
	case DateWeek:
		return days <= 7
	case DateMonth:
		return days <= 30
	default:
		return true
	}
}

// Folders lists "all" followed by the distinct domain labels of records,
// in first-seen order, capped at eight entries.
func Folders(records []Bookmark) []string {
	folders := []string{AllDomains}
	seen := make(map[DomainLabel]bool)
	for _, b := range records {
		label, ok := ParseDomain(b.URL)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		folders = append(folders, string(label))
		if len(folders) == maxFolders {
			break
		}
	}
	return folders
}

// Stats summarises a collection for the dashboard header.
type Stats struct {
	Total   int `json:"total"`
	Folders int `json:"folders"`
	Recent  int `json:"recent"`
}

// ComputeStats counts confirmed records, distinct domains, and confirmed
// records created within the last seven days.
func ComputeStats(records []Bookmark, now time.Time) Stats {
	var st Stats
	domains := make(map[string]bool)
	for _, b := range records {
		if key, ok := domainKey(b.URL); ok {
			domains[key] = true
		}
		if b.Provisional {
			continue
		}
		st.Total++
		if b.CreatedAt.After(now.Add(-recentWindow)) {
			st.Recent++
		}
	}
	st.Folders = len(domains)
	return st
}
