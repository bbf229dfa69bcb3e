// Package netscape imports bookmarks from the Netscape bookmark HTML file
// that every browser produces on "export bookmarks".
package netscape

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/flare/internal/domain"
)

var (
	// ErrNoBookmarks is returned when a file yields nothing importable.
	ErrNoBookmarks = errors.New("no valid bookmarks found in export")
	// ErrUnsupportedScheme marks links such as place: or javascript: ones.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// Skipped records a link that could not be turned into a draft.
type Skipped struct {
	Folder string // slash separated folder path, empty at the top level
	Title  string
	Err    error
}

func (s Skipped) Error() string {
	return fmt.Sprintf("%s/%s: %v", s.Folder, s.Title, s.Err)
}

func (s Skipped) Unwrap() error { return s.Err }

// Loader reads a bookmark export file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Read parses the file into drafts.
func (l *Loader) Read() ([]domain.Draft, []error, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bookmark export: %w", err)
	}
	defer func() { _ = f.Close() }()

	drafts, skipped, err := Parse(f)
	errs := make([]error, len(skipped))
	for i, s := range skipped {
		errs[i] = s
	}
	return drafts, errs, err
}

// Parse walks the export in document order. Link text is the title,
// falling back to the href. Folder headings (H3) only label skipped
// entries. Repeated URLs are kept once.
func Parse(r io.Reader) (drafts []domain.Draft, skipped []Skipped, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse bookmark export: %w", err)
	}

	var (
		folders []string // open folder names
		pending string   // last heading, opened by the next DL
		seen    = make(map[string]bool)
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h3":
				pending = textContent(n)
				return
			case "a":
				href := strings.TrimSpace(attr(n, "href"))
				title := textContent(n)
				if title == "" {
					title = href
				}
				d, derr := draftFor(title, href)
				if derr != nil {
					skipped = append(skipped, Skipped{Folder: strings.Join(folders, "/"), Title: title, Err: derr})
					return
				}
				if !seen[d.URL] {
					seen[d.URL] = true
					drafts = append(drafts, d)
				}
				return
			case "dl":
				opened := pending != ""
				if opened {
					folders = append(folders, pending)
					pending = ""
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				if opened {
					folders = folders[:len(folders)-1]
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(drafts) == 0 {
		return nil, skipped, ErrNoBookmarks
	}
	return drafts, skipped, nil
}

// draftFor rejects hrefs with a scheme other than http(s); scheme-less
// values go through the usual https defaulting.
func draftFor(title, href string) (domain.Draft, error) {
	if u, err := url.Parse(href); err == nil && u.Scheme != "" {
		if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
			return domain.Draft{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, s)
		}
	}
	return domain.NewDraft(title, href)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}

// attr returns the value of key. The html parser lowercases attribute names.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
