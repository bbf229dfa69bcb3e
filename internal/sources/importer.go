// Package sources imports bookmark files into a session. Homepage YAML
// files and browser HTML exports are understood.
package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/sources/homepage"
	"github.com/MrSnakeDoc/flare/internal/sources/netscape"
)

// Reader turns one bookmarks file into drafts. Entries that cannot be
// imported come back in skipped; err is for the file as a whole.
type Reader interface {
	Path() string
	Read() (drafts []domain.Draft, skipped []error, err error)
}

// ReaderFor picks the reader by file extension: .html and .htm are browser
// exports, anything else is a homepage bookmarks.yaml.
func ReaderFor(path string) Reader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return netscape.NewLoader(path)
	default:
		return homepage.NewLoader(path)
	}
}

// Target is the session bookmarks are imported into.
type Target interface {
	Snapshot(ctx context.Context) ([]domain.Bookmark, error)
	Add(ctx context.Context, title, url string) (domain.Bookmark, error)
}

// Result summarises an import run.
type Result struct {
	Added   int
	Present int
	Invalid int
	Failed  int
}

// Importer feeds a bookmarks file through a session's Add command.
type Importer struct {
	reader Reader
	logger logger.Logger
}

// NewImporter creates an importer for the file at path.
func NewImporter(path string, log logger.Logger) *Importer {
	return &Importer{reader: ReaderFor(path), logger: log}
}

// Path returns the imported file.
func (im *Importer) Path() string { return im.reader.Path() }

// Run adds every bookmark of the file whose URL the target does not hold
// yet. Individual add failures are counted and logged, not returned.
func (im *Importer) Run(ctx context.Context, target Target) (Result, error) {
	var res Result

	drafts, skipped, err := im.reader.Read()
	res.Invalid = len(skipped)
	for _, s := range skipped {
		im.logger.Warn("skipping bookmark", logger.Error(s))
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", im.reader.Path(), err)
	}

	existing, err := target.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("read current bookmarks: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, b := range existing {
		present[b.URL] = true
	}

	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if present[d.URL] {
			res.Present++
			continue
		}
		if _, err := target.Add(ctx, d.Title, d.URL); err != nil {
			res.Failed++
			im.logger.Warn("import add failed",
				logger.String("title", d.Title),
				logger.String("url", d.URL),
				logger.Error(err),
			)
			continue
		}
		present[d.URL] = true
		res.Added++
	}

	im.logger.Info("bookmark import finished",
		logger.String("file", im.reader.Path()),
		logger.Int("added", res.Added),
		logger.Int("present", res.Present),
		logger.Int("invalid", res.Invalid),
		logger.Int("failed", res.Failed),
	)
	return res, nil
}
