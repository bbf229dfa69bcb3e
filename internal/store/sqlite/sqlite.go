package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/flare/internal/domain"
	"github.com/MrSnakeDoc/flare/internal/logger"
	"github.com/MrSnakeDoc/flare/internal/realtime"
)

// timeLayout is fixed-width so created_at sorts correctly as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists bookmarks in a SQLite database and announces every
// committed write on a realtime.Publisher.
type Store struct {
	db        *sql.DB
	path      string
	publisher realtime.Publisher
	logger    logger.Logger
	now       func() time.Time
}

// Open opens (or creates) the database at path and migrates it.
// publisher may be nil.
func Open(path string, publisher realtime.Publisher, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db, path: path, publisher: publisher, logger: log, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		// Table missing or empty: fresh database
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY NOT NULL,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bookmarks_owner_created ON bookmarks(owner_id, created_at);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a new bookmark for ownerID and returns it with its
// store-assigned id and creation time.
func (s *Store) Insert(ctx context.Context, ownerID, title, url string) (domain.Bookmark, error) {
	b := domain.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		URL:       url,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, owner_id, title, url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.OwnerID, b.Title, b.URL, b.CreatedAt.Format(timeLayout))
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}

	s.announce(ctx, realtime.Inserted(b))
	return b, nil
}

// Delete removes a bookmark. Deleting an id that is not stored succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	var ownerID string
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM bookmarks WHERE id = ? RETURNING owner_id
	`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}

	s.announce(ctx, realtime.Deleted(ownerID, id))
	return nil
}

// ListByOwner returns every bookmark of ownerID, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, url, created_at
		FROM bookmarks
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		var b domain.Bookmark
		var createdAt string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Title, &b.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		b.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", b.ID, err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *Store) announce(ctx context.Context, c realtime.Change) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c); err != nil {
		s.logger.Warn("failed to announce change",
			logger.String("kind", string(c.Kind)),
			logger.String("owner_id", c.OwnerID),
			logger.Error(err))
	}
}
