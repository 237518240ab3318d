// Package sqlite persists quotes and page tokens in an embedded SQLite
// database using modernc.org/sqlite, a pure Go driver that needs no CGO.
//
// The schema is managed through versioned migrations embedded in the binary
// and applied at startup. The database runs in WAL mode, so all operations
// are safe for concurrent use through a single *sql.DB.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jsamuelsen/quote-vault/internal/adapters/storage/sqlite/migrations"
)

// Config holds store settings.
type Config struct {
	// Path is the database file location. The parent directory is created
	// if missing. Use ":memory:" for an in-process database in tests.
	Path string

	// BusyTimeout is how long SQLite waits on a locked database before
	// returning SQLITE_BUSY.
	BusyTimeout time.Duration

	// TokenTTL is how long an issued page token stays redeemable.
	// Zero means tokens never expire.
	TokenTTL time.Duration
}

// Store owns the database connection shared by the quote and token stores.
type Store struct {
	db       *sql.DB
	path     string
	tokenTTL time.Duration
}

// NewStore opens (or creates) the database and applies pending migrations.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	busyMillis := cfg.BusyTimeout.Milliseconds()
	if busyMillis <= 0 {
		busyMillis = 5000
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", cfg.Path, busyMillis)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:       db,
		path:     cfg.Path,
		tokenTTL: cfg.TokenTTL,
	}

	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Quotes returns the quote repository backed by this store.
func (s *Store) Quotes() *QuoteStore {
	return &QuoteStore{store: s}
}

// PageTokens returns the page token store backed by this store.
func (s *Store) PageTokens() *PageTokenStore {
	return &PageTokenStore{store: s}
}

// Name returns the health check name for this store.
// Implements ports.HealthChecker.
func (s *Store) Name() string {
	return "sqlite"
}

// Check pings the database.
// Implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate applies all pending .up.sql migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int

	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string

	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}

	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1).
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
