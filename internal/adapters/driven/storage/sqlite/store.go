// Package sqlite persists sync pass history in an embedded SQLite
// database. The schema is managed through embedded migrations.
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

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/infobot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SyncHistoryStore = (*Store)(nil)

// Store is the SQLite-backed sync history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.infobot/data/history.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".infobot", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
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

// RecordPass appends one completed pass result.
func (s *Store) RecordPass(ctx context.Context, result *domain.PassResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_passes (id, started_at, ended_at, processed, skipped, failed, indexed_total, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.StartedAt.UTC(), result.EndedAt.UTC(),
		result.Stats.Processed, result.Stats.Skipped, result.Stats.Failed,
		result.IndexedTotal, result.Error)
	if err != nil {
		return fmt.Errorf("recording pass: %w", err)
	}
	return nil
}

// RecentPasses returns up to limit results, newest first.
func (s *Store) RecentPasses(ctx context.Context, limit int) ([]domain.PassResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, processed, skipped, failed, indexed_total, error
		FROM sync_passes
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying passes: %w", err)
	}
	defer rows.Close()

	var results []domain.PassResult
	for rows.Next() {
		var r domain.PassResult
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.EndedAt,
			&r.Stats.Processed, &r.Stats.Skipped, &r.Stats.Failed,
			&r.IndexedTotal, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning pass: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passes: %w", err)
	}
	return results, nil
}

// PruneHistory deletes all but the newest keep results.
func (s *Store) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_passes
		WHERE id NOT IN (
			SELECT id FROM sync_passes
			ORDER BY started_at DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning passes: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
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
