package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/forum-inbox/internal/model"
)

// SQLiteJournal implements the Journal interface using a local SQLite
// database.
type SQLiteJournal struct {
	db *sqlx.DB
}

// NewSQLiteJournal opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteJournal{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteJournal) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
	}

	return nil
}

// RecordDelivered marks a notification id as delivered to this client.
func (s *SQLiteJournal) RecordDelivered(
	ctx context.Context,
	n model.Notification,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO delivered (id, delivered_at)
		VALUES (?, ?)`,
		n.ID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording delivery of %d: %w", n.ID, err)
	}
	return nil
}

// Delivered reports whether the id has been delivered before.
func (s *SQLiteJournal) Delivered(ctx context.Context, id int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx,
		&count, "SELECT COUNT(*) FROM delivered WHERE id = ?", id,
	)
	if err != nil {
		return false, fmt.Errorf("checking delivery of %d: %w", id, err)
	}
	return count > 0, nil
}

// SaveSnapshot replaces the mirrored unread snapshot atomically.
func (s *SQLiteJournal) SaveSnapshot(
	ctx context.Context,
	list []model.Notification,
	count int,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot"); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	for i, n := range list {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot (position, id, title, content, link, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			i, n.ID, n.Title, n.Content, n.Link, n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting snapshot row %d: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES ('unread_count', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		count,
	)
	if err != nil {
		return fmt.Errorf("saving unread count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Snapshot returns the mirrored unread snapshot in saved order.
func (s *SQLiteJournal) Snapshot(
	ctx context.Context,
) ([]model.Notification, int, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, title, content, link, created_at
		FROM snapshot ORDER BY position ASC`,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	var list []model.Notification
	for rows.Next() {
		var (
			n         model.Notification
			createdAt time.Time
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Link, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scanning snapshot row: %w", err)
		}
		n.CreatedAt = createdAt
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int
	err = s.db.GetContext(ctx,
		&count, "SELECT value FROM snapshot_meta WHERE key = 'unread_count'",
	)
	if err != nil {
		// No saved snapshot yet.
		count = len(list)
	}

	return list, count, nil
}
