// Package decision persists per-record accept/reject annotations. Marks
// live outside the record feed in a local SQLite database, keyed by a
// scope string so two dashboards over different datasets never see each
// other's annotations.
package decision

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/icastellano/oppanel/internal/model"
)

// ExpectedSchemaVersion is the latest schema version the store expects.
const ExpectedSchemaVersion = 1

type migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS decisions (
					scope TEXT NOT NULL,
					record_key TEXT NOT NULL,
					decision TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (scope, record_key)
				)`,
				`CREATE INDEX idx_decisions_scope ON decisions(scope)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// Store is the durable backing for decision overlays.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the decision database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *Store) Migrate(ctx context.Context) error {
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := m.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", m.Version,
			"description", m.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}

// LoadScope returns every annotation recorded under one scope. Unreadable
// rows are skipped.
func (s *Store) LoadScope(ctx context.Context, scope string) (map[string]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT record_key, decision FROM decisions WHERE scope = ?", scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.Decision)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d := model.Decision(value)
		if !d.Valid() {
			slog.Warn("Skipping invalid stored decision", "scope", scope, "key", key, "value", value)
			continue
		}
		out[key] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return out, nil
}

// Put writes one annotation.
func (s *Store) Put(ctx context.Context, scope, key string, d model.Decision) error {
	if !d.Valid() {
		return fmt.Errorf("invalid decision %q", d)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (scope, record_key, decision, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(scope, record_key) DO UPDATE SET
			decision = excluded.decision,
			updated_at = CURRENT_TIMESTAMP`,
		scope, key, string(d))
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// Delete removes one annotation; deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, scope, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM decisions WHERE scope = ? AND record_key = ?", scope, key)
	if err != nil {
		return fmt.Errorf("failed to delete decision: %w", err)
	}
	return nil
}
