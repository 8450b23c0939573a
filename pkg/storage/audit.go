// Package storage holds the embedded SQLite audit store. Moderator
// actions (create, delete, associate, edit, detect-apply) are appended
// here so the history survives even when the Discord log channel is
// unavailable. It uses modernc.org/sqlite for CGO-less builds.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// AuditStore wraps the audit database. Call Init before use.
type AuditStore struct {
	dbPath string
	db     *sql.DB
}

// AuditEntry is one recorded moderator action.
type AuditEntry struct {
	ID        int64
	GuildID   string
	UserID    string
	Action    string
	Subject   string
	Detail    string
	CreatedAt time.Time
}

// NewAuditStore creates a store pointing at dbPath.
func NewAuditStore(dbPath string) *AuditStore {
	return &AuditStore{dbPath: dbPath}
}

// Init opens the database, configures pragmas and ensures the schema.
func (s *AuditStore) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA synchronous=NORMAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("configure sqlite: %w", err)
		}
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS audit_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    guild_id   TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    action     TEXT NOT NULL,
    subject    TEXT NOT NULL DEFAULT '',
    detail     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_audit_guild ON audit_log (guild_id, created_at);
`); err != nil {
		_ = db.Close()
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append records one action.
func (s *AuditStore) Append(entry AuditEntry) error {
	if s.db == nil {
		return fmt.Errorf("audit store not initialized")
	}
	_, err := s.db.Exec(
		`INSERT INTO audit_log (guild_id, user_id, action, subject, detail) VALUES (?, ?, ?, ?, ?)`,
		entry.GuildID, entry.UserID, entry.Action, entry.Subject, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a guild, newest first.
func (s *AuditStore) Recent(guildID string, limit int) ([]AuditEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("audit store not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, guild_id, user_id, action, subject, detail, created_at
         FROM audit_log WHERE guild_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.Action, &e.Subject, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
