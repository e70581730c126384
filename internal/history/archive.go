// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides durable chat session persistence for ewaste-tui.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/ewaste-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSessionNotArchived is returned when an archive lookup misses.
	ErrSessionNotArchived = errors.New("session not in archive")
)

// =============================================================================
// ARCHIVE
// =============================================================================

// archiveSchema holds full session documents keyed by session ID.
// The JSON blob is the same encoding the live store uses, so an archived
// session restores with identical message ordering and timestamps.
const archiveSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	document   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
`

// Archive stores sessions evicted from the live history buckets.
type Archive struct {
	db *sql.DB
}

// ArchiveMeta is a lightweight listing entry for archived sessions.
type ArchiveMeta struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// OpenArchive opens (creating if necessary) the archive database.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// =============================================================================
// WRITE
// =============================================================================

// Add stores a session, replacing any earlier archived copy with the same ID.
func (a *Archive) Add(sess *model.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = a.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, title, created_at, document) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Title, sess.CreatedAt.Format(time.RFC3339Nano), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to archive session: %w", err)
	}
	return nil
}

// =============================================================================
// READ
// =============================================================================

// Get restores an archived session by ID.
func (a *Archive) Get(id string) (*model.Session, error) {
	var doc string
	err := a.db.QueryRow(`SELECT document FROM sessions WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotArchived
	}
	if err != nil {
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, fmt.Errorf("corrupt archived session %s: %w", id, err)
	}
	return &sess, nil
}

// Search finds archived sessions whose title or message content contains the
// query (case-insensitive). Results are most recent first.
func (a *Archive) Search(query string) ([]ArchiveMeta, error) {
	rows, err := a.db.Query(
		`SELECT id, title, created_at FROM sessions
		 WHERE title LIKE ? COLLATE NOCASE OR document LIKE ? COLLATE NOCASE
		 ORDER BY created_at DESC`,
		"%"+query+"%", "%"+query+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ArchiveMeta
	for rows.Next() {
		var meta ArchiveMeta
		var created string
		if err := rows.Scan(&meta.ID, &meta.Title, &created); err != nil {
			return nil, err
		}
		meta.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Count returns the number of archived sessions.
func (a *Archive) Count() (int, error) {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}
