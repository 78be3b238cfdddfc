// Package store persists room snapshots so an evicted room can be restored
// on its next join.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

// StoredRoom is an evicted room waiting to be joined again.
type StoredRoom struct {
	ID        domain.RoomID   `json:"roomId"`
	Snapshot  domain.Snapshot `json:"snapshot"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func New(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY under the janitor.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Info().Str("module", "store").Str("path", dbPath).Msg("snapshot store ready")
	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS room_snapshots (
		room_id TEXT PRIMARY KEY,
		language TEXT NOT NULL,
		text TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Save(ctx context.Context, id domain.RoomID, snap domain.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_snapshots (room_id, language, text, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_id) DO UPDATE SET
			language = excluded.language,
			text = excluded.text,
			updated_at = CURRENT_TIMESTAMP
	`, string(id), string(snap.Language), snap.Text)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return nil
}

// Load reports ok=false when the room was never stored.
func (s *SQLite) Load(ctx context.Context, id domain.RoomID) (domain.Snapshot, bool, error) {
	var lang, text string
	err := s.db.QueryRowContext(ctx,
		"SELECT language, text FROM room_snapshots WHERE room_id = ?",
		string(id),
	).Scan(&lang, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return domain.Snapshot{Language: domain.Language(lang), Text: text}, true, nil
}

// List returns stored rooms, most recently saved first.
func (s *SQLite) List(ctx context.Context, limit, offset int) ([]StoredRoom, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT room_id, language, text, updated_at FROM room_snapshots ORDER BY updated_at DESC, room_id LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []StoredRoom
	for rows.Next() {
		var (
			r        StoredRoom
			id, lang string
		)
		if err := rows.Scan(&id, &lang, &r.Snapshot.Text, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.ID = domain.RoomID(id)
		r.Snapshot.Language = domain.Language(lang)
		out = append(out, r)
	}
	return out, rows.Err()
}
