package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/session"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS identity_slots (
    slot_key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    updated_at INTEGER NOT NULL
)`

// SQLiteIdentitySlot persists the current identity to a local SQLite file.
type SQLiteIdentitySlot struct {
	sqlDB *sql.DB
	key   string
}

// OpenSQLiteIdentitySlot opens (creating if needed) the SQLite database at path.
func OpenSQLiteIdentitySlot(ctx context.Context, path string) (*SQLiteIdentitySlot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create identity_slots: %w", err)
	}
	return &SQLiteIdentitySlot{sqlDB: sqlDB, key: session.SlotKey}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteIdentitySlot) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load reads the stored identity, returning session.ErrNoIdentity when the
// slot is empty.
func (s *SQLiteIdentitySlot) Load(ctx context.Context) (models.Identity, error) {
	var payload string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM identity_slots WHERE slot_key = ?`, s.key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Identity{}, session.ErrNoIdentity
		}
		return models.Identity{}, fmt.Errorf("select identity slot: %w", err)
	}
	return decodeIdentity([]byte(payload))
}

// Save stores or replaces the identity.
func (s *SQLiteIdentitySlot) Save(ctx context.Context, identity models.Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
        INSERT INTO identity_slots (slot_key, payload, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (slot_key)
        DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
    `, s.key, string(payload), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert identity slot: %w", err)
	}
	return nil
}

// Clear empties the slot.
func (s *SQLiteIdentitySlot) Clear(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM identity_slots WHERE slot_key = ?`, s.key); err != nil {
		return fmt.Errorf("delete identity slot: %w", err)
	}
	return nil
}

var _ session.IdentitySlot = (*SQLiteIdentitySlot)(nil)
