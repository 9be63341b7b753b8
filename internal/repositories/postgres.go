package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/picshare/backend/internal/db"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/session"
)

// PostgresIdentitySlot persists the current identity to the identity_slots table.
type PostgresIdentitySlot struct {
	pool db.Pool
	key  string
}

// NewPostgresIdentitySlot constructs an identity slot backed by PostgreSQL.
func NewPostgresIdentitySlot(pool db.Pool) *PostgresIdentitySlot {
	return &PostgresIdentitySlot{pool: pool, key: session.SlotKey}
}

// Load reads the stored identity, returning session.ErrNoIdentity when the
// slot is empty.
func (s *PostgresIdentitySlot) Load(ctx context.Context) (models.Identity, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.Identity{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var payload []byte
	row := conn.QueryRow(ctx, `
        SELECT payload
        FROM identity_slots
        WHERE slot_key = $1
    `, s.key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Identity{}, session.ErrNoIdentity
		}
		return models.Identity{}, fmt.Errorf("select identity slot: %w", err)
	}

	return decodeIdentity(payload)
}

// Save stores or replaces the identity.
func (s *PostgresIdentitySlot) Save(ctx context.Context, identity models.Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO identity_slots (slot_key, payload, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (slot_key)
        DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
    `, s.key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert identity slot: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *PostgresIdentitySlot) Clear(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM identity_slots WHERE slot_key = $1`, s.key); err != nil {
		return fmt.Errorf("delete identity slot: %w", err)
	}
	return nil
}

func decodeIdentity(payload []byte) (models.Identity, error) {
	var identity models.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrCorruptSlot, err)
	}
	return identity, nil
}

var _ session.IdentitySlot = (*PostgresIdentitySlot)(nil)
