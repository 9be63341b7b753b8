package app

import (
	"context"
	"fmt"

	"github.com/picshare/backend/internal/config"
	"github.com/picshare/backend/internal/db"
	"github.com/picshare/backend/internal/repositories"
	"github.com/picshare/backend/internal/session"
)

// openSlot returns the durable identity slot selected by cfg.SlotBackend
// together with a function releasing it.
func openSlot(ctx context.Context, cfg config.Config) (session.IdentitySlot, func() error, error) {
	switch cfg.SlotBackend {
	case config.SlotMemory:
		return session.NewMemorySlot(), func() error { return nil }, nil
	case config.SlotSQLite:
		slot, err := repositories.OpenSQLiteIdentitySlot(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return slot, slot.Close, nil
	case config.SlotPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewPostgresIdentitySlot(pool), func() error {
			pool.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown slot backend %q", cfg.SlotBackend)
	}
}
