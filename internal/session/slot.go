package session

import (
	"context"
	"errors"

	"github.com/picshare/backend/internal/models"
)

// SlotKey names the single durable slot the identity lives in.
const SlotKey = "picshare_user"

var (
	// ErrNoIdentity indicates the durable slot holds no identity.
	ErrNoIdentity = errors.New("no identity stored")
	// ErrNotAuthenticated indicates an operation requires a signed-in identity.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// IdentitySlot persists the current identity so it survives process restarts.
type IdentitySlot interface {
	Load(ctx context.Context) (models.Identity, error)
	Save(ctx context.Context, identity models.Identity) error
	Clear(ctx context.Context) error
}
