package session

import (
	"context"
	"sync"

	"github.com/picshare/backend/internal/models"
)

// NewMemorySlot returns an IdentitySlot held in process memory.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// MemorySlot implements IdentitySlot for tests and local development.
type MemorySlot struct {
	mu       sync.RWMutex
	identity *models.Identity
	saves    int
}

// Load returns the stored identity or ErrNoIdentity.
func (s *MemorySlot) Load(_ context.Context) (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, ErrNoIdentity
	}
	return *s.identity, nil
}

// Save replaces the stored identity.
func (s *MemorySlot) Save(_ context.Context, identity models.Identity) error {
	s.mu.Lock()
	s.identity = &identity
	s.saves++
	s.mu.Unlock()
	return nil
}

// Clear empties the slot.
func (s *MemorySlot) Clear(_ context.Context) error {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	return nil
}

// Saves reports how many times Save was called. Useful for tests.
func (s *MemorySlot) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
