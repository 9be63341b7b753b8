package recovery

import (
	"context"
	"sync"
)

// NewInMemoryTicketStore returns a TicketStore backed by an in-memory map.
func NewInMemoryTicketStore() *InMemoryTicketStore {
	return &InMemoryTicketStore{tickets: make(map[string]Ticket)}
}

// InMemoryTicketStore implements TicketStore for the demo server and tests.
type InMemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
}

// Save persists the ticket, replacing any earlier one for the same email.
func (s *InMemoryTicketStore) Save(_ context.Context, ticket Ticket) error {
	s.mu.Lock()
	s.tickets[ticket.Email] = ticket
	s.mu.Unlock()
	return nil
}

// Find retrieves the ticket for email.
func (s *InMemoryTicketStore) Find(_ context.Context, email string) (Ticket, error) {
	s.mu.RLock()
	ticket, ok := s.tickets[email]
	s.mu.RUnlock()
	if !ok {
		return Ticket{}, ErrTicketNotFound
	}
	return ticket, nil
}

// Delete removes the ticket for email.
func (s *InMemoryTicketStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.tickets, email)
	s.mu.Unlock()
	return nil
}

// Has reports whether a ticket exists. Useful for tests.
func (s *InMemoryTicketStore) Has(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tickets[email]
	return ok
}

// NewInMemoryCredentialStore returns a CredentialStore backed by an in-memory map.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{hashes: make(map[string][]byte)}
}

// InMemoryCredentialStore implements CredentialStore.
type InMemoryCredentialStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

// SetPasswordHash replaces the hash stored for email.
func (s *InMemoryCredentialStore) SetPasswordHash(_ context.Context, email string, hash []byte) error {
	s.mu.Lock()
	s.hashes[email] = append([]byte(nil), hash...)
	s.mu.Unlock()
	return nil
}

// PasswordHash returns the hash stored for email.
func (s *InMemoryCredentialStore) PasswordHash(_ context.Context, email string) ([]byte, error) {
	s.mu.RLock()
	hash, ok := s.hashes[email]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoCredential
	}
	return append([]byte(nil), hash...), nil
}
