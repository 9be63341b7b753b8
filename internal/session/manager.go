package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/picshare/backend/internal/events"
	"github.com/picshare/backend/internal/fixtures"
	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/models"
)

// EventKind describes what happened to the current identity.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventUpdated   EventKind = "updated"
	EventSignedOut EventKind = "signed_out"
)

// Event is published to subscribers whenever the current identity changes.
// Identity is the zero value for EventSignedOut.
type Event struct {
	Kind     EventKind       `json:"type"`
	Identity models.Identity `json:"identity"`
}

// Option customises a Manager.
type Option func(*Manager)

// WithLatency sets the simulated round trip applied to Login and Register.
func WithLatency(d time.Duration) Option {
	return func(m *Manager) { m.latency = d }
}

// Manager is the single source of truth for who is using the application.
type Manager struct {
	slot    IdentitySlot
	latency time.Duration
	changes *events.Broadcaster[Event]

	mu       sync.RWMutex
	identity *models.Identity
}

// NewManager constructs a Manager persisting to slot.
func NewManager(slot IdentitySlot, opts ...Option) *Manager {
	if slot == nil {
		panic("session: identity slot must not be nil")
	}
	m := &Manager{
		slot:    slot,
		latency: 800 * time.Millisecond,
		changes: events.NewBroadcaster[Event](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads a previously persisted identity and trusts it without
// contacting any remote service. An empty slot is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	identity, err := m.slot.Load(ctx)
	if errors.Is(err, ErrNoIdentity) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore identity: %w", err)
	}

	m.mu.Lock()
	m.identity = &identity
	m.mu.Unlock()

	logging.FromContext(ctx).Info("identity restored", "userId", identity.ID, "username", identity.Username)
	return nil
}

// Login signs in as the demo identity. Credentials are not checked.
func (m *Manager) Login(ctx context.Context, username, _ string) (models.Identity, error) {
	ctx, span := logging.StartSpan(ctx, "session.login")
	defer span.End()

	if err := latency.Wait(ctx, m.latency); err != nil {
		return models.Identity{}, err
	}

	identity := fixtures.DemoIdentity()
	if err := m.signIn(ctx, identity); err != nil {
		return models.Identity{}, err
	}
	logging.FromContext(ctx).Info("signed in", "requestedUsername", username, "userId", identity.ID)
	return identity, nil
}

// Register signs in as a fresh identity built from the demo template with the
// supplied username used for both the username and the full name.
func (m *Manager) Register(ctx context.Context, username, email, _ string) (models.Identity, error) {
	ctx, span := logging.StartSpan(ctx, "session.register")
	defer span.End()

	if err := latency.Wait(ctx, m.latency); err != nil {
		return models.Identity{}, err
	}

	identity := fixtures.DemoIdentity()
	identity.Username = username
	identity.FullName = username

	if err := m.signIn(ctx, identity); err != nil {
		return models.Identity{}, err
	}
	logging.FromContext(ctx).Info("registered", "username", username, "email", email)
	return identity, nil
}

func (m *Manager) signIn(ctx context.Context, identity models.Identity) error {
	m.mu.Lock()
	if err := m.slot.Save(ctx, identity); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("save identity: %w", err)
	}
	m.identity = &identity
	seq := m.changes.Stamp()
	m.mu.Unlock()

	m.changes.PublishAt(seq, Event{Kind: EventSignedIn, Identity: identity})
	return nil
}

// Logout forgets the current identity and empties the durable slot.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.identity = nil
	seq := m.changes.Stamp()
	err := m.slot.Clear(ctx)
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	m.changes.PublishAt(seq, Event{Kind: EventSignedOut})
	return nil
}

// UpdateUser merges patch into the current identity, persists the result and
// delivers it to every subscriber before returning. Without a current identity
// nothing happens and ErrNotAuthenticated is returned.
func (m *Manager) UpdateUser(ctx context.Context, patch models.IdentityPatch) (models.Identity, error) {
	return m.Mutate(ctx, func(models.Identity) models.IdentityPatch { return patch })
}

// Mutate is UpdateUser with the patch computed from the current identity.
// fn runs under the identity lock, so read-modify-write changes such as
// counter bumps never overwrite one another. fn must not call back into m.
func (m *Manager) Mutate(ctx context.Context, fn func(current models.Identity) models.IdentityPatch) (models.Identity, error) {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return models.Identity{}, ErrNotAuthenticated
	}
	updated := fn(*m.identity).Apply(*m.identity)
	if err := m.slot.Save(ctx, updated); err != nil {
		m.mu.Unlock()
		return models.Identity{}, fmt.Errorf("save identity: %w", err)
	}
	m.identity = &updated
	seq := m.changes.Stamp()
	m.mu.Unlock()

	m.changes.PublishAt(seq, Event{Kind: EventUpdated, Identity: updated})
	return updated, nil
}

// Current returns the signed-in identity, if any.
func (m *Manager) Current() (models.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return models.Identity{}, false
	}
	return *m.identity, true
}

// Authenticated reports whether an identity is signed in.
func (m *Manager) Authenticated() bool {
	_, ok := m.Current()
	return ok
}

// Subscribe registers fn for identity change events.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}
