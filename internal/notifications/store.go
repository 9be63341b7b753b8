// Package notifications holds the activity alerts shown to the current user.
package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/picshare/backend/internal/events"
	"github.com/picshare/backend/internal/fixtures"
	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/models"
)

// ErrNotFound indicates no notification has the requested id.
var ErrNotFound = errors.New("notification not found")

// DefaultLatency is the simulated delay of Fetch.
const DefaultLatency = 800 * time.Millisecond

// Config controls a Store.
type Config struct {
	Latency time.Duration
	Now     func() time.Time
	Seed    func(now time.Time) []models.Notification
}

// Store holds notifications in seed order and tracks how many are unread.
type Store struct {
	latency time.Duration
	now     func() time.Time
	seed    func(now time.Time) []models.Notification
	unread  *events.Broadcaster[int]

	mu            sync.RWMutex
	notifications []models.Notification
	unreadCount   int
	loaded        bool
}

// NewStore constructs a Store seeded from fixtures unless cfg overrides it.
func NewStore(cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Seed == nil {
		cfg.Seed = fixtures.Notifications
	}
	return &Store{
		latency: cfg.Latency,
		now:     cfg.Now,
		seed:    cfg.Seed,
		unread:  events.NewBroadcaster[int](),
	}
}

// Fetch replaces the list with the seed after the simulated latency.
func (s *Store) Fetch(ctx context.Context) ([]models.Notification, error) {
	ctx, span := logging.StartSpan(ctx, "notifications.fetch")
	defer span.End()

	if err := latency.Wait(ctx, s.latency); err != nil {
		span.Fail(err)
		return nil, err
	}

	now := s.now()
	seeded := s.seed(now)
	unread := 0
	for i := range seeded {
		seeded[i].Age = models.Age(seeded[i].CreatedAt, now)
		if !seeded[i].Read {
			unread++
		}
	}

	s.mu.Lock()
	s.notifications = seeded
	s.loaded = true
	changed := s.unreadCount != unread
	s.unreadCount = unread
	seq := s.unread.Stamp()
	out := append([]models.Notification(nil), s.notifications...)
	s.mu.Unlock()

	metrics.SeedLoads.WithLabelValues("notifications", "notifications").Inc()
	logging.FromContext(ctx).Debug("notifications loaded", "count", len(out), "unread", unread)
	if changed {
		s.unread.PublishAt(seq, unread)
	}
	return out, nil
}

// MarkRead marks a single notification read.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	changed := !s.notifications[idx].Read
	s.notifications[idx].Read = true
	if changed && s.unreadCount > 0 {
		s.unreadCount--
	}
	unread := s.unreadCount
	seq := s.unread.Stamp()
	s.mu.Unlock()

	metrics.StoreOp("notifications", "mark_read")
	if changed {
		s.unread.PublishAt(seq, unread)
	}
	return nil
}

// MarkAllRead marks every notification read and zeroes the unread count.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	changed := s.unreadCount != 0
	s.unreadCount = 0
	seq := s.unread.Stamp()
	s.mu.Unlock()

	metrics.StoreOp("notifications", "mark_all_read")
	if changed {
		s.unread.PublishAt(seq, 0)
	}
}

// Loaded reports whether Fetch has completed at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadCount
}

// List returns a snapshot of the loaded notifications.
func (s *Store) List() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.notifications...)
}

// Subscribe registers fn to receive the unread count whenever it changes.
func (s *Store) Subscribe(fn func(unread int)) (unsubscribe func()) {
	return s.unread.Subscribe(fn)
}
