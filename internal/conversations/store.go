// Package conversations owns the direct message threads.
package conversations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/picshare/backend/internal/fixtures"
	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/models"
)

var (
	// ErrNotFound indicates no chat has the requested id.
	ErrNotFound = errors.New("chat not found")
	// ErrEmptyText indicates a blank message; nothing was sent.
	ErrEmptyText = errors.New("message text is empty")
	// ErrSuperseded indicates a newer FetchChat call took over the active chat.
	ErrSuperseded = errors.New("chat fetch superseded")
)

// Config controls a Store.
type Config struct {
	ListLatency   time.Duration
	DetailLatency time.Duration
	Now           func() time.Time
	Seed          func(now time.Time) []models.Chat
}

// Store keeps the chats in a table keyed by id. The active chat is an id into
// that table, so messages sent to it are visible in both views.
type Store struct {
	listLatency   time.Duration
	detailLatency time.Duration
	now           func() time.Time
	seed          func(now time.Time) []models.Chat

	mu       sync.RWMutex
	chats    map[string]*models.Chat
	order    []string
	loaded   bool
	activeID string
	request  uint64
}

// NewStore constructs a Store seeded from fixtures unless cfg overrides it.
func NewStore(cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Seed == nil {
		cfg.Seed = fixtures.Chats
	}
	return &Store{
		listLatency:   cfg.ListLatency,
		detailLatency: cfg.DetailLatency,
		now:           cfg.Now,
		seed:          cfg.Seed,
		chats:         make(map[string]*models.Chat),
	}
}

// FetchChats loads the chat list after the simulated latency and returns it.
// Seed data is applied once; later fetches keep messages sent since.
func (s *Store) FetchChats(ctx context.Context) ([]models.Chat, error) {
	ctx, span := logging.StartSpan(ctx, "conversations.fetch_chats")
	defer span.End()

	if err := latency.Wait(ctx, s.listLatency); err != nil {
		span.Fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.ensureLoadedLocked()
	s.mu.Unlock()

	return s.Chats(), nil
}

// FetchChat selects chatID as the active chat after the simulated latency and
// marks it read. It returns ErrNotFound, with no active chat, for unknown ids.
// When another FetchChat starts before this one completes, the newer call wins
// and this one returns ErrSuperseded without changing anything.
func (s *Store) FetchChat(ctx context.Context, chatID string) (models.Chat, error) {
	ctx, span := logging.StartSpan(ctx, "conversations.fetch_chat")
	defer span.End()

	s.mu.Lock()
	s.request++
	token := s.request
	s.mu.Unlock()

	if err := latency.Wait(ctx, s.detailLatency); err != nil {
		span.Fail(err)
		return models.Chat{}, err
	}

	s.mu.Lock()
	if token != s.request {
		s.mu.Unlock()
		logging.FromContext(ctx).Debug("discarding stale chat fetch", "chatId", chatID)
		return models.Chat{}, ErrSuperseded
	}
	s.ensureLoadedLocked()
	chat, ok := s.chats[chatID]
	if !ok {
		s.activeID = ""
		s.mu.Unlock()
		return models.Chat{}, ErrNotFound
	}
	s.activeID = chatID
	markReadLocked(chat)
	snapshot := chat.Clone()
	s.mu.Unlock()

	metrics.StoreOp("conversations", "open")
	return snapshot, nil
}

func (s *Store) ensureLoadedLocked() {
	if s.loaded {
		return
	}
	now := s.now()
	for _, chat := range s.seed(now) {
		chat = chat.Clone()
		for i := range chat.Messages {
			chat.Messages[i].Age = models.Age(chat.Messages[i].CreatedAt, now)
		}
		chat.LastMessage = latestMessage(chat.Messages)
		s.chats[chat.ID] = &chat
		s.order = append(s.order, chat.ID)
	}
	s.loaded = true
	metrics.SeedLoads.WithLabelValues("conversations", "chats").Inc()
}

func latestMessage(messages []models.Message) *models.Message {
	if len(messages) == 0 {
		return nil
	}
	sorted := append([]models.Message(nil), messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	last := sorted[0]
	return &last
}

// SendMessage appends text from the current user to chatID. Blank text
// returns ErrEmptyText and sends nothing.
func (s *Store) SendMessage(ctx context.Context, chatID, text string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, ErrEmptyText
	}

	message := models.Message{
		ID:        "m" + uuid.NewString(),
		SenderID:  fixtures.CurrentUserID,
		Text:      text,
		CreatedAt: s.now(),
		Age:       models.JustNow,
		Read:      true,
	}

	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return models.Message{}, ErrNotFound
	}
	chat.Messages = append(chat.Messages, message)
	last := message
	chat.LastMessage = &last
	s.mu.Unlock()

	metrics.StoreOp("conversations", "send")
	logging.FromContext(ctx).Info("message sent", "chatId", chatID, "messageId", message.ID)
	return message, nil
}

// MarkRead marks every message of chatID read and resets its unread count.
func (s *Store) MarkRead(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	markReadLocked(chat)
	metrics.StoreOp("conversations", "mark_read")
	return nil
}

func markReadLocked(chat *models.Chat) {
	for i := range chat.Messages {
		chat.Messages[i].Read = true
	}
	if chat.LastMessage != nil {
		chat.LastMessage.Read = true
	}
	chat.UnreadCount = 0
}

// Chats returns a snapshot of every chat in seed order.
func (s *Store) Chats() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chats[id].Clone())
	}
	return out
}

// ActiveChat returns the chat selected by the latest FetchChat, if any.
func (s *Store) ActiveChat() (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return models.Chat{}, false
	}
	chat, ok := s.chats[s.activeID]
	if !ok {
		return models.Chat{}, false
	}
	return chat.Clone(), true
}

// UnreadTotal sums the unread counts of every chat.
func (s *Store) UnreadTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, chat := range s.chats {
		total += chat.UnreadCount
	}
	return total
}
