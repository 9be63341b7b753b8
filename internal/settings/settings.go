// Package settings keeps the notification and privacy toggles of the current user.
package settings

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownGroup indicates a settings group that does not exist.
	ErrUnknownGroup = errors.New("unknown settings group")
	// ErrUnknownSetting indicates a toggle name that is not part of its group.
	ErrUnknownSetting = errors.New("unknown setting")
)

// Group names a page of toggles.
type Group string

const (
	Notifications Group = "notifications"
	Privacy       Group = "privacy"
)

// Toggle is one named boolean setting.
type Toggle struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

var defaults = map[Group][]Toggle{
	Notifications: {
		{"likes", true},
		{"comments", true},
		{"follows", true},
		{"messages", true},
		{"mentions", true},
		{"liveVideos", true},
		{"emailNotifications", true},
		{"pushNotifications", true},
	},
	Privacy: {
		{"privateAccount", false},
		{"showActivityStatus", true},
		{"showReadReceipts", true},
		{"allowTagging", true},
		{"allowMentions", true},
		{"allowMessages", true},
		{"showOnlineStatus", true},
		{"showLastSeen", true},
	},
}

// Store holds the toggles of every group, in display order.
type Store struct {
	mu     sync.RWMutex
	groups map[Group][]Toggle
}

// NewStore returns a Store holding the default toggles.
func NewStore() *Store {
	groups := make(map[Group][]Toggle, len(defaults))
	for g, toggles := range defaults {
		groups[g] = append([]Toggle(nil), toggles...)
	}
	return &Store{groups: groups}
}

// Get returns the toggles of group.
func (s *Store) Get(group Group) ([]Toggle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	toggles, ok := s.groups[group]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", group, ErrUnknownGroup)
	}
	return append([]Toggle(nil), toggles...), nil
}

// Toggle flips the named setting of group and returns its new value.
func (s *Store) Toggle(group Group, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggles, ok := s.groups[group]
	if !ok {
		return false, fmt.Errorf("toggle %q: %w", group, ErrUnknownGroup)
	}
	for i := range toggles {
		if toggles[i].Name == name {
			toggles[i].Enabled = !toggles[i].Enabled
			return toggles[i].Enabled, nil
		}
	}
	return false, fmt.Errorf("toggle %s.%s: %w", group, name, ErrUnknownSetting)
}
