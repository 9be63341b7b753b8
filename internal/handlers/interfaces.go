package handlers

import (
	"context"

	"github.com/picshare/backend/internal/content"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/profiles"
	"github.com/picshare/backend/internal/session"
	"github.com/picshare/backend/internal/settings"
)

// SessionService owns the signed-in identity.
type SessionService interface {
	Login(ctx context.Context, username, password string) (models.Identity, error)
	Register(ctx context.Context, username, email, password string) (models.Identity, error)
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, patch models.IdentityPatch) (models.Identity, error)
	Current() (models.Identity, bool)
	Authenticated() bool
	Subscribe(fn func(session.Event)) (unsubscribe func())
}

// ContentService captures the post operations used by the post handlers.
type ContentService interface {
	FetchFeed(ctx context.Context) ([]models.Post, error)
	FetchExplore(ctx context.Context) ([]models.Post, error)
	Invalidate(c content.Collection)
	Search(query string) []models.Post
	Like(id string) (models.Post, error)
	Unlike(id string) (models.Post, error)
	AddComment(ctx context.Context, id, text string) (models.Comment, error)
	CreatePost(ctx context.Context, image, caption string) (models.Post, error)
	Post(id string) (models.Post, error)
}

// TapDetector turns repeated taps on a post into a like.
type TapDetector interface {
	Tap(postID string) (bool, error)
}

// ConversationService captures the direct message operations.
type ConversationService interface {
	FetchChats(ctx context.Context) ([]models.Chat, error)
	FetchChat(ctx context.Context, id string) (models.Chat, error)
	SendMessage(ctx context.Context, id, text string) (models.Message, error)
	MarkRead(id string) error
	ActiveChat() (models.Chat, bool)
	UnreadTotal() int
}

// NotificationService captures the activity alert operations.
type NotificationService interface {
	Fetch(ctx context.Context) ([]models.Notification, error)
	Loaded() bool
	List() []models.Notification
	MarkRead(id string) error
	MarkAllRead()
	UnreadCount() int
}

// ProfileDirectory resolves profile pages.
type ProfileDirectory interface {
	Lookup(ctx context.Context, username string) (profiles.Profile, error)
	ToggleFollow(ctx context.Context, username string) (profiles.Profile, error)
}

// SettingsStore holds the settings toggles.
type SettingsStore interface {
	Get(group settings.Group) ([]settings.Toggle, error)
	Toggle(group settings.Group, name string) (bool, error)
}

// RecoveryService drives password recovery.
type RecoveryService interface {
	Begin(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, otp string) error
	Reset(ctx context.Context, email, otp, password, confirm string) error
}

// ImagePublisher turns an uploaded image reference into the one a post carries.
type ImagePublisher interface {
	Publish(ctx context.Context, ref string) (string, error)
}
