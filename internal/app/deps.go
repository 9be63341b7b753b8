package app

import (
	"context"
	"time"

	"github.com/picshare/backend/internal/config"
	"github.com/picshare/backend/internal/content"
	"github.com/picshare/backend/internal/conversations"
	"github.com/picshare/backend/internal/handlers"
	"github.com/picshare/backend/internal/media"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/middleware"
	"github.com/picshare/backend/internal/notifications"
	"github.com/picshare/backend/internal/profiles"
	"github.com/picshare/backend/internal/recovery"
	"github.com/picshare/backend/internal/session"
	"github.com/picshare/backend/internal/settings"
	"github.com/picshare/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup detaches store subscriptions.
func buildDependencies(ctx context.Context, cfg config.Config, sessions *session.Manager) (handlers.Dependencies, func(), error) {
	posts := content.NewStore(sessions, content.Config{Latency: cfg.Latency.Posts})
	chats := conversations.NewStore(conversations.Config{
		ListLatency:   cfg.Latency.Chats,
		DetailLatency: cfg.Latency.Chat,
	})
	activity := notifications.NewStore(notifications.Config{Latency: cfg.Latency.Notifications})
	unsubscribe := activity.Subscribe(func(unread int) {
		metrics.UnreadNotifications.Set(float64(unread))
	})

	var assets media.AssetStorage
	if cfg.ObjectStore.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			unsubscribe()
			return handlers.Dependencies{}, nil, err
		}
		assets = s3
	}

	deps := handlers.Dependencies{
		Sessions:      sessions,
		Content:       posts,
		Chats:         chats,
		Notifications: activity,
		Profiles:      profiles.NewDirectory(sessions, posts, cfg.Latency.Profile),
		Settings:      settings.NewStore(),
		Recovery:      recovery.NewManager(cfg.RecoveryTTL, cfg.Latency.Reset, recovery.NewInMemoryTicketStore()),
		Media:         media.NewPublisher(assets),
		Taps:          content.NewDoubleTap(posts),
		AuthLimiter:   middleware.NewClientLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 10*time.Minute),
		TrustProxy:    cfg.RateLimit.TrustProxy,
		SaveLatency:   cfg.Latency.ProfileSave,
		Started:       time.Now(),
	}
	return deps, unsubscribe, nil
}
