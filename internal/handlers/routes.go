package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/picshare/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions      SessionService
	Content       ContentService
	Chats         ConversationService
	Notifications NotificationService
	Profiles      ProfileDirectory
	Settings      SettingsStore
	Recovery      RecoveryService
	Media         ImagePublisher
	Taps          TapDetector
	AuthLimiter   middleware.RateLimiter
	TrustProxy    bool
	SaveLatency   time.Duration
	Started       time.Time
	// CheckOrigin overrides the WebSocket origin check. Nil allows same-origin only.
	CheckOrigin func(r *http.Request) bool
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Everything
// but the auth routes, health and metrics requires a signed-in identity.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Started: deps.Started}
	auth := AuthHandler{Sessions: deps.Sessions, Recovery: deps.Recovery, SaveLatency: deps.SaveLatency}
	posts := PostHandler{Content: deps.Content, Media: deps.Media, Taps: deps.Taps}
	chats := ChatHandler{Chats: deps.Chats}
	notifications := NotificationHandler{Notifications: deps.Notifications}
	profiles := ProfileHandler{Profiles: deps.Profiles}
	settings := SettingsHandler{Settings: deps.Settings}
	stream := StreamHandler{
		Sessions: deps.Sessions,
		Upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: deps.CheckOrigin},
	}

	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.AuthLimiter, scope, deps.TrustProxy)(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(deps.Sessions)(h)
	}

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/v1/auth/login", limited("login", auth.Login))
	mux.Handle("POST /api/v1/auth/register", limited("register", auth.Register))
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)
	mux.Handle("POST /api/v1/auth/password-reset", limited("recovery", auth.RequestPasswordReset))
	mux.Handle("POST /api/v1/auth/password-reset/verify", limited("recovery", auth.VerifyPasswordReset))
	mux.Handle("POST /api/v1/auth/password-reset/complete", limited("recovery", auth.CompletePasswordReset))

	mux.Handle("GET /api/v1/me", protected(auth.Me))
	mux.Handle("PATCH /api/v1/me", protected(auth.UpdateMe))
	mux.Handle("GET /api/v1/session/stream", protected(stream.Serve))

	mux.Handle("GET /api/v1/feed", protected(posts.Feed))
	mux.Handle("GET /api/v1/explore", protected(posts.Explore))
	mux.Handle("GET /api/v1/search", protected(posts.Search))
	mux.Handle("POST /api/v1/posts", protected(posts.Create))
	mux.Handle("POST /api/v1/posts/{id}/like", protected(posts.Like))
	mux.Handle("DELETE /api/v1/posts/{id}/like", protected(posts.Unlike))
	if deps.Taps != nil {
		mux.Handle("POST /api/v1/posts/{id}/tap", protected(posts.Tap))
	}
	mux.Handle("POST /api/v1/posts/{id}/comments", protected(posts.Comment))

	mux.Handle("GET /api/v1/profiles/{username}", protected(profiles.Get))
	mux.Handle("POST /api/v1/profiles/{username}/follow", protected(profiles.ToggleFollow))

	mux.Handle("GET /api/v1/chats", protected(chats.List))
	mux.Handle("GET /api/v1/chats/active", protected(chats.Active))
	mux.Handle("GET /api/v1/chats/{id}", protected(chats.Get))
	mux.Handle("POST /api/v1/chats/{id}/messages", protected(chats.Send))
	mux.Handle("POST /api/v1/chats/{id}/read", protected(chats.MarkRead))

	mux.Handle("GET /api/v1/notifications", protected(notifications.List))
	mux.Handle("POST /api/v1/notifications/{id}/read", protected(notifications.MarkRead))
	mux.Handle("POST /api/v1/notifications/read", protected(notifications.MarkAllRead))

	mux.Handle("GET /api/v1/settings/{group}", protected(settings.Get))
	mux.Handle("POST /api/v1/settings/{group}", protected(settings.Toggle))
}
