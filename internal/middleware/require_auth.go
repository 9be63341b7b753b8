package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/picshare/backend/internal/logging"
)

// Authenticator reports whether someone is signed in.
type Authenticator interface {
	Authenticated() bool
}

// RequireAuth answers 401 for every request while nobody is signed in.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || !auth.Authenticated() {
				logging.FromContext(r.Context()).Warn("unauthenticated request rejected")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
