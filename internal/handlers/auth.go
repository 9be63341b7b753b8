package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/recovery"
	"github.com/picshare/backend/internal/session"
)

// AuthHandler implements sign-in, the current identity and password recovery.
type AuthHandler struct {
	Sessions SessionService
	Recovery RecoveryService
	// SaveLatency is the simulated round trip of a profile edit.
	SaveLatency time.Duration
}

// Login handles POST /api/v1/auth/login. Any credentials are accepted.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.Sessions.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.signInFailed(w, r, "login", err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, identityResponse{User: identity})
}

// Register handles POST /api/v1/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("register invalid email", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	identity, err := h.Sessions.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		h.signInFailed(w, r, "register", err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, identityResponse{User: identity})
}

func (h AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if canceled(err) {
		logging.FromContext(ctx).Info(op+" canceled", "error", err)
		w.WriteHeader(statusClientClosedRequest)
		return
	}
	logging.FromContext(ctx).Error(op+" failed", "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "failed to sign in")
}

// Logout handles POST /api/v1/auth/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Sessions.Logout(ctx); err != nil {
		logging.FromContext(ctx).Error("logout failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.Sessions.Current()
	if !ok {
		respondError(r.Context(), w, http.StatusUnauthorized, "authentication required")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, identityResponse{User: identity})
}

// UpdateMe handles PATCH /api/v1/me with a partial identity.
func (h AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var patch models.IdentityPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		respondError(ctx, w, http.StatusBadRequest, "username must not be empty")
		return
	}

	if err := latency.Wait(ctx, h.SaveLatency); err != nil {
		w.WriteHeader(statusClientClosedRequest)
		return
	}

	identity, err := h.Sessions.UpdateUser(ctx, patch)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			respondError(ctx, w, http.StatusUnauthorized, "authentication required")
			return
		}
		logger.Error("profile update failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	respondJSON(ctx, w, http.StatusOK, identityResponse{User: identity})
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset. The issued
// code is returned in the body since there is no mail delivery.
func (h AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	otp, err := h.Recovery.Begin(ctx, req.Email)
	if err != nil {
		h.recoveryFailed(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusAccepted, map[string]string{
		"status": "OTP has been sent to your email",
		"otp":    otp,
	})
}

// VerifyPasswordReset handles POST /api/v1/auth/password-reset/verify.
func (h AuthHandler) VerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Recovery.Verify(ctx, req.Email, req.OTP); err != nil {
		h.recoveryFailed(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "OTP verified successfully"})
}

// CompletePasswordReset handles POST /api/v1/auth/password-reset/complete.
func (h AuthHandler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Recovery.Reset(ctx, req.Email, req.OTP, req.NewPassword, req.ConfirmPassword); err != nil {
		h.recoveryFailed(w, r, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "Password has been reset successfully"})
}

func (h AuthHandler) recoveryFailed(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, recovery.ErrMissingField):
		respondError(ctx, w, http.StatusBadRequest, "Please fill in all fields")
	case errors.Is(err, recovery.ErrPasswordMismatch):
		respondError(ctx, w, http.StatusBadRequest, "Passwords do not match")
	case errors.Is(err, recovery.ErrInvalidOTP), errors.Is(err, recovery.ErrTicketNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Invalid OTP. Please try again.")
	case errors.Is(err, recovery.ErrTicketExpired):
		respondError(ctx, w, http.StatusGone, "OTP has expired")
	case errors.Is(err, recovery.ErrNotVerified):
		respondError(ctx, w, http.StatusBadRequest, "Please verify the OTP first")
	case canceled(err):
		w.WriteHeader(statusClientClosedRequest)
	default:
		logging.FromContext(ctx).Error("password recovery failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to process password reset")
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type identityResponse struct {
	User models.Identity `json:"user"`
}
