// Package recovery implements the password recovery flow: a one-time code is
// issued for an email address, verified, and then exchanged for a new password.
package recovery

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
)

var (
	// ErrMissingField indicates a required input was blank.
	ErrMissingField = errors.New("required field is missing")
	// ErrInvalidOTP indicates the code does not match the one issued.
	ErrInvalidOTP = errors.New("invalid one-time code")
	// ErrPasswordMismatch indicates the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrTicketNotFound indicates no recovery was started for the email.
	ErrTicketNotFound = errors.New("recovery ticket not found")
	// ErrTicketExpired indicates the one-time code is too old to be used.
	ErrTicketExpired = errors.New("recovery ticket expired")
	// ErrNotVerified indicates Reset was called before the code was verified.
	ErrNotVerified = errors.New("recovery code not verified")
	// ErrNoCredential indicates no password has been set for the email.
	ErrNoCredential = errors.New("credential not found")
)

// DefaultTTL bounds how long an issued code stays valid.
const DefaultTTL = 15 * time.Minute

// DefaultResetLatency is the simulated delay of Reset.
const DefaultResetLatency = 1500 * time.Millisecond

// Ticket is an outstanding recovery for one email address.
type Ticket struct {
	Email     string
	OTPHash   []byte
	ExpiresAt time.Time
	Verified  bool
}

// TicketStore persists outstanding tickets keyed by email.
type TicketStore interface {
	Save(ctx context.Context, ticket Ticket) error
	Find(ctx context.Context, email string) (Ticket, error)
	Delete(ctx context.Context, email string) error
}

// CredentialStore keeps the bcrypt password hash for each email.
type CredentialStore interface {
	SetPasswordHash(ctx context.Context, email string, hash []byte) error
	PasswordHash(ctx context.Context, email string) ([]byte, error)
}

// Option customises a Manager.
type Option func(*Manager)

// WithCredentials replaces the in-memory credential store.
func WithCredentials(credentials CredentialStore) Option {
	return func(m *Manager) {
		if credentials != nil {
			m.credentials = credentials
		}
	}
}

// Manager drives recovery tickets through issue, verify and reset.
type Manager struct {
	ttl          time.Duration
	resetLatency time.Duration
	store        TicketStore
	credentials  CredentialStore
	now          func() time.Time
}

// NewManager constructs a Manager issuing codes valid for ttl.
func NewManager(ttl, resetLatency time.Duration, store TicketStore, opts ...Option) *Manager {
	if store == nil {
		panic("recovery: ticket store must not be nil")
	}
	m := &Manager{
		ttl:          ttl,
		resetLatency: resetLatency,
		store:        store,
		credentials:  NewInMemoryCredentialStore(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin issues a fresh six digit code for email, replacing any earlier one.
// The code is returned so the caller can deliver it.
func (m *Manager) Begin(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("begin recovery: email: %w", ErrMissingField)
	}

	otp, err := randomOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	if err := m.store.Save(ctx, Ticket{
		Email:     email,
		OTPHash:   hash,
		ExpiresAt: m.now().Add(m.ttl),
	}); err != nil {
		return "", fmt.Errorf("save ticket: %w", err)
	}

	metrics.StoreOp("recovery", "begin")
	logging.FromContext(ctx).Info("recovery code issued", "email", email)
	return otp, nil
}

// Verify checks otp against the code issued for email and marks the ticket
// verified.
func (m *Manager) Verify(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(otp) == "" {
		return fmt.Errorf("verify recovery: %w", ErrMissingField)
	}

	ticket, err := m.check(ctx, email, otp)
	if err != nil {
		return err
	}
	ticket.Verified = true
	if err := m.store.Save(ctx, ticket); err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	metrics.StoreOp("recovery", "verify")
	return nil
}

// Reset stores a new password hash for email once otp checks out and the
// ticket has been verified. The ticket is consumed on success.
func (m *Manager) Reset(ctx context.Context, email, otp, password, confirm string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(otp) == "" || password == "" || confirm == "" {
		return fmt.Errorf("reset password: %w", ErrMissingField)
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	ticket, err := m.check(ctx, email, otp)
	if err != nil {
		return err
	}
	if !ticket.Verified {
		return ErrNotVerified
	}

	if err := latency.Wait(ctx, m.resetLatency); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := m.credentials.SetPasswordHash(ctx, ticket.Email, hash); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	if err := m.store.Delete(ctx, ticket.Email); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	metrics.StoreOp("recovery", "reset")
	logging.FromContext(ctx).Info("password reset", "email", email)
	return nil
}

// CheckPassword reports whether password matches the one last set for email.
func (m *Manager) CheckPassword(ctx context.Context, email, password string) error {
	hash, err := m.credentials.PasswordHash(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (m *Manager) check(ctx context.Context, email, otp string) (Ticket, error) {
	ticket, err := m.store.Find(ctx, email)
	if err != nil {
		return Ticket{}, err
	}
	if m.now().After(ticket.ExpiresAt) {
		_ = m.store.Delete(ctx, email)
		return Ticket{}, ErrTicketExpired
	}
	if bcrypt.CompareHashAndPassword(ticket.OTPHash, []byte(strings.TrimSpace(otp))) != nil {
		return Ticket{}, ErrInvalidOTP
	}
	return ticket, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
