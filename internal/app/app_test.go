package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/picshare/backend/internal/config"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/session"
)

func unreadGauge(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	if err := metrics.UnreadNotifications.Write(&m); err != nil {
		t.Fatalf("read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppPort:     8080,
		SlotBackend: config.SlotSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "slot.db"),
		RecoveryTTL: time.Minute,
		RateLimit:   config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5},
	}
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig(t)
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	sessions := session.NewManager(session.NewMemorySlot(), session.WithLatency(0))
	deps, cleanup, err := buildDependencies(context.Background(), cfg, sessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer cleanup()

	if deps.Sessions == nil || deps.Content == nil || deps.Chats == nil || deps.Notifications == nil {
		t.Fatal("expected stores to be configured")
	}
	if deps.Profiles == nil || deps.Settings == nil || deps.Recovery == nil {
		t.Fatal("expected profiles, settings and recovery to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media publisher to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
}

func TestBuildDependenciesTracksUnreadGauge(t *testing.T) {
	sessions := session.NewManager(session.NewMemorySlot(), session.WithLatency(0))
	deps, cleanup, err := buildDependencies(context.Background(), testConfig(t), sessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	if _, err := deps.Notifications.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := unreadGauge(t); got != 3 {
		t.Fatalf("expected unread gauge 3 got %v", got)
	}
	deps.Notifications.MarkAllRead()
	if got := unreadGauge(t); got != 0 {
		t.Fatalf("expected unread gauge 0 got %v", got)
	}
}

func TestOpenSlotBackends(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.SlotBackend = config.SlotMemory
	slot, closeSlot, err := openSlot(ctx, cfg)
	if err != nil {
		t.Fatalf("memory slot: %v", err)
	}
	if _, ok := slot.(*session.MemorySlot); !ok {
		t.Fatalf("expected memory slot got %T", slot)
	}
	_ = closeSlot()

	cfg.SlotBackend = "redis"
	if _, _, err := openSlot(ctx, cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSeedWritesIdentityRestoredBySession(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	identity, err := seedIdentity([]string{"riya"})
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	if err := seed(ctx, cfg, identity); err != nil {
		t.Fatalf("seed: %v", err)
	}

	slot, closeSlot, err := openSlot(ctx, cfg)
	if err != nil {
		t.Fatalf("open slot: %v", err)
	}
	defer closeSlot()

	sessions := session.NewManager(slot, session.WithLatency(0))
	if err := sessions.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	current, ok := sessions.Current()
	if !ok || current.Username != "riya" {
		t.Fatalf("expected riya restored got %+v (ok=%v)", current, ok)
	}
}

func TestSeedReportsCloseFailure(t *testing.T) {
	slot := session.NewMemorySlot()
	closeErr := errors.New("disk full")
	identity, _ := seedIdentity(nil)

	err := seedSlot(context.Background(), slot, func() error { return closeErr }, identity)
	if !errors.Is(err, closeErr) {
		t.Fatalf("expected close error got %v", err)
	}
	if slot.Saves() != 1 {
		t.Fatalf("expected identity saved before close got %d saves", slot.Saves())
	}

	if err := seedSlot(context.Background(), slot, func() error { return nil }, identity); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestSeedRejectsMemoryBackendAndUnknownUsers(t *testing.T) {
	cfg := testConfig(t)
	cfg.SlotBackend = config.SlotMemory

	identity, err := seedIdentity(nil)
	if err != nil {
		t.Fatalf("default identity: %v", err)
	}
	if identity.Username != "johndoe" {
		t.Fatalf("expected johndoe got %s", identity.Username)
	}
	if err := seed(context.Background(), cfg, identity); err == nil {
		t.Fatal("expected memory backend to be rejected")
	}
	if _, err := seedIdentity([]string{"nobody"}); err == nil {
		t.Fatal("expected unknown user error")
	}
}

func TestRootCommandRejectsUnknownInput(t *testing.T) {
	for _, args := range [][]string{{"launch"}, {"migrate", "down"}, {"serve", "extra"}} {
		root := NewRootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		if err := root.ExecuteContext(context.Background()); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestRunRequiresCommand(t *testing.T) {
	err := Run(context.Background(), []string{"launch"})
	if err == nil || errors.Is(err, context.Canceled) {
		t.Fatalf("expected unknown command error got %v", err)
	}
}
