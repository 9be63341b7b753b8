// Package app assembles the picshare service and its command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/picshare/backend/internal/config"
	"github.com/picshare/backend/internal/db"
	"github.com/picshare/backend/internal/fixtures"
	"github.com/picshare/backend/internal/handlers"
	"github.com/picshare/backend/internal/httpserver"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/middleware"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/session"
	"github.com/picshare/backend/internal/telemetry"
)

const serviceName = "picshare"

// Run bootstraps the picshare backend with the given command line arguments.
func Run(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the picshare command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Photo sharing demo backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	slot, closeSlot, err := openSlot(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSlot(); err != nil {
			logger.Warn("close identity slot", "error", err)
		}
	}()

	sessions := session.NewManager(slot, session.WithLatency(cfg.Latency.Auth))
	if err := sessions.Restore(ctx); err != nil {
		return err
	}
	if identity, ok := sessions.Current(); ok {
		logger.Info("restored identity", "userId", identity.ID, "username", identity.Username)
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, sessions)
	if err != nil {
		return err
	}
	defer cleanup()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	handler := middleware.RequestLogger(logger)(mux)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.AppPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("starting http server", "port", cfg.AppPort, "slotBackend", cfg.SlotBackend)
	return httpserver.New(cfg.AppPort, handler, logger).Run(ctx, ln)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply or list Postgres identity slot migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{db.MigrateUp, db.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := db.MigrateUp
			if len(args) > 0 {
				command = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			return db.Migrate(cmd.Context(), pool, cfg.MigrationDir, command, cmd.OutOrStdout())
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [user]",
		Short: "Write a demo identity into the configured slot",
		Long: `Seed signs a demo user into the durable identity slot so the next
serve restores it without a login. The user defaults to the current demo
user and may be given by key or username.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			identity, err := seedIdentity(args)
			if err != nil {
				return err
			}
			if err := seed(cmd.Context(), cfg, identity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s into %s slot\n", identity.Username, cfg.SlotBackend)
			return nil
		},
	}
}

func seedIdentity(args []string) (models.Identity, error) {
	if len(args) == 0 {
		return fixtures.DemoIdentity(), nil
	}
	name := strings.TrimSpace(args[0])
	if identity, ok := fixtures.User(name); ok {
		return identity, nil
	}
	if identity, ok := fixtures.UserByUsername(name); ok {
		return identity, nil
	}
	return models.Identity{}, fmt.Errorf("unknown demo user %q", name)
}

func seed(ctx context.Context, cfg config.Config, identity models.Identity) error {
	if cfg.SlotBackend == config.SlotMemory {
		return fmt.Errorf("the %s slot does not outlive the process and cannot be seeded", config.SlotMemory)
	}

	slot, closeSlot, err := openSlot(ctx, cfg)
	if err != nil {
		return err
	}
	return seedSlot(ctx, slot, closeSlot, identity)
}

// seedSlot saves identity into slot and releases it. A failed release is
// reported since the write may not have reached disk.
func seedSlot(ctx context.Context, slot session.IdentitySlot, closeSlot func() error, identity models.Identity) (err error) {
	defer func() {
		if cerr := closeSlot(); cerr != nil {
			logging.FromContext(ctx).Warn("close identity slot", "error", cerr)
			err = errors.Join(err, fmt.Errorf("close identity slot: %w", cerr))
		}
	}()

	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := slot.Save(saveCtx, identity); err != nil {
		return fmt.Errorf("seed identity: %w", err)
	}
	return nil
}
