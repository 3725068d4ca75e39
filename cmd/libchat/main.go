// Command libchat runs the campus library chatbot backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/spf13/cobra"

	"github.com/ublc/libchat"
	"github.com/ublc/libchat/completion"
	"github.com/ublc/libchat/completion/anthropic"
	"github.com/ublc/libchat/completion/gemini"
	"github.com/ublc/libchat/completion/openai"
	"github.com/ublc/libchat/config"
	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/inventory"
	"github.com/ublc/libchat/inventory/sqlstore"
	"github.com/ublc/libchat/logging"
	"github.com/ublc/libchat/notify"
	"github.com/ublc/libchat/server"
	"github.com/ublc/libchat/session"
)

func main() {
	root := &cobra.Command{
		Use:           "libchat",
		Short:         "Campus library chatbot backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newSeedCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chatbot HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	store, closeStore, err := newInventoryStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("completion provider ready",
		"provider", provider.Info().Provider, "model", provider.Info().Name)

	var notifier core.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		notifier = notify.NewLogSender(logging.WithComponent(logger, "notify"))
	}

	bot := libchat.New(func(o *libchat.Options) {
		o.SessionStore = sessions
		o.Inventory = store
		o.Provider = provider
		o.Notifier = notifier
		o.Logger = logger
		o.ProviderTimeout = cfg.ProviderTimeout
	})

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), bot.Orchestrator(), func(o *server.Options) {
		o.Logger = logging.WithComponent(logger, "http")
		o.Notifier = notifier
		o.RateLimit = cfg.RateLimit
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the inventory schema and seed the default catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.InventoryDriver == "fixed" {
				return fmt.Errorf("seed requires INVENTORY_DRIVER=sqlite3 or postgres")
			}

			store, err := sqlstore.Open(cfg.InventoryDriver, cfg.InventoryDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			if err := store.Seed(ctx, inventory.DefaultCatalog()); err != nil {
				return err
			}

			books, err := store.Books(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("seeded inventory with %d books\n", len(books))
			return nil
		},
	}
}

func newLogger(cfg *config.Config) logging.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.LogJSON {
		return logging.NewJSONLogger(os.Stdout, level)
	}
	return logging.NewTextLogger(os.Stderr, level)
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (core.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewInMemoryStore(), func() {}, nil
	}

	store, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("sessions backed by redis", "addr", cfg.RedisURL, "ttl", cfg.SessionTTL)
	return store, func() { _ = store.Close() }, nil
}

func newInventoryStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (core.InventoryStore, func(), error) {
	fallback := inventory.NewFixedStore()

	switch cfg.InventoryDriver {
	case "sqlite3", "postgres":
		store, err := sqlstore.Open(cfg.InventoryDriver, cfg.InventoryDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open inventory: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		if err := store.Seed(ctx, inventory.DefaultCatalog()); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("inventory backed by sql", "driver", cfg.InventoryDriver)
		failover := inventory.NewFailover(store, fallback, logging.WithComponent(logger, "inventory"))
		return failover, func() { _ = store.Close() }, nil

	default:
		if cfg.CatalogURL != "" {
			// Read-only mirror deployment: catalog reads come from the
			// remote service, reservations are disabled.
			logger.Info("inventory backed by remote catalog mirror", "url", cfg.CatalogURL)
			mirror := inventory.NewHTTPStore(cfg.CatalogURL, 5*time.Second)
			failover := inventory.NewFailover(mirror, fallback, logging.WithComponent(logger, "inventory"))
			return failover, func() {}, nil
		}
		return fallback, func() {}, nil
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (completion.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(ctx, func(o *gemini.Options) {
			o.APIKey = cfg.GeminiAPIKey
			if cfg.ProviderModel != "" {
				o.Model = cfg.ProviderModel
			}
		})
	case "openai":
		return openai.NewProvider(func(o *openai.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			if cfg.ProviderModel != "" {
				o.Model = openaisdk.ChatModel(cfg.ProviderModel)
			}
		}), nil
	case "anthropic":
		return anthropic.NewProvider(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.ProviderModel != "" {
				o.Model = anthropicsdk.Model(cfg.ProviderModel)
			}
		}), nil
	default:
		return completion.NewMockProvider(), nil
	}
}
