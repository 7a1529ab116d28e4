// Command monitor runs the provider health monitor: a watcher that
// polls provider health on an interval, notifies on state transitions,
// and serves the HTTP API for operators.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/api"
	"github.com/providerpulse/providerpulse/internal/api/middleware"
	"github.com/providerpulse/providerpulse/internal/auth"
	"github.com/providerpulse/providerpulse/internal/config"
	"github.com/providerpulse/providerpulse/internal/database"
	"github.com/providerpulse/providerpulse/internal/health"
	"github.com/providerpulse/providerpulse/internal/health/probe"
	"github.com/providerpulse/providerpulse/internal/health/studio"
	"github.com/providerpulse/providerpulse/internal/kvstore"
	"github.com/providerpulse/providerpulse/internal/notify"
	"github.com/providerpulse/providerpulse/internal/resilience"
	"github.com/providerpulse/providerpulse/internal/telemetry"
	"github.com/providerpulse/providerpulse/internal/watch"
)

const serviceName = "providerpulse-monitor"

// Version and BuildTime are set at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	printToken := flag.String("print-admin-token", "", "print an admin token for the given operator and exit")
	flag.Parse()

	// A .env file is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	signingKey := cfg.Auth.SigningKey
	if signingKey == "" {
		signingKey = "dev-secret-change-me"
		logger.Warn().Msg("JWT_SIGNING_KEY not set, using insecure default")
	}
	tokenService := auth.NewTokenService(auth.TokenConfig{
		SigningKey: signingKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	})

	if *printToken != "" {
		token, expiresAt, err := tokenService.GenerateAdminToken(*printToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "monitor: generate admin token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
		return
	}

	ctx := context.Background()

	// Initialize telemetry
	telemetryProvider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize HTTP metrics, continuing without")
		metrics = nil
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("kind", cfg.Store.Kind).Msg("failed to initialize state store")
	}
	defer closeStore()

	registry := resilience.NewRegistry()
	source := newSource(cfg, registry, logger)

	history := notify.NewHistory(cfg.Monitor.HistorySize)
	notifier, closeNotifiers, err := newNotifier(ctx, cfg, history, registry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize notifiers")
	}
	defer closeNotifiers()

	stateStore := watch.NewStateStore(store)
	watcher := watch.NewWatcher(ctx, watch.Config{
		Source:   source,
		Store:    stateStore,
		Notifier: notifier,
		Interval: cfg.Monitor.Interval.Std(),
		Cooldown: cfg.Monitor.Cooldown.Std(),
		Logger:   logger,
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       logger,
		ServiceName:  serviceName,
		Metrics:      metrics,
		TokenService: tokenService,
		Watcher:      watcher,
		StateStore:   stateStore,
		History:      history,
		Registry:     registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("environment", cfg.Environment).
			Str("source", cfg.Source.Kind).
			Str("store", cfg.Store.Kind).
			Msg("starting monitor")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	// Drain in-flight requests before the deferred cleanup stops the
	// watcher and closes the sinks.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("monitor exited")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
}

// newStore builds the key-value store behind the watcher state. The
// returned close function releases the underlying connection pool, if
// any.
func newStore(ctx context.Context, cfg *config.Config) (kvstore.Store, func(), error) {
	switch cfg.Store.Kind {
	case "file":
		fileStore, err := kvstore.NewFileStore(cfg.Store.File.Path)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, func() {}, nil

	case "postgres":
		pg := cfg.Store.Postgres
		pool, err := database.Connect(ctx, database.Config{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}

		pgStore := kvstore.NewPostgresStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgStore, pool.Close, nil

	default:
		return kvstore.NewMemoryStore(), func() {}, nil
	}
}

// newSource builds the configured health source. Config validation has
// already pinned the kind to a known value.
func newSource(cfg *config.Config, registry *resilience.Registry, logger zerolog.Logger) health.Source {
	if cfg.Source.Kind == "probe" {
		targets := make([]probe.Target, 0, len(cfg.Source.Probe.Targets))
		for _, target := range cfg.Source.Probe.Targets {
			targets = append(targets, probe.Target{Name: target.Name, URL: target.URL})
		}
		return probe.NewProber(probe.ProberConfig{
			Targets:     targets,
			Concurrency: cfg.Source.Probe.Concurrency,
			Timeout:     cfg.Source.Probe.Timeout.Std(),
			Logger:      logger,
		})
	}

	clientCfg := resilience.DefaultClientConfig(studio.SourceName)
	clientCfg.Registry = registry
	return studio.NewClient(studio.ClientConfig{
		BaseURL:    cfg.Source.Studio.BaseURL,
		APIKey:     cfg.Source.Studio.APIKey,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     logger,
	})
}

// newNotifier assembles the enabled notification sinks behind one
// fan-out notifier. The history sink is always first so the API sees
// every event even when external delivery fails.
func newNotifier(ctx context.Context, cfg *config.Config, history *notify.History, registry *resilience.Registry, logger zerolog.Logger) (notify.Notifier, func(), error) {
	listeners := []notify.Notifier{history}
	closeFuncs := []func(){}

	if cfg.Notify.Log {
		listeners = append(listeners, notify.NewLogNotifier(logger))
	}

	if cfg.Notify.Webhook.URL != "" {
		clientCfg := resilience.DefaultClientConfig("webhook")
		clientCfg.Registry = registry
		listeners = append(listeners, notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:        cfg.Notify.Webhook.URL,
			AuthToken:  cfg.Notify.Webhook.BearerToken,
			HTTPClient: resilience.NewClient(clientCfg),
			Logger:     logger,
		}))
	}

	if cfg.Notify.PubSub.ProjectID != "" {
		pubsubNotifier, err := notify.NewPubSubNotifier(ctx, notify.PubSubConfig{
			ProjectID: cfg.Notify.PubSub.ProjectID,
			TopicName: cfg.Notify.PubSub.Topic,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		listeners = append(listeners, pubsubNotifier)
		closeFuncs = append(closeFuncs, func() {
			if err := pubsubNotifier.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close pubsub notifier")
			}
		})
	}

	closeAll := func() {
		for _, fn := range closeFuncs {
			fn()
		}
	}

	return notify.NewMulti(logger, listeners...), closeAll, nil
}
