package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"linkframe/internal/config"
	"linkframe/internal/events"
	"linkframe/internal/http/server"
	"linkframe/internal/kv"
	"linkframe/internal/kv/inmemory"
	"linkframe/internal/kv/postgres"
	"linkframe/internal/kv/redis"
	"linkframe/internal/kv/sqlite"
	"linkframe/internal/logger"
	"linkframe/internal/metrics"
	"linkframe/internal/services/analytics"
	"linkframe/internal/services/embed"
	"linkframe/internal/services/links"
	"linkframe/internal/services/oauth"
	"linkframe/internal/services/sessions"
	"linkframe/internal/services/shortcode"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.NewConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zerolog.Logger) error {
	if cfg.StateSecretGenerated {
		log.Warn().Msg("STATE_SECRET is not set, using a random secret: sign in breaks on restart")
	}

	m := metrics.New()

	// хранилище открывается при первом запросе, ошибка открытия не повторяется
	store := kv.NewLazy(func(ctx context.Context) (kv.Store, error) {
		return openStore(context.WithoutCancel(ctx), cfg, log)
	})
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	var publisher events.ClickPublisher = events.Noop{}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL, *log)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		publisher = p
	}
	defer publisher.Close()

	deps := server.Deps{
		Store: store,
		Links: links.NewRegistry(store, shortcode.NewGenerator(), *log,
			links.WithCreateHook(m.LinksCreated.Inc),
		),
		Clicks: analytics.NewRecorder(store, *log,
			analytics.WithMetrics(m),
			analytics.WithPublisher(publisher),
			analytics.WithRetry(cfg.ClickAttempts, 5*time.Millisecond, 200*time.Millisecond),
		),
		Sessions: sessions.NewStore(store, *log),
		Embed: embed.NewClassifier(*log,
			embed.WithTimeout(cfg.ProbeTimeout),
			embed.WithMetrics(m),
		),
		Metrics: m,
	}
	if cfg.OAuthEnabled() {
		deps.OAuth = oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL, []byte(cfg.StateSecret))
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET are not set, sign in is disabled")
	}

	srv, err := server.NewServer(log, *cfg, deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (kv.Store, error) {
	log.Info().Str("driver", cfg.StoreDriver).Msg("opening store")

	var (
		db  *kv.DB
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err = sqlite.New(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		db, err = postgres.New(ctx, cfg.DatabaseDSN)
	case config.DriverRedis:
		db, err = redis.New(ctx, cfg.RedisURL)
	default:
		db = inmemory.New()
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return db, nil
}
