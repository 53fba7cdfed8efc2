package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vlc/internal/auth/lockout"
	authservice "vlc/internal/auth/service"
	"vlc/internal/auth/store/account"
	"vlc/internal/auth/store/configentry"
	"vlc/internal/configcache"
	"vlc/internal/guard"
	"vlc/internal/identity"
	"vlc/internal/identity/local"
	"vlc/internal/identity/rest"
	"vlc/internal/platform/config"
	"vlc/internal/platform/database"
	"vlc/internal/platform/logger"
	"vlc/internal/platform/metrics"
	platformredis "vlc/internal/platform/redis"
	"vlc/internal/seeder"
	"vlc/internal/session"
	"vlc/internal/syncstatus"
	httptransport "vlc/internal/transport/http"
	"vlc/migrations"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	log.Info("initializing vlc auth client",
		"addr", cfg.Addr,
		"guard_interval", cfg.GuardInterval,
	)

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close() //nolint:errcheck // best-effort on shutdown

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	var (
		accounts account.Store
		entries  configentry.Store
		syncRuns syncstatus.Store
	)
	if pool != nil {
		if cfg.MigrateOnStart {
			if err := pool.Migrate(context.Background(), migrations.FS); err != nil {
				log.Error("migrations failed", "error", err)
				os.Exit(1)
			}
		}
		accounts = account.NewPostgres(pool.DB())
		entries = configentry.NewPostgres(pool.DB())
		syncRuns = syncstatus.NewPostgres(pool.DB())
	} else {
		log.Warn("no database configured, using in-memory stores")
		memAccounts := account.New()
		memEntries := configentry.New()
		accounts = memAccounts
		entries = memEntries
		syncRuns = syncstatus.New()

		if cfg.SeedDemo {
			if err := seeder.New(memAccounts, memEntries, log).SeedAll(context.Background()); err != nil {
				log.Error("demo seeding failed", "error", err)
				os.Exit(1)
			}
		}
	}

	cache := configcache.New(entries,
		configcache.WithTTL(cfg.ConfigCacheTTL),
		configcache.WithLogger(log),
		configcache.WithMetrics(m),
	)

	var persist session.Persistence
	if redisClient != nil {
		persist, err = session.NewRedisPersistence(redisClient)
	} else {
		persist, err = session.NewFilePersistence(cfg.SessionDir)
	}
	if err != nil {
		log.Error("session persistence init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionStore := session.New(ctx, persist,
		session.WithLogger(log),
		session.WithMetrics(m),
	)

	var provider identity.Provider
	switch {
	case cfg.IdentityEndpoint != "":
		provider, err = rest.New(cfg.IdentityEndpoint, cfg.IdentityAPIKey)
	case cfg.SigningKey != "":
		provider, err = local.New(accounts, []byte(cfg.SigningKey))
	default:
		log.Error("no identity provider configured: set VLC_IDENTITY_ENDPOINT or VLC_SIGNING_KEY")
		os.Exit(1)
	}
	if err != nil {
		log.Error("identity provider init failed", "error", err)
		os.Exit(1)
	}

	tracker, err := lockout.New(accounts, cache,
		lockout.WithLogger(log),
		lockout.WithMetrics(m),
		lockout.WithProvider(provider),
	)
	if err != nil {
		log.Error("lockout service init failed", "error", err)
		os.Exit(1)
	}

	auth, err := authservice.New(provider, tracker, cache, sessionStore,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAccountStore(accounts),
	)
	if err != nil {
		log.Error("auth service init failed", "error", err)
		os.Exit(1)
	}

	g, err := guard.New(sessionStore,
		guard.WithInterval(cfg.GuardInterval),
		guard.WithLogger(log),
		guard.WithMetrics(m),
		guard.WithProvider(provider),
	)
	if err != nil {
		log.Error("guard init failed", "error", err)
		os.Exit(1)
	}

	syncSvc, err := syncstatus.NewService(syncRuns, syncstatus.WithLogger(log))
	if err != nil {
		log.Error("sync status service init failed", "error", err)
		os.Exit(1)
	}

	var handlerOpts []httptransport.HandlerOption
	var dbCheck, redisCheck httptransport.HealthChecker
	if pool != nil {
		dbCheck = pool
	}
	if redisClient != nil {
		redisCheck = redisClient
	}
	handlerOpts = append(handlerOpts, httptransport.WithHealthCheckers(dbCheck, redisCheck))
	if cfg.AdminToken != "" {
		handlerOpts = append(handlerOpts, httptransport.WithAdminToken(cfg.AdminToken))
	}

	handler := httptransport.NewHandler(auth, tracker, sessionStore, g, syncSvc, log, handlerOpts...)
	router := httptransport.NewRouter(handler, log, m)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		// The guard ticker keeps the stored session honest even when no
		// requests arrive.
		err := g.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
