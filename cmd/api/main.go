package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tripsync/planner/internal/adapters/httpapi"
	memactivityrepo "github.com/tripsync/planner/internal/adapters/memory/activityrepo"
	memidempotency "github.com/tripsync/planner/internal/adapters/memory/idempotency"
	memmemberrepo "github.com/tripsync/planner/internal/adapters/memory/memberrepo"
	memtriprepo "github.com/tripsync/planner/internal/adapters/memory/triprepo"
	"github.com/tripsync/planner/internal/adapters/postgres"
	pgactivityrepo "github.com/tripsync/planner/internal/adapters/postgres/activityrepo"
	pgidempotency "github.com/tripsync/planner/internal/adapters/postgres/idempotency"
	pgmemberrepo "github.com/tripsync/planner/internal/adapters/postgres/memberrepo"
	pgtriprepo "github.com/tripsync/planner/internal/adapters/postgres/triprepo"
	"github.com/tripsync/planner/internal/app/activities"
	"github.com/tripsync/planner/internal/app/trips"
	"github.com/tripsync/planner/internal/domain"
	platformclock "github.com/tripsync/planner/internal/platform/clock"
	"github.com/tripsync/planner/internal/platform/config"
	activityrepoport "github.com/tripsync/planner/internal/ports/out/activityrepo"
	idempotencyport "github.com/tripsync/planner/internal/ports/out/idempotency"
	memberrepoport "github.com/tripsync/planner/internal/ports/out/memberrepo"
	triprepoport "github.com/tripsync/planner/internal/ports/out/triprepo"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	clk := platformclock.NewSystemClock()

	var (
		memberRepo   memberrepoport.Repository
		tripRepo     triprepoport.Repository
		activityRepo activityrepoport.Repository
		idemStore    idempotencyport.Store
		cleanup      func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.WithError(err).Fatal("migrate schema")
		}
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		cleanup = pool.Close

		memberRepo = pgmemberrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		activityRepo = pgactivityrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		memberRepo = memmemberrepo.NewRepo()
		tripRepo = memtriprepo.NewRepo()
		activityRepo = memactivityrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}
	if cleanup != nil {
		defer cleanup()
	}

	// The memory backend starts empty and the API has no signup or
	// trip-creation endpoints, so an unseeded instance would be inert.
	var demo *demoSeed
	if cfg.StorageBackend == "memory" && cfg.SeedDemo {
		demo, err = seedDemoData(context.Background(), memberRepo, tripRepo, activityRepo, clk.Now())
		if err != nil {
			log.WithError(err).Fatal("seed demo data")
		}
		log.WithFields(logrus.Fields{"trip": demo.trip, "members": len(demo.members)}).Info("seeded demo data")
	}

	var authMW func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case "token":
		tokens := make(map[string]domain.UserID, len(cfg.Tokens))
		for tok, id := range cfg.Tokens {
			tokens[tok] = domain.UserID(id)
		}
		if len(tokens) == 0 {
			if demo == nil {
				log.Fatal("AUTH_MODE=token requires AUTH_TOKENS")
			}
			// Seeded dev instance: mint one throwaway token per demo
			// member so token-mode flows are testable out of the box.
			for _, m := range demo.members {
				tok := uuid.NewString()
				tokens[tok] = m.id
				log.WithFields(logrus.Fields{"member": m.name, "user": m.id, "token": tok}).Warn("generated demo token")
			}
		}
		authMW = httpapi.NewTokenAuthMiddleware(tokens)
	default:
		authMW = httpapi.NewDevAuthMiddleware(domain.UserID(cfg.DevUser))
	}

	tripSvc := trips.NewService(tripRepo)
	activitySvc := activities.NewService(activityRepo, tripRepo, memberRepo, clk)
	api := httpapi.NewServer(tripSvc, activitySvc, idemStore, log)

	opts := httpapi.RouterOptions{
		AuthMiddleware: authMW,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	}
	if cfg.RateLimitPerSecond > 0 {
		opts.RateLimit = httpapi.NewRateLimitMiddleware(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
	handler := httpapi.NewRouterWithOptions(api, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "backend": cfg.StorageBackend, "auth": cfg.AuthMode}).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
