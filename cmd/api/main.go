package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/httpapi"
	memcrewrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/crewrepo"
	memidempotency "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/idempotency"
	memidentity "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/identity"
	memlocationrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/memory/locationrepo"
	postgres "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres"
	pgcrewrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/crewrepo"
	pgidempotency "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/idempotency"
	pglocationrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/locationrepo"
	"github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/migrate"
	sbcrewrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/supabase/crewrepo"
	sbidentity "github.com/fieldcrew/crew-tracker-api/internal/adapters/supabase/identity"
	sblocationrepo "github.com/fieldcrew/crew-tracker-api/internal/adapters/supabase/locationrepo"
	"github.com/fieldcrew/crew-tracker-api/internal/adapters/ws"
	"github.com/fieldcrew/crew-tracker-api/internal/app/authn"
	"github.com/fieldcrew/crew-tracker-api/internal/app/crew"
	"github.com/fieldcrew/crew-tracker-api/internal/app/locations"
	"github.com/fieldcrew/crew-tracker-api/internal/app/users"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/fieldcrew/crew-tracker-api/internal/platform/clock"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/config"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/logging"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/supabase"
	clockport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/clock"
	crewrepoport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/crewrepo"
	idempotencyport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/idempotency"
	identityport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
	locationrepoport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/locationrepo"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New("crew-tracker-api", logging.ParseLevel(cfg.LogLevel))

	if err := serve(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

// Replays of admin writes are only honoured for a day in the in-process store.
const idempotencyRetention = 24 * time.Hour

type storage struct {
	directory crewrepoport.Reader
	roster    crewrepoport.Repository
	locations locationrepoport.Repository
	idem      idempotencyport.Store
	cleanup   func()

	// prune drops expired idempotency records; nil when the store expires them itself.
	prune func(context.Context) (int64, error)
}

func openStorage(ctx context.Context, cfg config.Config, platform *supabase.Provider, clk clockport.Clock, log *slog.Logger) (storage, error) {
	switch cfg.StorageBackend {
	case config.BackendSupabase:
		// Public listings and location traffic use the anonymous key; admin writes need the service role.
		return storage{
			directory: sbcrewrepo.NewRepo(platform.RestrictedSource()),
			roster:    sbcrewrepo.NewRepo(platform.PrivilegedSource()),
			locations: sblocationrepo.NewRepo(platform.RestrictedSource()),
			idem:      memidempotency.NewStoreWithRetention(clk, idempotencyRetention),
		}, nil
	case config.BackendPostgres:
		if cfg.MigrateOnStart {
			runner, err := migrate.New(cfg.DatabaseURL, log)
			if err != nil {
				return storage{}, err
			}
			if err := runner.Up(ctx); err != nil {
				return storage{}, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return storage{}, fmt.Errorf("open postgres: %w", err)
		}
		roster := pgcrewrepo.NewRepo(pool)
		idem := pgidempotency.NewStore(pool, pgidempotency.WithRetention(clk, idempotencyRetention))
		return storage{
			directory: roster,
			roster:    roster,
			locations: pglocationrepo.NewRepo(pool),
			idem:      idem,
			cleanup:   pool.Close,
			prune:     idem.Prune,
		}, nil
	default:
		roster := memcrewrepo.NewRepo()
		return storage{
			directory: roster,
			roster:    roster,
			locations: memlocationrepo.NewRepo(),
			idem:      memidempotency.NewStoreWithRetention(clk, idempotencyRetention),
		}, nil
	}
}

func openIdentities(cfg config.Config, platform *supabase.Provider, log *slog.Logger) identityport.Provider {
	if cfg.IdentityBackend == config.BackendSupabase {
		return sbidentity.NewProvider(platform.PrivilegedSource())
	}
	ids := memidentity.NewProvider()
	// Local mode: optionally seed one admin so tokens from devjwt pass the admin gate.
	if sub := os.Getenv("DEV_ADMIN_SUBJECT"); sub != "" {
		role := domain.RoleAdmin
		org := domain.OrgID(getenv("DEV_ADMIN_ORG", "dev-org"))
		ids.Put(domain.Identity{
			ID:             domain.IdentityID(sub),
			Email:          getenv("DEV_ADMIN_EMAIL", "admin@example.com"),
			Name:           "Local Admin",
			Role:           &role,
			OrganizationID: &org,
		})
		log.Info("seeded local admin identity", "subject", sub, "organization_id", org)
	}
	return ids
}

func serve(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := platformclock.NewSystemClock()
	platform := supabase.NewProvider(cfg.Platform, nil)

	store, err := openStorage(ctx, cfg, platform, clk, log)
	if err != nil {
		return err
	}
	if store.cleanup != nil {
		defer store.cleanup()
	}
	ids := openIdentities(cfg, platform, log)

	var limiter httpapi.RateLimiter
	if cfg.RateLimit.RedisAddr != "" {
		limiter, err = httpapi.NewRedisRateLimiter(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB, log)
		if err != nil {
			return fmt.Errorf("connect rate limiter: %w", err)
		}
	}

	hub := ws.NewHub(log)
	router := httpapi.NewRouter(httpapi.Deps{
		Locations: locations.NewService(store.locations, hub, clk, log),
		Crew: crew.NewService(crew.Deps{
			Directory:   store.directory,
			Roster:      store.roster,
			Identities:  ids,
			Clock:       clk,
			Logger:      log,
			FrontendURL: cfg.Platform.FrontendURL,
		}),
		Users:                 users.NewService(ids, log),
		Verifier:              authn.NewVerifier(jwtverifier.New(cfg.JWT), ids),
		Idempotency:           store.idem,
		Hub:                   hub,
		Limiter:               limiter,
		LocationRatePerMinute: cfg.RateLimit.LocationPerMinute,
		Clock:                 clk,
		Logger:                log,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var g run.Group
	g.Add(func() error {
		log.Info("api listening",
			"addr", srv.Addr,
			"storage_backend", cfg.StorageBackend,
			"identity_backend", cfg.IdentityBackend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		_ = srv.Shutdown(shutdownCtx)
	})
	if store.prune != nil {
		pruneCtx, cancelPrune := context.WithCancel(ctx)
		g.Add(func() error {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				n, err := store.prune(pruneCtx)
				if err != nil && pruneCtx.Err() == nil {
					log.Warn("prune idempotency records", "err", err)
				} else if n > 0 {
					log.Info("pruned idempotency records", "count", n)
				}
				select {
				case <-pruneCtx.Done():
					return nil
				case <-ticker.C:
				}
			}
		}, func(error) {
			cancelPrune()
		})
	}
	g.Add(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return nil
	}, func(error) {
		stop()
	})
	return g.Run()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
