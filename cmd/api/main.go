package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/civicchain/internal/auth"
	"github.com/geocoder89/civicchain/internal/config"
	"github.com/geocoder89/civicchain/internal/db"
	httpx "github.com/geocoder89/civicchain/internal/http"
	"github.com/geocoder89/civicchain/internal/observability"
	"github.com/geocoder89/civicchain/internal/proof"
	"github.com/geocoder89/civicchain/internal/ratelimit"
	"github.com/geocoder89/civicchain/internal/redisclient"
	"github.com/geocoder89/civicchain/internal/repo/memory"
	mongorepo "github.com/geocoder89/civicchain/internal/repo/mongo"
	"github.com/geocoder89/civicchain/internal/repo/postgres"
	"github.com/geocoder89/civicchain/internal/security"
	"github.com/geocoder89/civicchain/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const serviceName = "civicchain-api"

// userStore is what the services need plus a readiness probe.
type userStore interface {
	service.CredentialStore
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config invalid", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	store, closeStore, err := openStore(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	log.Info("credential store ready", "driver", cfg.StoreDriver)

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Error("token manager init failed", "err", err)
		os.Exit(1)
	}

	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	var verifier proof.Verifier = proof.Asserted{}
	if cfg.ProofVerifierURL != "" {
		remote := proof.NewProtected(
			proof.NewHTTPVerifier(cfg.ProofVerifierURL, cfg.ProofVerifierTimeout),
			proof.ProtectedConfig{Timeout: cfg.ProofVerifierTimeout},
		)
		verifier = proof.NewCached(remote, 10*time.Minute)
		log.Info("remote proof verifier enabled", "url", cfg.ProofVerifierURL)
	} else {
		log.Warn("no proof verifier configured, proofs are trusted as submitted")
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		if err := redisclient.Check(ctx, rdb, 3*time.Second); err != nil {
			log.Warn("redis unreachable, limiter will fail open until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		limiter = ratelimit.NewRedis(rdb, "civicchain:ratelimit", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	router := httpx.NewRouter(httpx.Deps{
		Env:            cfg.Env,
		ServiceName:    serviceName,
		Log:            log,
		Prom:           prom,
		Accounts:       service.NewAccounts(store, hasher, tokens),
		Verifier:       service.NewVerification(tokens, store, verifier),
		Ping:           store.Ping,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if rdb != nil {
			_ = rdb.Close()
		}
		closeStore(ctx)

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// openStore builds the credential store named by STORE_DRIVER and returns a
// closer for its underlying connection.
func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (userStore, func(context.Context), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewUsersRepo(), func(context.Context) {}, nil

	case config.DriverMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo, err := mongorepo.NewUsersRepo(ctx, client.Database(cfg.MongoDatabase), prom)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return repo, func(ctx context.Context) { _ = client.Disconnect(ctx) }, nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewUsersRepo(pool, prom), func(context.Context) { pool.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
