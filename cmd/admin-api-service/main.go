package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payrouter/internal/adapters"
	"payrouter/internal/adminapi"
	"payrouter/internal/policy"
	"payrouter/pkg/cache"
	"payrouter/pkg/config"
	pdb "payrouter/pkg/db"
	"payrouter/pkg/logger"
	"payrouter/pkg/merchants"
	"payrouter/pkg/middleware"
	"payrouter/pkg/users"
)

func main() {
	cfg := config.Load()
	cfg.ServiceName = "payrouter-admin"
	log := logger.New(cfg.Env, cfg.ServiceName)
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatalw("config", "err", err)
	}
	ctx := context.Background()

	pool, err := pdb.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatalw("postgres", "err", err)
	}
	store, err := merchants.Open(ctx, pool, []byte(cfg.MasterKey), cfg.MerchantSeed, log)
	if err != nil {
		log.Fatalw("merchants", "err", err)
	}

	var backend cache.Backend = cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
	rdb, err := pdb.ConnectRedis(ctx, cfg, log)
	if err != nil {
		log.Fatalw("redis", "err", err)
	}
	if rdb != nil {
		backend = cache.NewRedis(rdb, cfg.CacheTTL)
	}
	repo := users.NewMemoryRepository()
	if pool != nil {
		repo = users.NewPostgresRepository(pool)
	}
	eng, err := policy.Load(ctx, cfg.PolicyFile)
	if err != nil {
		log.Fatalw("admission policy", "err", err)
	}

	var keys middleware.KeySource
	if cfg.JWKSURL != "" {
		keys = middleware.JWKSKeySource(cfg.JWKSURL)
	}
	app := adminapi.New(log, cfg, adminapi.Deps{
		Merchants: store,
		Users:     users.NewStore(repo, store, cache.New(backend, "accounts", log)),
		Registry:  adapters.NewRegistry(),
		Policy:    eng,
		Keys:      keys,
	})

	srv := &http.Server{Addr: cfg.AdminAddr, Handler: app.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Infow("admin-api listening", "addr", cfg.AdminAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if pool != nil {
		pool.Close()
	}
	log.Infow("admin-api stopped")
}
