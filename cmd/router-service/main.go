// cmd/router-service/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payrouter/internal/adapters"
	"payrouter/internal/connector"
	"payrouter/internal/pipeline"
	"payrouter/internal/policy"
	"payrouter/pkg/config"
	"payrouter/pkg/db"
	"payrouter/pkg/logger"
	"payrouter/pkg/merchants"
	"payrouter/pkg/middleware"
)

func main() {
	cfg := config.Load()
	cfg.ServiceName = "payrouter-router"
	log := logger.New(cfg.Env, cfg.ServiceName)
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatalw("config", "err", err)
	}
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatalw("postgres", "err", err)
	}
	store, err := merchants.Open(ctx, pool, []byte(cfg.MasterKey), cfg.MerchantSeed, log)
	if err != nil {
		log.Fatalw("merchants", "err", err)
	}
	endpoints, err := config.LoadConnectors(cfg.ConnectorsFile)
	if err != nil {
		log.Fatalw("connectors file", "err", err)
	}
	eng, err := policy.Load(ctx, cfg.PolicyFile)
	if err != nil {
		log.Fatalw("admission policy", "err", err)
	}
	shutdownTracing := middleware.InitTracing(cfg, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	exec := pipeline.NewExecutor(adapters.NewRegistry(), pipeline.NewHTTPTransport(cfg.ConnectorTimeout), endpoints, log,
		pipeline.WithMetrics(pipeline.NewMetrics(registry)))

	var keys middleware.KeySource
	if cfg.JWKSURL != "" {
		keys = middleware.JWKSKeySource(cfg.JWKSURL)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing("router"))
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
	connector.Router(r, cfg, keys, connector.NewHandler(exec, store, eng, log))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Infow("router-service listening", "addr", cfg.HTTPAddr, "connectors", exec.Registry().Connectors(), "policy_version", eng.Version())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = shutdownTracing(shutdownCtx)
	if pool != nil {
		pool.Close()
	}
	log.Infow("router-service stopped")
}
