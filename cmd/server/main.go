package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	analyticshandler "vacmetrics/internal/analytics/handler"
	analyticsmetrics "vacmetrics/internal/analytics/metrics"
	analyticsservice "vacmetrics/internal/analytics/service"
	analyticsstore "vacmetrics/internal/analytics/store"
	"vacmetrics/internal/ingest/events"
	ingesthandler "vacmetrics/internal/ingest/handler"
	ingestmetrics "vacmetrics/internal/ingest/metrics"
	ingestservice "vacmetrics/internal/ingest/service"
	"vacmetrics/internal/platform/config"
	"vacmetrics/internal/platform/httpserver"
	"vacmetrics/internal/platform/logger"
	platformpg "vacmetrics/internal/platform/postgres"
	platformredis "vacmetrics/internal/platform/redis"
	refcache "vacmetrics/internal/reference/cache"
	refhandler "vacmetrics/internal/reference/handler"
	refmetrics "vacmetrics/internal/reference/metrics"
	refservice "vacmetrics/internal/reference/service"
	refstore "vacmetrics/internal/reference/store"
	"vacmetrics/internal/snapshot/normalizer"
	snapstore "vacmetrics/internal/snapshot/store"
	tenanthandler "vacmetrics/internal/tenant/handler"
	tenantmetrics "vacmetrics/internal/tenant/metrics"
	tenantservice "vacmetrics/internal/tenant/service"
	clientstore "vacmetrics/internal/tenant/store/client"
	profilestore "vacmetrics/internal/tenant/store/profile"
	httptransport "vacmetrics/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := platformpg.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	reg := prometheus.DefaultRegisterer

	refOpts := []refservice.Option{
		refservice.WithLogger(log),
		refservice.WithMetrics(refmetrics.New()),
		refservice.WithStrictMode(cfg.Ingest.StrictGeography),
	}
	if rdb != nil {
		refOpts = append(refOpts, refservice.WithCache(refcache.New(rdb.Client, config.ReferenceCacheTTL)))
	}
	registry := refservice.New(refstore.NewPostgres(db), refOpts...)

	tenants := tenantservice.New(
		clientstore.NewPostgres(db),
		profilestore.NewPostgres(db),
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)

	snapshots := snapstore.NewPostgres(db)
	norm := normalizer.New(tenants, registry, cfg.Ingest.TaxRate, cfg.Ingest.StrictGeography)

	ingestOpts := []ingestservice.Option{
		ingestservice.WithLogger(log),
		ingestservice.WithMetrics(ingestmetrics.New(reg)),
		ingestservice.WithWorkers(cfg.Ingest.Workers),
		ingestservice.WithRecordTimeout(cfg.Ingest.RecordTimeout),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		ingestOpts = append(ingestOpts, ingestservice.WithPublisher(events.NewResilient(publisher, log)))
	}
	ingestor := ingestservice.New(norm, snapshots, ingestOpts...)

	analytics := analyticsservice.New(
		analyticsstore.NewPostgres(db),
		tenants,
		analyticsservice.WithLogger(log),
		analyticsservice.WithMetrics(analyticsmetrics.New(reg)),
	)

	router := httptransport.NewRouter(
		[]httptransport.Registrar{
			tenanthandler.New(tenants, log),
			refhandler.New(registry, log),
			ingesthandler.New(ingestor, log),
			analyticshandler.New(analytics, log),
		},
		healthChecks(db, rdb),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func healthChecks(db *sql.DB, rdb *platformredis.Client) map[string]httptransport.HealthChecker {
	checks := map[string]httptransport.HealthChecker{
		"postgres": func(ctx context.Context) error { return platformpg.Health(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}
	return checks
}
