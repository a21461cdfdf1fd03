// workflow-service
//
// System of record for the candidate stage pipeline.
// Exposes the workflow REST API consumed by the stage engine:
//   - GET /workflow/stages                 ordered stage catalog
//   - GET /workflow/candidates             page + analytics + pagination
//   - PUT /workflow/candidates/{id}/stage  validated stage change
//   - PUT /workflow/interviews/{id}        reschedule in place
//
// and the same operations over gRPC (workflow.v1.WorkflowService).
// Publishes EVENT_STAGE_CHANGED to Redis and fans cache invalidations out
// to every replica.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"jobmate/workflow-service/internal/cache"
	"jobmate/workflow-service/internal/config"
	"jobmate/workflow-service/internal/db"
	"jobmate/workflow-service/internal/grpcserver"
	"jobmate/workflow-service/internal/metrics"
	"jobmate/workflow-service/internal/scheduler"
	"jobmate/workflow-service/internal/workflow"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("[workflow-service] Config error: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[workflow-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, PingTimeout: 5 * time.Second})
	if err != nil {
		log.Fatalf("[workflow-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("[workflow-service] Schema: %v", err)
	}
	log.Println("[workflow-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[workflow-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[workflow-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[workflow-service] Redis connected ✓")

	// ── Metrics + cache ──────────────────────────────────────────────────────
	mm := metrics.NewManager()
	rc := cache.New(
		[]cache.Class{cache.AnalyticsClass(cfg.AnalyticsTTL), cache.CatalogClass(cfg.CatalogTTL)},
		cache.WithObserver(mm),
	)
	inv := cache.NewRedisInvalidator(rdb, cfg.CacheChannel, rc)
	go func() {
		if err := inv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("cache invalidation subscriber stopped", "err", err)
		}
	}()

	svc := workflow.NewService(workflow.NewPostgresStore(pool),
		workflow.WithCache(rc),
		workflow.WithNotifier(inv),
		workflow.WithEvents(rdb, cfg.EventsChannel),
		workflow.WithLogger(logger),
	)

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(svc, mm, cfg.RefreshSchedule)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[workflow-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", mm.Handler())
	workflow.NewHandler(svc).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mm.Middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[workflow-service] v%s HTTP listening on %s", version, cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[workflow-service] HTTP server error: %v", err)
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("[workflow-service] gRPC listen: %v", err)
	}
	gsrv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcserver.LoggingInterceptor(logger)))
	grpcserver.RegisterWorkflowServer(gsrv, grpcserver.NewServer(svc))

	go func() {
		log.Printf("[workflow-service] gRPC listening on %s", cfg.GRPCAddr)
		if err := gsrv.Serve(lis); err != nil {
			log.Fatalf("[workflow-service] gRPC server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[workflow-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	gsrv.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[workflow-service] Shutdown error: %v", err)
	}
	cancel()
	log.Println("[workflow-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "workflow-service",
		"version": version,
	})
}
