// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docassembly-workers/internal/common/camunda"
	"docassembly-workers/internal/common/config"
	"docassembly-workers/internal/common/database"
	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"
	"docassembly-workers/internal/common/observability"
	"docassembly-workers/internal/service"
	"docassembly-workers/pkg/registry"

	ad "docassembly-workers/internal/workers/assembly/assemble-document"
	gci "docassembly-workers/internal/workers/assembly/get-component-info"
	gi "docassembly-workers/internal/workers/assembly/get-interview"
	oa "docassembly-workers/internal/workers/assembly/overlay-answers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(errors.KnownBPMNCodes()); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFromSettings(cfg.Camunda), log)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Redis (component info cache) with retry ---
	var cache *database.RedisClient
	if cfg.Cache.ComponentInfoTTL > 0 {
		cache = database.NewRedis(cfg.Database.Redis, cfg.App.Name)
		err = retryWithBackoff(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return cache.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, component info caching disabled", zap.Error(err))
			cache.Close()
			cache = nil
		} else {
			defer cache.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	svc := service.NewFromConfig(cfg, cache, log)
	store := svc.Store()

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		w := camunda.NewWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log)
		if w != nil {
			workers = append(workers, w)
		}
	}

	{
		c := ad.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, ad.TaskType, c.Timeout)
		c.RequireDocument = config.GetWorkerConfig(cfg, ad.TaskType).RequireDocument
		c.InputSchema = reg.InputSchema(ad.TaskType)
		c.Observer = obs
		start(ad.TaskType, ad.NewHandler(c, svc, store, log))
	}
	{
		c := oa.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, oa.TaskType, c.Timeout)
		c.InputSchema = reg.InputSchema(oa.TaskType)
		c.Observer = obs
		start(oa.TaskType, oa.NewHandler(c, svc, log))
	}
	{
		c := gci.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, gci.TaskType, c.Timeout)
		c.InputSchema = reg.InputSchema(gci.TaskType)
		c.Observer = obs
		start(gci.TaskType, gci.NewHandler(c, svc, store, log))
	}
	{
		c := gi.LoadConfig()
		c.Timeout = jobTimeout(cfg, reg, gi.TaskType, c.Timeout)
		c.InputSchema = reg.InputSchema(gi.TaskType)
		c.Observer = obs
		start(gi.TaskType, gi.NewHandler(c, svc, store, log))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// jobTimeout prefers the worker config, then the registry entry.
func jobTimeout(cfg *config.Config, reg *registry.ActivityRegistry, taskType string, fallback time.Duration) time.Duration {
	if wc, ok := cfg.Workers[taskType]; ok && wc.Timeout > 0 {
		return config.GetDuration(wc.Timeout)
	}
	if a, ok := reg.Find(taskType); ok {
		if d := a.TimeoutDuration(); d > 0 {
			return d
		}
	}
	return fallback
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
