// cmd/insights-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fleet-insights/internal/analytics"
	"fleet-insights/internal/common/config"
	"fleet-insights/internal/common/database"
	"fleet-insights/internal/common/errors"
	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/query"
	"fleet-insights/internal/store"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting insights server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	eventStore := store.NewElasticStore(esClient.Client, cfg.Database.Elasticsearch.Index, log)

	// --- Init Redis with retry (optional, anchor-date cache only) ---
	var redisClient *goredis.Client
	if cfg.Database.Redis.Enabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		redisClient = rdb.Client
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Redis disabled, anchor date cached in process only")
	}

	anchor := store.NewAnchorCache(eventStore, redisClient, log)
	service := analytics.NewService(eventStore, anchor, log)
	engine := query.NewEngine(eventStore, anchor, log)
	errHandler := errors.NewErrorHandler(log)

	requestTimeout := config.GetDuration(cfg.Server.RequestTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := esClient.Info(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	// POST /api/analyze — classify and plan only, no execution
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
			errHandler.HandleHTTPError(w, "analyze",
				errors.NewIntentParsingFailedError("request body must contain a non-empty question"))
			return
		}
		res := service.Analyze(req.Question)
		writeJSON(w, http.StatusOK, res)
	})

	// POST /api/ask — full pipeline, optional plan override
	mux.HandleFunc("/api/ask", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
			errHandler.HandleHTTPError(w, "ask",
				errors.NewIntentParsingFailedError("request body must contain a non-empty question"))
			return
		}

		rctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		ans, err := service.AskWithOverride(rctx, req.Question, req.PlanOverride)
		if err != nil {
			errHandler.HandleHTTPError(w, "ask", err)
			return
		}
		if req.WithExamples {
			if evs, exErr := engine.FetchExamples(rctx, ans.Analysis.Plan, cfg.Analytics.ExampleLimit); exErr == nil {
				for i := range evs {
					ans.Examples = append(ans.Examples, query.RenderStatement(&evs[i]))
				}
			}
		}
		writeJSON(w, http.StatusOK, ans)
	})

	// POST /api/anchor/invalidate — drop the cached dataset anchor date
	mux.HandleFunc("/api/anchor/invalidate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		anchor.Invalidate(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Insights server stopped gracefully")
}

type askRequest struct {
	Question     string                 `json:"question"`
	PlanOverride map[string]interface{} `json:"planOverride,omitempty"`
	WithExamples bool                   `json:"withExamples,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
