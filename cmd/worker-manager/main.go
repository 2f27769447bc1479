// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"portfolio-workers/internal/common/camunda"
	"portfolio-workers/internal/common/config"
	"portfolio-workers/internal/common/database"
	"portfolio-workers/internal/common/logger"
	"portfolio-workers/internal/common/metrics"
	"portfolio-workers/internal/common/observability"
	"portfolio-workers/internal/engine/engineconfig"
	"portfolio-workers/pkg/registry"

	// Scoring Workers (2)
	cs "portfolio-workers/internal/workers/scoring/compute-scores"
	es "portfolio-workers/internal/workers/scoring/estimate-size"

	// Governance Workers (2)
	eg "portfolio-workers/internal/workers/governance/evaluate-gates"
	na "portfolio-workers/internal/workers/governance/notify-activation"

	// Lifecycle Worker (1)
	dp "portfolio-workers/internal/workers/lifecycle/derive-phase"

	// KPI Workers (2)
	ap "portfolio-workers/internal/workers/kpi/aggregate-portfolio"
	ev "portfolio-workers/internal/workers/kpi/estimate-value"
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

// loadEngineRules reads the rule file, falling back to the built-in rule set
// when no file has been deployed yet.
func loadEngineRules(path string, log *zap.Logger) (*engineconfig.Provider, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn("engine rule file not found, using built-in rules", zap.String("path", path))
		return engineconfig.NewProvider(engineconfig.Default())
	}

	rules, err := engineconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return engineconfig.NewProvider(rules)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Engine Rules ---
	// A broken rule file is a fatal startup error: running with half-valid
	// rules would classify and gate use cases inconsistently.
	rules, err := loadEngineRules(cfg.Engine.RulesPath, zapLog)
	if err != nil {
		zapLog.Fatal("engine rules invalid", zap.Error(err))
	}
	zapLog.Info("Engine rules loaded", zap.String("version", rules.Snapshot().Version))

	// --- Load Task Catalog ---
	catalog, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("task catalog unavailable", zap.String("path", cfg.Registry.Path), zap.Error(err))
	} else {
		zapLog.Info("Task catalog loaded", zap.Int("activities", len(catalog.Activities)))
	}

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

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

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- START: Register ALL 7 Workers ---

	// --- 1. Scoring Workers (2) ---
	if cfg.Workers[cs.TaskType].Enabled {
		handler := cs.NewHandler(
			&cs.Config{
				Timeout:  time.Duration(cfg.Workers[cs.TaskType].Timeout) * time.Millisecond,
				CacheTTL: time.Duration(cfg.Engine.CacheTTL) * time.Second,
			},
			rules, redis.Client, log,
		)
		startWorker(zeebeClient, cs.TaskType, cfg.Workers[cs.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[es.TaskType].Enabled {
		handler := es.NewHandler(
			&es.Config{
				Timeout: time.Duration(cfg.Workers[es.TaskType].Timeout) * time.Millisecond,
			},
			rules, log,
		)
		startWorker(zeebeClient, es.TaskType, cfg.Workers[es.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Governance Workers (2) ---
	if cfg.Workers[eg.TaskType].Enabled {
		handler := eg.NewHandler(
			&eg.Config{
				Timeout: time.Duration(cfg.Workers[eg.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, eg.TaskType, cfg.Workers[eg.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[na.TaskType].Enabled {
		handler, err := na.NewHandler(
			&na.Config{
				Timeout:      time.Duration(cfg.Workers[na.TaskType].Timeout) * time.Millisecond,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				SenderID:     cfg.Notifications.SMS.SenderID,
				AWSRegion:    cfg.Notifications.AWS.Region,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-activation handler", zap.Error(err))
		}
		startWorker(zeebeClient, na.TaskType, cfg.Workers[na.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Lifecycle Worker (1) ---
	if cfg.Workers[dp.TaskType].Enabled {
		handler := dp.NewHandler(
			&dp.Config{
				Timeout: time.Duration(cfg.Workers[dp.TaskType].Timeout) * time.Millisecond,
			},
			rules, log,
		)
		startWorker(zeebeClient, dp.TaskType, cfg.Workers[dp.TaskType], handler.Handle, zapLog)
	}

	// --- 4. KPI Workers (2) ---
	if cfg.Workers[ev.TaskType].Enabled {
		handler := ev.NewHandler(
			&ev.Config{
				Timeout: time.Duration(cfg.Workers[ev.TaskType].Timeout) * time.Millisecond,
			},
			rules, log,
		)
		startWorker(zeebeClient, ev.TaskType, cfg.Workers[ev.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ap.TaskType].Enabled {
		handler := ap.NewHandler(
			&ap.Config{
				Timeout:      time.Duration(cfg.Workers[ap.TaskType].Timeout) * time.Millisecond,
				SummaryIndex: cfg.Engine.SummaryIndex,
			},
			pg.DB, esClient, log,
		)
		startWorker(zeebeClient, ap.TaskType, cfg.Workers[ap.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 7 workers registered successfully")

	// --- Engine Rule Reload on SIGHUP ---
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)
	go func() {
		for range reloadCh {
			newRules, err := engineconfig.Load(cfg.Engine.RulesPath)
			if err != nil {
				metrics.EngineConfigReloads.WithLabelValues("rejected").Inc()
				zapLog.Error("engine rule reload rejected", zap.Error(err))
				continue
			}
			if err := rules.Replace(newRules); err != nil {
				metrics.EngineConfigReloads.WithLabelValues("rejected").Inc()
				zapLog.Error("engine rule reload rejected", zap.Error(err))
				continue
			}
			metrics.EngineConfigReloads.WithLabelValues("applied").Inc()
			zapLog.Info("engine rules reloaded", zap.String("version", rules.Snapshot().Version))
		}
	}()

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status":       "ready",
				"rulesVersion": rules.Snapshot().Version,
				"time":         time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
