package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/config"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/application"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/consumer"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/database"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/infrastructure/api"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/infrastructure/cache"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/infrastructure/scheduler"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/infrastructure/storage"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/metrics"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

type App struct {
	config        *config.Config
	logger        logger.Logger
	metrics       *metrics.Metrics
	repo          ports.ObservationRepository
	journal       ports.RunJournal
	lease         ports.MergeLease
	documentStore ports.DocumentStore
	scheduler     ports.Scheduler
	ingestService *application.IngestService
	mergeService  *application.MergeService
	kafkaConsumer ports.Consumer
	apiServer     api.API
}

func Bootstrap() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name)
	appLogger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	app := &App{
		config: cfg,
		logger: appLogger,
	}

	if err := app.initComponents(); err != nil {
		appLogger.Fatalf("Failed to initialize components: %v", err)
	}

	if err := app.start(); err != nil {
		appLogger.Fatalf("Failed to start application: %v", err)
	}

	app.waitForShutdown()
}

func (a *App) initComponents() error {
	a.logger.Info("Initializing components...")

	a.metrics = metrics.New(a.config.API.EnableMetrics)

	a.logger.Info("Initializing PostgreSQL repositories...")
	repo, err := database.NewPostgresObservationRepository(a.config.Postgres)
	if err != nil {
		return fmt.Errorf("failed to create observation repository: %w", err)
	}
	a.repo = repo

	journal, err := database.NewPostgresRunJournal(a.config.Postgres)
	if err != nil {
		return fmt.Errorf("failed to create run journal: %w", err)
	}
	a.journal = journal

	a.logger.Info("Initializing Redis merge lease...")
	lease, err := cache.NewRedisLease(
		a.config.Redis.Host,
		a.config.Redis.Port,
		a.config.Redis.Password,
		a.config.Redis.DB,
	)
	if err != nil {
		return fmt.Errorf("failed to create merge lease: %w", err)
	}
	a.lease = lease

	a.logger.Info("Initializing Minio storage...")
	minioStorage, err := storage.NewMinioStorage(
		a.config.Minio.Endpoint,
		a.config.Minio.AccessKey,
		a.config.Minio.SecretKey,
		a.config.Minio.UseSSL,
	)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	a.documentStore = storage.NewMinioDocumentStore(minioStorage, a.config.Minio.Bucket)

	a.logger.Info("Initializing scheduler...")
	a.scheduler = scheduler.NewCronScheduler(a.config.Merge.Timeout)

	a.logger.Info("Initializing application services...")
	a.ingestService = application.NewIngestService(a.documentStore, a.repo, a.metrics)
	a.mergeService = application.NewMergeService(
		a.repo,
		a.journal,
		a.lease,
		a.scheduler,
		a.metrics,
		application.MergeOptions{
			Interval:          a.config.Merge.Interval,
			Timeout:           a.config.Merge.Timeout,
			LeaseTTL:          a.config.Merge.LeaseTTL,
			UpdateCity:        a.config.Merge.UpdateCityOnConflict,
			StaleRunThreshold: a.config.Merge.StaleRunThreshold,
		},
	)

	a.logger.Info("Initializing Kafka consumer...")
	kafkaConsumer, err := consumer.NewKafkaConsumer(
		[]string{a.config.Kafka.Broker},
		a.config.Kafka.Topic,
		a.config.Kafka.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	a.kafkaConsumer = kafkaConsumer

	a.logger.Info("Initializing API server...")
	apiMiddleware := api.NewMiddleware(
		a.config.API.RateLimit,
		a.config.API.RateLimitWindow,
		a.config.API.CorsAllowedOrigins,
	)
	components := map[string]api.HealthChecker{
		"minio":          a.documentStore,
		"kafka_consumer": a.kafkaConsumer,
		"scheduler":      a.scheduler,
	}
	a.apiServer = api.NewAPIServer(a.mergeService, a.repo, components, a.metrics.Handler(), apiMiddleware, a.config)

	a.logger.Info("All components initialized successfully")
	return nil
}

func (a *App) start() error {
	a.logger.Info("Starting application...")

	ctx := context.Background()

	a.logger.Info("Starting Kafka consumer...")
	if err := a.kafkaConsumer.Consume(ctx, a.ingestService.ProcessObject); err != nil {
		return fmt.Errorf("failed to start Kafka consumer: %w", err)
	}

	a.logger.Info("Starting merge service...")
	if err := a.mergeService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start merge service: %w", err)
	}

	a.logger.Info("Starting API server...")
	if err := a.apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	go func() {
		time.Sleep(a.config.HealthCheck.StartupDelay)
		a.runHealthChecks(ctx)
	}()

	a.logger.Info("Application started successfully")
	return nil
}

func (a *App) runHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(a.config.HealthCheck.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.performHealthChecks(ctx)
		}
	}
}

func (a *App) performHealthChecks(ctx context.Context) {
	a.logger.Debug("Running health checks...")

	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"observation_repository", a.repo.HealthCheck},
		{"run_journal", a.journal.HealthCheck},
		{"merge_lease", a.lease.HealthCheck},
		{"document_store", a.documentStore.HealthCheck},
		{"kafka_consumer", a.kafkaConsumer.HealthCheck},
		{"scheduler", a.scheduler.HealthCheck},
		{"ingest_service", a.ingestService.HealthCheck},
		{"merge_service", a.mergeService.HealthCheck},
	}

	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, a.config.HealthCheck.Timeout)
		if err := check.check(checkCtx); err != nil {
			a.logger.Errorf("Health check failed for %s: %v", check.name, err)
		} else {
			a.logger.Debugf("Health check passed for %s", check.name)
		}
		cancel()
	}
}

func (a *App) waitForShutdown() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	sig := <-signalChan
	a.logger.Infof("Received signal: %v. Shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), a.config.App.ShutdownTimeout)
	defer cancel()

	a.shutdownComponents(ctx)

	a.logger.Info("Application shutdown completed")
}

func (a *App) shutdownComponents(ctx context.Context) {
	if a.apiServer != nil {
		a.logger.Info("Stopping API server...")
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.Errorf("Failed to stop API server: %v", err)
		}
	}

	if a.mergeService != nil {
		a.logger.Info("Stopping merge service...")
		a.mergeService.Stop()
	}

	if a.kafkaConsumer != nil {
		a.logger.Info("Stopping Kafka consumer...")
		if err := a.kafkaConsumer.Close(); err != nil {
			a.logger.Errorf("Failed to close Kafka consumer: %v", err)
		}
	}

	if a.lease != nil {
		a.logger.Info("Closing merge lease...")
		if err := a.lease.Close(); err != nil {
			a.logger.Errorf("Failed to close merge lease: %v", err)
		}
	}

	if a.journal != nil {
		a.logger.Info("Closing run journal...")
		if closer, ok := a.journal.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				a.logger.Errorf("Failed to close run journal: %v", err)
			}
		}
	}

	if a.repo != nil {
		a.logger.Info("Closing observation repository...")
		if err := a.repo.Close(); err != nil {
			a.logger.Errorf("Failed to close observation repository: %v", err)
		}
	}
}
