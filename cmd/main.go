package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medbook/clinic-platform/internal/config"
	"github.com/medbook/clinic-platform/internal/db"
	"github.com/medbook/clinic-platform/internal/dirsync"
	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/partition"
	"github.com/medbook/clinic-platform/internal/repository"
	"github.com/medbook/clinic-platform/internal/resilience"
	"github.com/medbook/clinic-platform/internal/scheduler"
)

func main() {
	// 1. Переменные окружения (.env опционален).
	_ = godotenv.Load()

	schedCfg := config.LoadSchedulerConfig()
	resCfg := config.LoadResilienceConfig()

	if err := logger.Init(schedCfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Конфиг БД и directory-партиция.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		logger.SLog.Fatalf("load db config: %v", err)
	}

	directoryDB, err := db.NewPartitionDB(dbCfg, dbCfg.DirectorySchema)
	if err != nil {
		logger.SLog.Fatalf("init directory partition: %v", err)
	}
	if err := model.AutoMigrateDirectory(directoryDB); err != nil {
		logger.SLog.Fatalf("migrate directory partition: %v", err)
	}

	// 3. Реестр партиций: по подключению на каждого активного тенанта.
	manager := partition.NewManager(directoryDB)
	tenantRepo := repository.NewGormTenantRepository(directoryDB)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	tenants, err := tenantRepo.ListActive(bootCtx)
	cancelBoot()
	if err != nil {
		logger.SLog.Fatalf("list tenants: %v", err)
	}

	for _, tenant := range tenants {
		tenantDB, err := db.NewPartitionDB(dbCfg, tenant.SchemaName)
		if err != nil {
			logger.SLog.Fatalf("init tenant partition %s: %v", tenant.Key, err)
		}
		if err := model.AutoMigrateTenant(tenantDB); err != nil {
			logger.SLog.Fatalf("migrate tenant partition %s: %v", tenant.Key, err)
		}
		manager.RegisterTenant(partition.Key(tenant.Key), tenantDB)
	}

	// 4. Слой устойчивости: breaker, монитор, пул ретраев.
	breaker := resilience.NewBreaker(resCfg.FailureThreshold, resCfg.Cooldown)
	monitor := resilience.NewMonitor()
	retrier := resilience.NewRetrier(breaker, monitor, resCfg.RetryAttempts, resCfg.RetryBackoff, resCfg.RetryQueueSize)
	guard := resilience.NewGuard(breaker, monitor, retrier)

	// 5. Синхронизатор и оркестратор.
	syncer := dirsync.NewSynchronizer(repository.NewGormDirectoryRepository(directoryDB))
	orchestrator := scheduler.NewOrchestrator(manager, tenantRepo, syncer, guard, schedCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retrier.Start(ctx, resCfg.RetryWorkers)

	// 6. HTTP-эндпоинт метрик.
	var metricsSrv *http.Server
	if schedCfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: schedCfg.MetricsAddr, Handler: mux}
		go func() {
			logger.Log.Info("metrics endpoint listening", zap.String("addr", schedCfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.SLog.Fatalf("metrics serve: %v", err)
			}
		}()
	}

	// 7. Запускаем конвейер в горутине.
	done := make(chan struct{})
	go func() {
		defer close(done)
		orchestrator.Run(ctx)
	}()

	logger.Log.Info("availability pipeline started",
		zap.Duration("interval", schedCfg.Interval),
		zap.Int("tenants", len(tenants)),
		zap.Int("parallelism", schedCfg.Parallelism),
	)

	// 8. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutting down availability pipeline...")
	cancel()
	<-done
	retrier.Stop()

	if metricsSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancelShutdown()
	}
}
