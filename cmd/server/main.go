package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/application/service"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/config"
	"github.com/garyjia/field-expense/internal/document"
	"github.com/garyjia/field-expense/internal/infrastructure/external/lark"
	"github.com/garyjia/field-expense/internal/infrastructure/external/openai"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/migrations"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/repository"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/field-expense/internal/infrastructure/storage"
	"github.com/garyjia/field-expense/internal/infrastructure/worker"
	httpapi "github.com/garyjia/field-expense/internal/interfaces/http"
	"github.com/garyjia/field-expense/internal/metrics"
	"github.com/garyjia/field-expense/internal/report"
	"github.com/garyjia/field-expense/pkg/database"
	"github.com/garyjia/field-expense/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// .env is optional
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	kv := utils.NewKVLogger(logger)

	logger.Info("Starting field expense service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	policy, err := cfg.ValidationPolicy()
	if err != nil {
		return err
	}
	maxBill, err := cfg.MaxBillAmount()
	if err != nil {
		return err
	}
	sysClock := clock.NewSystem(loc)

	rawDB, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer rawDB.Close()

	if err := database.NewMigrator(rawDB, logger).RunMigrations(context.Background(), migrations.FS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db := sqlite.NewDB(rawDB.DB, logger)

	expenseRepo := repository.NewExpenseRepository(db, logger)
	settingsRepo := repository.NewSettingsRepository(db, logger)
	uploadRepo := repository.NewUploadRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)

	var (
		gatherer prometheus.Gatherer
		m        service.Metrics = service.NopMetrics{}
	)
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		gatherer = prometheus.DefaultGatherer
	}

	analyzer, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	scorer := ai.NewScorer(ai.NewConfidenceRouter(cfg.Thresholds()), sysClock)
	validator := ai.NewValidator(analyzer, scorer, expenseRepo, document.NewPDFRasterizer(85, logger), logger)

	photoStore := storage.NewLocalPhotoStore(cfg.Storage.PhotoDir, logger)

	settingsService := service.NewSettingsService(settingsRepo, cfg.DefaultSettings(), sysClock, kv)
	expenseService := service.NewExpenseService(settingsService, expenseRepo, uploadRepo, historyRepo,
		notificationRepo, db, policy, sysClock, m, kv)
	approvalService := service.NewApprovalService(expenseRepo, historyRepo, notificationRepo, db, sysClock, m, kv)
	imageService := service.NewImageService(validator, photoStore, uploadRepo, maxBill, sysClock, m, kv)
	reportService := service.NewReportService(expenseRepo, report.NewStatementWriter(logger), cfg.Report.CompanyName, kv)
	notificationService := service.NewNotificationService(notificationRepo, newSender(cfg, logger, kv),
		cfg.Worker.MaxAttempts, cfg.Worker.BatchSize, sysClock, kv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := worker.NewManager(logger)
	workers.Register(worker.NewNotificationWorker(notificationService, cfg.Worker.NotificationInterval, logger))
	if err := workers.StartAll(ctx); err != nil {
		return err
	}
	defer func() {
		if err := workers.StopAll(); err != nil {
			logger.Error("Failed to stop workers", zap.Error(err))
		}
	}()

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, httpapi.Services{
		Expenses:  expenseService,
		Approvals: approvalService,
		Settings:  settingsService,
		Images:    imageService,
		Reports:   reportService,
		Database:  rawDB,
	}, gatherer, kv)

	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}

// newAnalyzer returns the vision backend, or the offline analyzer when no
// OpenAI key is configured
func newAnalyzer(cfg *config.Config, logger *zap.Logger) (ai.ImageAnalyzer, error) {
	if cfg.OpenAI.APIKey == "" {
		logger.Info("OpenAI key not set, validating photos offline")
		return ai.NewCleanAnalyzer(), nil
	}

	prompts, err := openai.LoadPrompts(cfg.OpenAI.PromptsPath)
	if err != nil {
		return nil, err
	}
	return openai.NewImageAnalyzer(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, prompts, logger), nil
}

func newSender(cfg *config.Config, logger *zap.Logger, kv *utils.KVLogger) port.MessageSender {
	if !cfg.Lark.Enabled {
		logger.Info("Lark disabled, notifications will be logged")
		return service.NewLogSender(kv)
	}
	return lark.NewMessenger(lark.Config{
		AppID:         cfg.Lark.AppID,
		AppSecret:     cfg.Lark.AppSecret,
		ReceiveIDType: cfg.Lark.ReceiveIDType,
		Timeout:       cfg.Lark.Timeout,
	}, logger)
}
