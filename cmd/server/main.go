package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/asanchezr/viaticos/internal/application/service"
	"github.com/asanchezr/viaticos/internal/config"
	"github.com/asanchezr/viaticos/internal/email"
	"github.com/asanchezr/viaticos/internal/export"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/repository"
	"github.com/asanchezr/viaticos/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/asanchezr/viaticos/internal/interfaces/http"
	"github.com/asanchezr/viaticos/pkg/database"
	"github.com/asanchezr/viaticos/pkg/utils"
)

func main() {
	// Load configuration
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
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

	logger.Info("Starting travel expense service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	// Run migrations
	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	referenceRepo := repository.NewReferenceRepository(db, logger)
	ticketRepo := repository.NewTicketRepository(db, logger)
	tokenRepo := repository.NewTokenRepository(db, logger)

	// Initialize external adapters
	mailer := email.NewSender(email.Config{
		Host:       cfg.Email.Host,
		Port:       cfg.Email.Port,
		Username:   cfg.Email.Username,
		Password:   cfg.Email.Password,
		From:       cfg.Email.From,
		SenderName: cfg.Email.SenderName,
	}, logger)

	renderer := export.NewGotenbergClient(cfg.Export.GotenbergURL, cfg.Export.GotenbergTimeout)

	// PDF export degrades to errors until the renderer comes up, so a failed
	// probe is a warning, not a startup failure
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := renderer.Ping(pingCtx); err != nil {
		logger.Warn("Gotenberg service unreachable, PDF export unavailable",
			zap.String("url", cfg.Export.GotenbergURL),
			zap.Error(err))
	}
	cancelPing()

	// Initialize application services
	svcLogger := &zapLogger{sugar: logger.Sugar()}

	submissionService := service.NewSubmissionService(requestRepo, tokenRepo, ticketRepo, db, svcLogger)
	wizardService := service.NewWizardService(requestRepo, referenceRepo, submissionService, svcLogger)
	approvalService := service.NewApprovalService(requestRepo, historyRepo, referenceRepo, mailer, db, svcLogger)
	exportService := service.NewExportService(requestRepo, referenceRepo, renderer, cfg.Export.CompanyName, svcLogger)

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, wizardService, approvalService, exportService, referenceRepo, svcLogger)

	// Shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// zapLogger adapts a sugared zap logger to the application Logger interface
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
