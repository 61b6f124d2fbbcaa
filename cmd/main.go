package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/esports-arena/brackets"
	"github.com/Dosada05/esports-arena/config"
	"github.com/Dosada05/esports-arena/db"
	"github.com/Dosada05/esports-arena/handlers"
	"github.com/Dosada05/esports-arena/repositories"
	api "github.com/Dosada05/esports-arena/routes"
	"github.com/Dosada05/esports-arena/services"
	"github.com/Dosada05/esports-arena/storage"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"
)

func main() {
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	skipMigrations := pflag.Bool("skip-migrations", false, "start without applying database migrations")
	pflag.Parse()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if !*skipMigrations {
		if err := db.RunMigrations(dbConn, logger); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if *migrateOnly {
		return
	}

	// Загрузчик файлов (Cloudflare R2) необязателен
	var uploader storage.FileUploader
	r2Cfg := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Cfg.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), r2Cfg)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 is not configured, screenshot file uploads are disabled")
	}

	emailService, err := services.NewEmailService(cfg)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP is not configured, moderation verification codes cannot be delivered")
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	screenshotRepo := repositories.NewPostgresScreenshotRepository(dbConn)
	chatRepo := repositories.NewPostgresChatRepository(dbConn)
	moderationRepo := repositories.NewPostgresModerationRepository(dbConn)
	vetoRepo := repositories.NewPostgresVetoRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	locks := services.NewKeyedLocker()

	bracketService := services.NewBracketService(
		tournamentRepo, matchRepo, teamRepo,
		brackets.NewSingleEliminationGenerator(),
		locks, logger.With(slog.String("service", "bracket")),
	)
	matchService := services.NewMatchService(
		matchRepo, tournamentRepo, userRepo,
		locks, logger.With(slog.String("service", "match")),
	)
	moderationService := services.NewModerationService(
		moderationRepo, userRepo, tournamentRepo, emailService,
		services.ModerationConfig{
			CodeTTL:     cfg.VerificationCodeTTL,
			MaxAttempts: cfg.VerificationMaxAttempts,
			BcryptCost:  cfg.VerificationBcryptCost,
		},
		locks, logger.With(slog.String("service", "moderation")),
	)
	screenshotService := services.NewScreenshotService(
		matchRepo, teamRepo, screenshotRepo, uploader, cfg.EvidenceMinMinutes,
		logger.With(slog.String("service", "screenshot")),
	)
	chatService := services.NewChatService(
		matchRepo, teamRepo, chatRepo, moderationService,
		services.ChatRateConfig{PerSecond: cfg.ChatRatePerSecond, Burst: cfg.ChatBurst},
		logger.With(slog.String("service", "chat")),
	)
	vetoService := services.NewVetoService(
		matchRepo, teamRepo, vetoRepo,
		locks, logger.With(slog.String("service", "veto")),
	)
	logger.Info("services initialized")

	// Планировщик: просроченные коды подтверждения переводятся в expired,
	// простаивающие лимитеры чата забываются
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.PendingSweepInterval)
		defer ticker.Stop()
		logger.Info("pending action sweeper started", slog.Duration("interval", cfg.PendingSweepInterval))

		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if pruned := chatService.PruneIdleLimiters(); pruned > 0 {
					logger.Debug("sweeper: idle chat limiters dropped", slog.Int("count", pruned))
				}
				n, err := moderationService.ExpireStale(sweepCtx)
				if err != nil {
					logger.Error("sweeper: failed to expire pending actions", slog.Any("error", err))
					continue
				}
				if n > 0 {
					logger.Info("sweeper: pending actions expired", slog.Int64("count", n))
				}
			}
		}
	}()

	// Инициализация обработчиков HTTP
	bracketHandler := handlers.NewBracketHandler(bracketService)
	matchHandler := handlers.NewMatchHandler(matchService)
	evidenceHandler := handlers.NewEvidenceHandler(screenshotService, chatService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	vetoHandler := handlers.NewVetoHandler(vetoService)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:         logger,
		},
		bracketHandler,
		matchHandler,
		evidenceHandler,
		moderationHandler,
		vetoHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // загрузка скриншотов
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stopSweep()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopSweep()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
