package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uzhavango/rental_core/internal/app"
	"github.com/uzhavango/rental_core/internal/cache"
	"github.com/uzhavango/rental_core/internal/config"
	"github.com/uzhavango/rental_core/internal/controller"
	"github.com/uzhavango/rental_core/internal/controller/httpapi"
	"github.com/uzhavango/rental_core/internal/notifier"
	"github.com/uzhavango/rental_core/internal/repository"
	"github.com/uzhavango/rental_core/internal/service"
	"github.com/uzhavango/rental_core/migrations"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting rental core",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("telegram", cfg.TelegramToken != ""),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Rental core stopped with error", zap.Error(err))
	}

	logger.Info("✅ Rental core exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	if err := migrate(ctx, cfg, pool, logger); err != nil {
		return err
	}

	txManager := repository.NewPgTxManager(pool)
	users := repository.NewUserRepository(pool)

	// Кэш настроек: без Redis читаем напрямую из базы
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis unavailable, settings cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	settings := cache.NewSettings(repository.NewSettingRepository(pool), redisClient, cfg.SettingsCacheTTL, logger)

	bookingService := service.NewBookingService(
		txManager,
		settings,
		service.NewSettlementWriter(cfg.ReceiptPrefix),
		logger,
	)
	userService := service.NewUserService(users, logger)
	settingsService := service.NewSettingsService(settings, logger)

	// Каналы доставки уведомлений
	sinks := notifier.MultiSink{notifier.NewLogSink(logger)}

	var telegram *bot.Bot
	if cfg.TelegramToken != "" {
		telegram, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		sinks = append(sinks, notifier.NewTelegramSink(telegram, users, logger))
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := notifier.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		sinks = append(sinks, notifier.NewKafkaSink(writer))
	}

	dispatcher := app.NewDispatcher(txManager, sinks, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	if telegram != nil {
		botController := controller.NewBotController(telegram, userService, bookingService, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	handler := httpapi.NewHandler(bookingService, userService, settingsService, logger)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, httpapi.NewAuthenticator(cfg.JWTSecret)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("🚀 HTTP API listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("📦 Shutdown signal received. Cleaning up...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
	var migrator *app.Migrator
	var err error

	if cfg.MigrationsDir != "" {
		migrator, err = app.NewMigrator(pool, nil, cfg.MigrationsDir, logger)
	} else {
		migrator, err = app.NewMigrator(pool, migrations.FS, ".", logger)
	}
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}
