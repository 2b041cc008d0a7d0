package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/habitkit/habitkit/internal/config"
	"github.com/habitkit/habitkit/internal/database"
	"github.com/habitkit/habitkit/internal/notify"
	"github.com/habitkit/habitkit/internal/repository"
	"github.com/habitkit/habitkit/internal/scheduler"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURI == "" {
		logger.Fatalf("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		logger.Fatalf("TELEGRAM_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Infof("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Infof("Database migrations completed")

	sink, err := notify.NewTelegramSink(cfg.TelegramToken)
	if err != nil {
		logger.Fatalf("Failed to create notification sink: %v", err)
	}

	reminderRepo := repository.NewReminderRepository(db)
	habitRepo := repository.NewHabitRepository(db)

	sched := scheduler.New(reminderRepo, habitRepo, sink, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Infof("Shutting down...")
		cancel()
	}()

	sched.Start(ctx)
}
