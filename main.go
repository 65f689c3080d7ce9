package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"devforge/internal/api"
	"devforge/internal/database"
	"devforge/internal/services"
	"devforge/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "devforge:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := utils.LoadEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(database.Config{
		Path: utils.Getenv("DEVFORGE_DB", ""),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	svc, err := services.NewServices(ctx, db, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(svc, api.Config{
		Addr: utils.Getenv("DEVFORGE_ADDR", ":8090"),
	}, logger)
	return server.Start(ctx)
}

func logLevel() slog.Level {
	switch utils.Getenv("DEVFORGE_LOG_LEVEL", "info") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
