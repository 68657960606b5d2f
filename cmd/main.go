package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/simpliearn/simpliearn-backend/internal/app"
	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

func main() {
	// Logger
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Loading configuration...")
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()
	if err := a.Run(ctx); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
