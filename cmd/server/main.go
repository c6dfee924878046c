package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prperemyshlev/pages-service/internal/app"
	"github.com/prperemyshlev/pages-service/internal/config"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to read .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}
	logger := infra.Logger()

	application, err := app.NewApp(ctx, infra, cfg)
	if err != nil {
		_ = infra.Shutdown(context.Background())
		log.Fatalf("Failed to create application: %v", err)
	}

	if cfg.Migrations.OnStart {
		if err := application.Migrate(ctx); err != nil {
			_ = infra.Shutdown(context.Background())
			logger.Fatal("Startup migrations failed", zap.Error(err))
		}
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("Application failed", zap.Error(err))
	}
}
