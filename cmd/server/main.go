package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyjia/basket-allowance/internal/config"
	"github.com/garyjia/basket-allowance/internal/container"
	httpapi "github.com/garyjia/basket-allowance/internal/interfaces/http"
	"github.com/garyjia/basket-allowance/pkg/utils"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

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

	logger.Info("Starting basic-basket allowance service",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("certificate_scheme", cfg.Rules.Certificate.Scheme),
		zap.String("late_arrival", cfg.Rules.LateArrival))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer c.Close()

	services := c.Services()
	handlers := httpapi.NewHandlers(
		services.Calculation,
		services.Review,
		services.Export,
		services.Category,
		version,
		logger,
	)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	}, handlers, logger)

	if err := server.Start(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}
