package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/fleet-planner/internal/application"
	"github.com/eugenenazirov/fleet-planner/internal/config"
	"github.com/eugenenazirov/fleet-planner/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("fleet-planner", "Fleet Trip Planner - packs deliveries into capacity-bounded trips and assigns them to vehicles")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	envFile := kingpinApp.Flag("env-file", "Path to a .env file (defaults to ./.env when present)").String()
	logLevel := kingpinApp.Flag("log-level", "Log level: debug, info, warn, error").String()

	planCmd := kingpinApp.Command("plan", "Plan trips for a manifest file and write the report").Default()
	inputPath := planCmd.Flag("input", "Manifest file to plan").Short('i').String()
	outputPath := planCmd.Flag("output", "Report file to write").Short('o').String()

	serveCmd := kingpinApp.Command("serve", "Run the planning HTTP API")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	fleetStr := serveCmd.Flag("fleet", "Initial fleet as comma-separated name:capacity pairs").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
		Port:       port,
		FleetStr:   fleetStr,
		InputPath:  inputPath,
		OutputPath: outputPath,
		LogLevel:   logLevel,
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case planCmd.FullCommand():
		if err := runPlan(cfg, logger); err != nil {
			logger.Error("planning failed", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
	case serveCmd.FullCommand():
		serve(cfg, logger)
	}
}

func runPlan(cfg config.Config, logger *zap.Logger) error {
	_, err := application.RunBatch(application.BatchOptions{
		InputPath:  cfg.InputPath,
		OutputPath: cfg.OutputPath,
		Stdout:     os.Stdout,
	}, application.NewPlanner(), logger)
	return err
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
