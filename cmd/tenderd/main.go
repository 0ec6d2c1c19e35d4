// Package main provides the tenderd daemon, serving the payment API.
// It initializes and coordinates all services using the service registry pattern.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cmatc13/tender/internal/api"
	"github.com/cmatc13/tender/internal/events"
	"github.com/cmatc13/tender/internal/processor"
	"github.com/cmatc13/tender/pkg/config"
	"github.com/cmatc13/tender/pkg/health"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
	"github.com/cmatc13/tender/pkg/service"
)

func main() {
	// Define command-line flags
	configFile := pflag.String("config", "", "Path to configuration file")
	envFile := pflag.String("env-file", "", "Path to a dotenv file (default .env if present)")
	pflag.String("port", "", "Port to listen on")
	pflag.String("log-level", "", "Log level (debug, info, warn, error)")
	pflag.String("log-format", "", "Log format (text, json)")
	pflag.String("kafka-brokers", "", "Kafka bootstrap servers for outcome publishing")
	pflag.Parse()

	opts := config.DefaultLoadOptions()
	opts.ConfigFile = *configFile
	if *envFile != "" {
		opts.EnvFile = *envFile
	}
	opts.Flags = pflag.CommandLine
	opts.Defaults = map[string]interface{}{"log.format": "json"}

	// Bootstrap logger until configuration is known
	logger := logging.New(logging.Config{
		Level:       logging.InfoLevel,
		Format:      logging.JSONFormat,
		Output:      os.Stdout,
		ServiceName: "tenderd",
	})

	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = logging.New(logging.Config{
		Level:       logging.LogLevel(cfg.Log.Level),
		Format:      logging.Format(cfg.Log.Format),
		Output:      os.Stdout,
		ServiceName: "tenderd",
		Environment: cfg.Log.Environment,
	})

	metricsConfig := metrics.DefaultConfig()
	metricsConfig.Namespace = cfg.Metrics.Namespace
	metricsConfig.ServiceName = "tenderd"
	metricsCollector := metrics.New(metricsConfig)

	publisher, err := events.NewPublisher(events.KafkaConfig{
		Brokers:     cfg.Kafka.Brokers,
		TopicPrefix: cfg.Kafka.TopicPrefix,
	}, logger)
	if err != nil {
		logger.Error("Failed to create outcome publisher", "error", err)
		os.Exit(1)
	}

	proc := processor.New(logger.WithField("component", "processor"), metricsCollector, publisher)

	// Health checks
	healthRegistry := health.NewRegistry(logger)
	if cfg.Kafka.Brokers != "" {
		healthRegistry.Register("kafka", health.DependencyChecker("kafka", cfg.Kafka.Brokers, publisher.Ping))
	}

	// Create service registry
	registry := service.NewRegistry(logger)

	processorService := processor.NewProcessorService(proc)
	if err := registry.Register(processorService); err != nil {
		logger.Error("Failed to register processor service", "error", err)
		os.Exit(1)
	}
	healthRegistry.Register(processorService.Name(), health.ServiceChecker(processorService.Name(), func(context.Context) error {
		return processorService.Health()
	}))

	apiService := api.NewAPIService(cfg, proc, logger, metricsCollector, healthRegistry)
	if err := registry.Register(apiService); err != nil {
		logger.Error("Failed to register API service", "error", err)
		os.Exit(1)
	}
	healthRegistry.Register(apiService.Name(), health.ServiceChecker(apiService.Name(), func(context.Context) error {
		return apiService.Health()
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting all services")
	if err := registry.StartAll(ctx); err != nil {
		logger.Error("Failed to start services", "error", err)
		shutdown(registry, cfg, logger)
		os.Exit(1)
	}
	logger.Info("All services started", "addr", apiService.Addr())

	// Handle graceful shutdown
	<-ctx.Done()
	logger.Info("Shutting down gracefully")
	if err := shutdown(registry, cfg, logger); err != nil {
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func shutdown(registry *service.Registry, cfg *config.Config, logger *logging.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := registry.StopAll(ctx); err != nil {
		logger.Error("Error during shutdown", "error", err)
		return err
	}
	return nil
}
