// Package main runs a batch of payments through the payment processor and
// prints the outcome of each one.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cmatc13/tender/internal/events"
	"github.com/cmatc13/tender/internal/processor"
	"github.com/cmatc13/tender/pkg/config"
	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run processes the batch and returns the exit code. Rejected payments are
// reported but do not fail the run.
func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("tender", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config", "", "Path to configuration file")
	envFile := flags.String("env-file", "", "Path to a dotenv file (default .env if present)")
	flags.String("batch", "", "JSON file holding an array of payment requests (default demo batch)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")
	flags.String("kafka-brokers", "", "Kafka bootstrap servers for outcome publishing")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	opts := config.DefaultLoadOptions()
	opts.ConfigFile = *configFile
	if *envFile != "" {
		opts.EnvFile = *envFile
	}
	opts.Flags = flags

	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := logging.New(logging.Config{
		Level:       logging.LogLevel(cfg.Log.Level),
		Format:      logging.Format(cfg.Log.Format),
		Output:      stderr,
		ServiceName: "tender",
		Environment: cfg.Log.Environment,
	})

	reqs, err := processor.LoadBatch(cfg.Batch.File)
	if err != nil {
		logger.Error("Failed to load batch", "file", cfg.Batch.File, "error", err)
		return 1
	}

	publisher, err := events.NewPublisher(events.KafkaConfig{
		Brokers:     cfg.Kafka.Brokers,
		TopicPrefix: cfg.Kafka.TopicPrefix,
	}, logger)
	if err != nil {
		logger.Error("Failed to create outcome publisher", "error", err)
		return 1
	}

	metricsConfig := metrics.DefaultConfig()
	metricsConfig.Namespace = cfg.Metrics.Namespace
	proc := processor.New(logger, metrics.New(metricsConfig), publisher)
	defer proc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := proc.ProcessBatch(ctx, reqs)
	report(stdout, summary)

	return 0
}

// report prints one line per request followed by the batch totals
func report(w io.Writer, summary processor.Summary) {
	for i, item := range summary.Items {
		switch {
		case item.Outcome == nil:
			fmt.Fprintf(w, "%d. %s: invalid request: %s\n", i+1, item.Request.Method, errors.MessageOf(item.Err))
		case item.Err != nil:
			fmt.Fprintf(w, "%d. %s: %s [%s]\n", i+1, item.Outcome.Method.Name(), item.Outcome.Message, item.Outcome.Code)
		default:
			fmt.Fprintf(w, "%d. %s: %s (fee %s)\n", i+1, item.Outcome.Method.Name(), item.Outcome.Message, item.Outcome.Fee.StringFixed(2))
		}
	}

	fmt.Fprintf(w, "processed=%d rejected=%d invalid=%d charged=%s fees=%s\n",
		summary.Processed, summary.Rejected, summary.Invalid,
		summary.Charged.StringFixed(2), summary.Fees.StringFixed(2))
}
