package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/teilomillet/callbridge/config"
	"github.com/teilomillet/callbridge/errors"
	"github.com/teilomillet/callbridge/server"
	"github.com/teilomillet/callbridge/server/generative"
	"github.com/teilomillet/callbridge/server/handlers"
	"github.com/teilomillet/callbridge/server/metrics"
	"go.uber.org/zap"
)

const Version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("callbridge", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config", "", "Path to configuration file (defaults are used when empty or missing)")
	validate := flags.Bool("validate", false, "Validate configuration and exit")
	version := flags.Bool("version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintf(stdout, "callbridge %s\n", Version)
		return 0
	}

	cfg, err := config.LoadOptional(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	if *validate {
		if err := cfg.LLM.RequireCredential(); err != nil {
			fmt.Fprintf(stderr, "Configuration is invalid: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "Configuration is valid")
		return 0
	}

	logger, err := cfg.Logging.Logger()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	errors.SetLogger(logger)

	m := metrics.NewMetrics()

	client, err := generative.NewFromConfig(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("Generative client initialization failed",
			zap.Error(err),
			zap.String("provider", cfg.LLM.Provider),
		)
		return 1
	}

	webhook := handlers.NewWebhookHandler(client, logger,
		handlers.WithFallbackText(cfg.Fulfillment.FallbackText),
		handlers.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		handlers.WithMetrics(m),
	)
	router := server.NewRouter(cfg, webhook, m, logger)
	srv := server.NewServer(cfg.Server, router, logger)

	logger.Info("Starting callbridge",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("webhook_path", cfg.Fulfillment.Path),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		return 1
	}
	logger.Info("Server stopped")
	return 0
}
