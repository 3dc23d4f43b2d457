package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/placementcell/eligibility/internal/sweepclient"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/spf13/pflag"
)

const (
	defaultTimeout = 5 * time.Minute
	exitFailure    = 1
	exitItemErrors = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL     string
		timeout     time.Duration
		format      string
		logLevel    string
		skipHealth  bool
		failOnError bool
	)
	pflag.StringVarP(&baseURL, "url", "u", sweepclient.DefaultBaseURL, "Base URL of the eligibility service")
	pflag.DurationVarP(&timeout, "timeout", "t", defaultTimeout, "Timeout for the whole sweep request")
	pflag.StringVarP(&format, "output", "o", sweepclient.FormatTable, "Manifest output format (table or json)")
	pflag.StringVar(&logLevel, "log-level", "warn", "Log level")
	pflag.BoolVar(&skipHealth, "skip-health", false, "Do not probe /healthz before sweeping")
	pflag.BoolVar(&failOnError, "fail-on-error", false, "Exit with status 2 when any item failed")
	pflag.Parse()

	if err := logger.Init(logger.WithFormat(logger.FormatConsole), logger.WithLevel(logLevel), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return exitFailure
	}
	log := logger.Named("sweep")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := sweepclient.New(baseURL, sweepclient.WithTimeout(timeout), sweepclient.WithLogger(log))

	if !skipHealth {
		if err := client.Health(ctx); err != nil {
			log.Error(ctx, "health check failed", logger.String("url", baseURL), logger.Error(err))
			return exitFailure
		}
	}

	m, err := client.Sweep(ctx)
	if err != nil {
		log.Error(ctx, "sweep failed", logger.Error(err))
		return exitFailure
	}
	if err := sweepclient.PrintManifest(os.Stdout, m, format); err != nil {
		log.Error(ctx, "failed to print manifest", logger.Error(err))
		return exitFailure
	}

	if failOnError && m.Failed > 0 {
		return exitItemErrors
	}
	return 0
}
