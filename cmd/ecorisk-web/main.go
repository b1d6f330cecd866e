// Package main is the entry point of ecorisk-web, the browser front end of
// the climate risk and flood prediction service.
//
// Outside AWS it serves HTTP on the configured port. Inside Lambda it answers
// Function URL events with the same router. Graceful shutdown is handled via
// SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"ecorisk/internal/api/handlers"
	"ecorisk/internal/config"
	"ecorisk/internal/controller"
	"ecorisk/internal/core"
	"ecorisk/internal/external"
	"ecorisk/internal/render"
)

// metricsFlushInterval is how often buffered metrics are published in HTTP
// mode. Lambda mode flushes after every invocation.
const metricsFlushInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("ecorisk-web starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"prediction_api", cfg.Prediction.BaseURL,
	)

	metrics, err := newMetrics(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	srv, health, err := newServer(cfg, logger, metrics)
	if err != nil {
		return err
	}

	// Warm the health cache the way the page checks the service on load.
	health.Peek()

	if isLambdaEnvironment() {
		return runLambda(srv, metrics, logger)
	}
	return runHTTPServer(srv, metrics, cfg, logger)
}

// newServer assembles the chassis, the prediction client and the handlers.
// metrics may be nil.
func newServer(cfg *config.Config, logger *slog.Logger, metrics *core.CloudWatchMetrics) (*core.Server, *handlers.HealthCache, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating server: %w", err)
	}

	pages, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, nil, fmt.Errorf("loading page templates: %w", err)
	}

	client := external.NewPredictionClient(external.PredictionClientConfig{
		BaseURL:         cfg.Prediction.BaseURL,
		APIToken:        cfg.Prediction.APIToken,
		UserAgent:       cfg.Prediction.UserAgent,
		Timeout:         cfg.Prediction.Timeout,
		BreakerFailures: uint32(cfg.Prediction.BreakerFailures),
		Logger:          logger,
	})
	health := handlers.NewHealthCache(client, cfg.Prediction.HealthCacheTTL, logger)

	var recorder controller.OutcomeRecorder
	if metrics != nil {
		srv.Metrics = metrics
		recorder = metrics
	}

	predict := handlers.NewPredictHandler(client, pages, health, recorder, logger)
	srv.RouteRegistrars = append(srv.RouteRegistrars, predict.RegisterRoutes)
	srv.HealthProbes = append(srv.HealthProbes, core.NewProbe("prediction_api", func(ctx context.Context) error {
		_, err := health.Get(ctx)
		return err
	}))

	srv.MountRoutes()
	return srv, health, nil
}

// newMetrics returns nil when metrics are disabled.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.CloudWatchMetrics, error) {
	if !cfg.Observability.MetricsEnabled {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Observability.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	logger.Info("CloudWatch metrics enabled",
		"namespace", cfg.Observability.MetricNamespace,
		"region", cfg.Observability.AWSRegion,
	)
	return core.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger), nil
}

// isLambdaEnvironment reports whether the process runs inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer serves until SIGINT or SIGTERM, then drains connections and
// flushes metrics.
func runHTTPServer(srv *core.Server, metrics *core.CloudWatchMetrics, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Prediction.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	runCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	if metrics != nil {
		go metrics.Run(runCtx, metricsFlushInterval)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Flush is safe to run concurrently with the final flush of Run.
	stopMetrics()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a JSON slog.Logger for the given level name.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
