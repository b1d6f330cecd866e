// Package main is ecorisk, the terminal client of the climate risk and flood
// prediction service.
//
// Usage:
//
//	ecorisk --sample
//	ecorisk --file site.yaml
//	ecorisk --interactive [--sample | --file site.json]
//	ecorisk --api-url http://predict.internal:5000 --file site.yaml
//
// A site file holds the 13 request fields, as YAML or JSON, keyed by the
// names the prediction service takes (Latitude, Vegetation_Type, ...). The
// result, or the error, is printed as a text report on stdout. Logs go to
// stderr. The process exits 1 when the submission did not produce a result.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"ecorisk/internal/config"
	"ecorisk/internal/controller"
	"ecorisk/internal/external"
	"ecorisk/internal/prediction"
	"ecorisk/internal/prompt"
	"ecorisk/internal/render"
)

// healthWait bounds how long the client waits, after reporting, for the
// startup health probe to log its findings.
const healthWait = 2 * time.Second

// errSubmissionFailed marks a failure already shown in the report.
var errSubmissionFailed = errors.New("submission failed")

type options struct {
	file        string
	sample      bool
	interactive bool
	apiURL      string
	logLevel    string
}

// app holds the process streams and the prompt driver so tests can replace
// them.
type app struct {
	stdout io.Writer
	stderr io.Writer
	driver prompt.Driver
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr, driver: prompt.NewSurveyDriver()}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errSubmissionFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func (a *app) parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("ecorisk", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&opts.file, "file", "", "Site file to submit (YAML or JSON)")
	fs.BoolVar(&opts.sample, "sample", false, "Submit the built-in sample site")
	fs.BoolVar(&opts.interactive, "interactive", false, "Prompt for every field before submitting")
	fs.StringVar(&opts.apiURL, "api-url", "", "Prediction service base URL (overrides PREDICTION_API_URL)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: ecorisk [flags]\n\n")
		fmt.Fprintf(a.stderr, "Predict climate risk and flood risk for a site.\n\n")
		fmt.Fprintf(a.stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.file != "" && opts.sample {
		return opts, errors.New("--file and --sample are mutually exclusive")
	}
	if opts.file == "" && !opts.sample && !opts.interactive {
		fs.Usage()
		return opts, errors.New("nothing to submit: use --sample, --file or --interactive")
	}
	return opts, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	opts, err := a.parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if opts.apiURL != "" {
		cfg.Prediction.BaseURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	logger := newLogger(a.stderr, cfg.LogLevel)

	client := external.NewPredictionClient(external.PredictionClientConfig{
		BaseURL:         cfg.Prediction.BaseURL,
		APIToken:        cfg.Prediction.APIToken,
		UserAgent:       cfg.Prediction.UserAgent,
		Timeout:         cfg.Prediction.Timeout,
		BreakerFailures: uint32(cfg.Prediction.BreakerFailures),
		Logger:          logger,
	})

	board := render.NewBoard()
	ctrl := controller.New(client, board, controller.WithLogger(logger))
	probed := ctrl.StartHealthProbe(ctx)

	values, err := a.collect(ctx, opts, ctrl, board)
	if err != nil {
		return err
	}

	_, submitErr := ctrl.Submit(ctx, values)

	reports, err := render.NewTextRenderer()
	if err != nil {
		return fmt.Errorf("loading report template: %w", err)
	}
	var out bytes.Buffer
	if err := reports.Render(&out, board); err != nil {
		return err
	}
	if _, err := out.WriteTo(a.stdout); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	select {
	case <-probed:
	case <-time.After(healthWait):
	case <-ctx.Done():
	}

	if submitErr != nil {
		return errSubmissionFailed
	}
	return nil
}

// collect builds the form values from the sample, a file and the prompts, in
// that order of precedence: prompts start from whatever was loaded.
func (a *app) collect(ctx context.Context, opts options, ctrl *controller.Controller, board *render.Board) (url.Values, error) {
	values := url.Values{}
	switch {
	case opts.sample:
		ctrl.FillSample()
		values = board.Values
	case opts.file != "":
		req, err := loadRequestFile(opts.file)
		if err != nil {
			return nil, err
		}
		values = prediction.ToForm(req)
	}

	if opts.interactive {
		answers, err := prompt.NewCollector(a.driver).Collect(ctx, values)
		if err != nil {
			return nil, fmt.Errorf("collecting input: %w", err)
		}
		values = answers
	}
	return values, nil
}

// loadRequestFile decodes a site file. JSON is accepted because it is valid
// YAML. Unknown keys are rejected so that misspelled fields surface early.
func loadRequestFile(path string) (prediction.Request, error) {
	var req prediction.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading site file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, fmt.Errorf("site file %s is empty", path)
		}
		return req, fmt.Errorf("parsing site file %s: %w", path, err)
	}
	return req, nil
}

// newLogger creates a text slog.Logger on w for the given level name.
func newLogger(w io.Writer, level string) *slog.Logger {
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
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
