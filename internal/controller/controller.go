// Package controller drives one prediction page through a submission: it
// collects and validates the form, calls the prediction service and updates
// the display with the result or the error.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"ecorisk/internal/external"
	"ecorisk/internal/prediction"
	"ecorisk/internal/types"
)

// ModelsNotLoadedWarning is logged, and shown as a notice where a page has
// room for one, when the prediction service reports no loaded models.
const ModelsNotLoadedWarning = "Models not loaded on server. Some functionality may not work."

// Display is the surface a Controller draws on. render.Board implements it.
type Display interface {
	HidePanels()
	ShowLoading()
	HideLoading()
	SetSubmitEnabled(enabled bool)
	ShowError(msg string)
	ShowResult(resp prediction.Response)
	SetValues(values url.Values)
}

// OutcomeRecorder receives the outcome of every submission that got past the
// in-flight check.
type OutcomeRecorder interface {
	RecordPrediction(ctx context.Context, outcome types.PredictionOutcome, duration time.Duration)
}

// Controller runs submissions for one Display. At most one submission is in
// flight at a time; the rest of the Controller is safe to share between
// goroutines only through that guard.
type Controller struct {
	predictor external.Predictor
	display   Display
	validator *prediction.Validator
	logger    *slog.Logger
	recorder  OutcomeRecorder
	now       func() time.Time

	inFlight atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithValidator shares a Validator between Controllers.
func WithValidator(v *prediction.Validator) Option {
	return func(c *Controller) { c.validator = v }
}

// WithOutcomeRecorder reports submission outcomes, typically as metrics.
func WithOutcomeRecorder(r OutcomeRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New creates a Controller that calls predictor and draws on display.
func New(predictor external.Predictor, display Display, opts ...Option) *Controller {
	c := &Controller{
		predictor: predictor,
		display:   display,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.validator == nil {
		c.validator = prediction.NewValidator()
	}
	return c
}

// Submit runs one submission of raw form values. See SubmitRequest.
func (c *Controller) Submit(ctx context.Context, form url.Values) (*prediction.Response, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, errSubmissionInFlight()
	}
	defer c.inFlight.Store(false)

	c.display.SetValues(form)
	return c.run(ctx, prediction.FromForm(form))
}

// SubmitRequest runs one submission of an already structured request:
//
//  1. hide every panel
//  2. validate; on failure show the joined messages and stop
//  3. show loading and disable submit
//  4. call the prediction service
//  5. hide loading and show the result or the error
//
// The submit control is re-enabled however the call ends. A second call while
// one is running returns a conflict error without touching the display.
func (c *Controller) SubmitRequest(ctx context.Context, req prediction.Request) (*prediction.Response, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, errSubmissionInFlight()
	}
	defer c.inFlight.Store(false)

	c.display.SetValues(prediction.ToForm(req))
	return c.run(ctx, req)
}

// InFlight reports whether a submission is running.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

func (c *Controller) run(ctx context.Context, req prediction.Request) (*prediction.Response, error) {
	d := c.display
	d.HidePanels()

	if err := c.validator.Check(req); err != nil {
		var appErr *types.AppError
		errors.As(err, &appErr)
		d.ShowError(appErr.Message)
		c.logger.DebugContext(ctx, "submission rejected by validation", "errors", appErr.Details["errors"])
		c.record(ctx, types.OutcomeValidationFailed, 0)
		return nil, err
	}

	d.ShowLoading()
	d.SetSubmitEnabled(false)
	defer d.SetSubmitEnabled(true)

	start := c.now()
	resp, err := c.predictor.Predict(ctx, req)
	elapsed := c.now().Sub(start)
	d.HideLoading()

	if err != nil {
		msg, outcome := describeFailure(err)
		d.ShowError(msg)
		c.logger.WarnContext(ctx, "prediction failed",
			"outcome", string(outcome),
			"error", err,
		)
		c.record(ctx, outcome, elapsed)
		return nil, err
	}

	d.ShowResult(*resp)
	c.logger.InfoContext(ctx, "prediction completed",
		"climate_risk_score", resp.ClimateRiskScore,
		"flood_risk_category", resp.FloodRiskCategory,
		"duration_ms", elapsed.Milliseconds(),
	)
	c.record(ctx, types.OutcomeSuccess, elapsed)
	return resp, nil
}

// describeFailure picks the user-facing message for a failed call. Only a
// failure reported by the service itself carries its own text; anything else
// is presented as a connectivity problem.
func describeFailure(err error) (string, types.PredictionOutcome) {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamPredictionFailed {
		msg := appErr.Message
		if msg == "" {
			msg = external.FallbackErrorMessage
		}
		return msg, types.OutcomeServerError
	}
	return external.NetworkErrorMessage, types.OutcomeNetworkError
}

// FillSample loads the built-in sample site into the form. It does not
// submit.
func (c *Controller) FillSample() {
	c.display.SetValues(prediction.ToForm(prediction.SampleRequest()))
}

// ProbeHealth asks the prediction service for its health and logs a warning
// when models are not loaded or the probe fails. It never changes the
// display.
func (c *Controller) ProbeHealth(ctx context.Context) (*prediction.HealthStatus, error) {
	status, err := c.predictor.Health(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "could not check prediction service health", "error", err)
		return nil, err
	}
	if !status.ModelsLoaded {
		c.logger.WarnContext(ctx, ModelsNotLoadedWarning,
			"status", status.Status,
			"models_loaded", status.ModelsLoaded,
		)
	}
	return status, nil
}

// StartHealthProbe runs ProbeHealth in the background and returns at once.
// The returned channel is closed when the probe has finished.
func (c *Controller) StartHealthProbe(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.ProbeHealth(ctx)
	}()
	return done
}

func (c *Controller) record(ctx context.Context, outcome types.PredictionOutcome, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordPrediction(ctx, outcome, d)
	}
}

func errSubmissionInFlight() *types.AppError {
	return types.NewAppError(
		types.ErrCodeConflictSubmissionInFlight,
		"a prediction is already in progress",
		nil,
	)
}
