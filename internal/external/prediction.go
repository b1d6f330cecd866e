package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"ecorisk/internal/prediction"
	"ecorisk/internal/types"
)

// maxResponseBytes caps how much of a service response is decoded.
const maxResponseBytes = 1 << 20

// PredictionClientConfig holds the configuration for a PredictionHTTPClient.
type PredictionClientConfig struct {
	BaseURL         string
	APIToken        types.SecretString
	UserAgent       string
	Timeout         time.Duration
	BreakerFailures uint32
	Logger          *slog.Logger
}

// PredictionHTTPClient implements Predictor against the prediction service's
// REST API. Predictions are sent once; health reads are retried briefly. Both
// share one circuit breaker.
type PredictionHTTPClient struct {
	predict  *BaseClient
	health   *BaseClient
	baseURL  string
	apiToken types.SecretString
	logger   *slog.Logger
}

// NewPredictionClient creates a PredictionHTTPClient. A zero Timeout leaves the
// timeout to the caller's context.
func NewPredictionClient(cfg PredictionClientConfig, opts ...BaseClientOption) *PredictionHTTPClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	breaker := gobreaker.NewCircuitBreaker[*http.Response](BreakerSettings("prediction", cfg.BreakerFailures))

	predictOpts := append([]BaseClientOption{WithApplicationErrors(isPredictionFailureBody)}, opts...)
	return NewPredictionClientWithBase(
		NewBaseClientWithBreaker(httpClient, breaker, NoRetry(), cfg.UserAgent, predictOpts...),
		NewBaseClientWithBreaker(httpClient, breaker, DefaultRetryPolicy(), cfg.UserAgent, opts...),
		cfg,
	)
}

// NewPredictionClientWithBase creates a PredictionHTTPClient around
// pre-configured BaseClients for the predict and health calls.
func NewPredictionClientWithBase(predict, health *BaseClient, cfg PredictionClientConfig) *PredictionHTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PredictionHTTPClient{
		predict:  predict,
		health:   health,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
		logger:   logger,
	}
}

// isPredictionFailureBody reports whether body is the service's own
// {"success": false, ...} answer. The service sends those with a 500, and
// they say nothing about its availability.
func isPredictionFailureBody(_ int, body []byte) bool {
	var out struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false
	}
	return out.Success != nil && !*out.Success
}

// Predict POSTs req to {base}/api/predict. The body is decoded whatever the
// HTTP status, since the service reports its own failures as JSON.
func (c *PredictionHTTPClient) Predict(ctx context.Context, req prediction.Request) (*prediction.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to serialize prediction request",
			err,
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/predict", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create prediction request",
			err,
		)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	start := time.Now()
	resp, err := c.predict.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "prediction service unreachable", "error", err)
		return nil, connectivityError(err)
	}
	defer resp.Body.Close()

	var out prediction.Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		c.logger.WarnContext(ctx, "prediction response could not be decoded",
			"status_code", resp.StatusCode,
			"error", err,
		)
		return nil, connectivityError(err)
	}

	if !out.Success {
		msg := out.Error
		if strings.TrimSpace(msg) == "" {
			msg = FallbackErrorMessage
		}
		c.logger.InfoContext(ctx, "prediction service reported failure",
			"status_code", resp.StatusCode,
			"error", msg,
		)
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamPredictionFailed,
			msg,
			fmt.Errorf("prediction service returned %d", resp.StatusCode),
			map[string]any{"status_code": resp.StatusCode},
		)
	}

	c.logger.DebugContext(ctx, "prediction received",
		"climate_risk_score", out.ClimateRiskScore,
		"flood_risk_category", out.FloodRiskCategory,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &out, nil
}

// Health GETs {base}/api/health.
func (c *PredictionHTTPClient) Health(ctx context.Context) (*prediction.HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create health request",
			err,
		)
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.health.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("prediction service health returned %d", resp.StatusCode),
			nil,
		)
	}

	var status prediction.HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&status); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"failed to decode prediction service health",
			err,
		)
	}
	return &status, nil
}

func (c *PredictionHTTPClient) authorize(req *http.Request) {
	if c.apiToken.IsSet() {
		req.Header.Set("Authorization", "Bearer "+c.apiToken.Unmask())
	}
}

// connectivityError presents any failure to reach or understand the service
// as the network message. A rate-limit code survives so callers can tell it
// apart.
func connectivityError(err error) *types.AppError {
	code := types.ErrCodeUpstreamUnavailable
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamRateLimited {
		code = appErr.Code
	}
	return types.NewAppError(code, NetworkErrorMessage, err)
}

var _ Predictor = (*PredictionHTTPClient)(nil)
