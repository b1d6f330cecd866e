package external

import (
	"context"

	"ecorisk/internal/prediction"
)

// Predictor abstracts the prediction service. The web handlers, the terminal
// client and the submission controller depend on this interface only.
type Predictor interface {
	// Predict submits a validated request. It returns the decoded response
	// when the service reports success. Connectivity problems return a
	// *types.AppError with code upstream_unavailable; a failure the service
	// reports itself returns upstream_prediction_failed.
	Predict(ctx context.Context, req prediction.Request) (*prediction.Response, error)

	// Health returns the service's own health report.
	Health(ctx context.Context) (*prediction.HealthStatus, error)
}

// User-facing messages for the two upstream failure classes.
const (
	NetworkErrorMessage  = "Network error: Unable to connect to the prediction service. Please check if the server is running."
	FallbackErrorMessage = "An error occurred during prediction"
)
