package types

// Telemetry metric names for CloudWatch.
const (
	// Metric Names
	MetricAPILatency        = "APILatency"
	MetricAPIRequestCount   = "APIRequestCount"
	MetricPredictionOutcome = "PredictionOutcome"
	MetricPredictionLatency = "PredictionLatency"

	// Dimension Keys
	DimMethod   = "Method"
	DimEndpoint = "Endpoint"
	DimStatus   = "Status"
	DimOutcome  = "Outcome"

	// Default Metric Namespace
	MetricNamespace = "EcoRisk"
)

// PredictionOutcome classifies how a submission attempt ended. The values
// double as the Outcome metric dimension.
type PredictionOutcome string

const (
	OutcomeSuccess          PredictionOutcome = "success"
	OutcomeValidationFailed PredictionOutcome = "validation_failed"
	OutcomeServerError      PredictionOutcome = "server_error"
	OutcomeNetworkError     PredictionOutcome = "network_error"
)
