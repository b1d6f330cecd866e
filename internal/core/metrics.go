package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"ecorisk/internal/types"
)

const (
	// maxBufferedDatums caps memory while CloudWatch is unreachable. The
	// oldest datums are dropped first.
	maxBufferedDatums = 5000

	// putBatchSize is the number of datums sent per PutMetricData call.
	putBatchSize = 500
)

// CloudWatchAPI is the subset of the CloudWatch client used for publishing.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers request and prediction telemetry and publishes
// it in batches. Recording never blocks on the network.
type CloudWatchMetrics struct {
	client    CloudWatchAPI
	namespace string
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending []cwtypes.MetricDatum
	dropped int
}

// NewCloudWatchMetrics returns a collector publishing to namespace, or to
// types.MetricNamespace when namespace is empty.
func NewCloudWatchMetrics(client CloudWatchAPI, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordRequest buffers the latency and count of one HTTP request.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dimension(types.DimMethod, method),
		dimension(types.DimEndpoint, endpoint),
		dimension(types.DimStatus, status),
	}
	m.add(
		m.datum(types.MetricAPILatency, float64(duration.Milliseconds()), cwtypes.StandardUnitMilliseconds, dims),
		m.datum(types.MetricAPIRequestCount, 1, cwtypes.StandardUnitCount, dims),
	)
}

// RecordPrediction buffers the outcome and latency of one submission.
func (m *CloudWatchMetrics) RecordPrediction(_ context.Context, outcome types.PredictionOutcome, duration time.Duration) {
	dims := []cwtypes.Dimension{dimension(types.DimOutcome, string(outcome))}
	m.add(
		m.datum(types.MetricPredictionOutcome, 1, cwtypes.StandardUnitCount, dims),
		m.datum(types.MetricPredictionLatency, float64(duration.Milliseconds()), cwtypes.StandardUnitMilliseconds, dims),
	)
}

// Pending reports the number of buffered datums.
func (m *CloudWatchMetrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush publishes every buffered datum. Datums of a failed batch, and of the
// batches after it, are put back for the next attempt.
func (m *CloudWatchMetrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	dropped := m.dropped
	m.dropped = 0
	m.mu.Unlock()

	if dropped > 0 {
		m.logger.Warn("metric buffer overflowed", "dropped", dropped)
	}

	for start := 0; start < len(batch); start += putBatchSize {
		end := min(start+putBatchSize, len(batch))
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
		if err != nil {
			m.logger.Error("failed to publish metrics",
				"error", err.Error(),
				"datums", len(batch)-start,
			)
			m.requeue(batch[start:])
			return err
		}
	}
	return nil
}

// Run flushes every interval until ctx is cancelled, then flushes once more
// with a fresh short deadline.
func (m *CloudWatchMetrics) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_ = m.Flush(final)
			cancel()
			return
		}
	}
}

func (m *CloudWatchMetrics) add(datums ...cwtypes.MetricDatum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, datums...)
	m.trimLocked()
}

// requeue puts failed datums in front of anything recorded meanwhile.
func (m *CloudWatchMetrics) requeue(datums []cwtypes.MetricDatum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(append([]cwtypes.MetricDatum(nil), datums...), m.pending...)
	m.trimLocked()
}

func (m *CloudWatchMetrics) trimLocked() {
	if over := len(m.pending) - maxBufferedDatums; over > 0 {
		m.pending = append(m.pending[:0:0], m.pending[over:]...)
		m.dropped += over
	}
}

func (m *CloudWatchMetrics) datum(name string, value float64, unit cwtypes.StandardUnit, dims []cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
		Dimensions: dims,
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
