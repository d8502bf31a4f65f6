package monitoring

import (
	"context"
	"time"

	"github.com/davidvella/barrace/metrics"
)

const (
	RecordsIngestedTotal = "records_ingested_total"
	KeyframesBuiltTotal  = "keyframes_built_total"
	BuildLatencyMs       = "build_latency_ms"
	StoredNames          = "stored_names"
	Errors               = "errors"
)

// Stats collects and reports processing statistics
type stats struct {
	registry *metrics.Registry
}

func NewStats(registry *metrics.Registry) Stats {
	registry.Register(metrics.Metric{
		Name:        RecordsIngestedTotal,
		Type:        metrics.Counter,
		Description: "Total number of records ingested",
	})

	registry.Register(metrics.Metric{
		Name:        KeyframesBuiltTotal,
		Type:        metrics.Counter,
		Description: "Total number of keyframes built",
	})

	registry.Register(metrics.Metric{
		Name:        BuildLatencyMs,
		Type:        metrics.Histogram,
		Description: "Keyframe build latency in milliseconds",
	})

	registry.Register(metrics.Metric{
		Name:        StoredNames,
		Type:        metrics.Gauge,
		Description: "Number of distinct names in storage",
	})

	registry.Register(metrics.Metric{
		Name:        Errors,
		Type:        metrics.Counter,
		Description: "Total number of errors by operation",
	})

	return &stats{registry: registry}
}

func (s *stats) RecordIngested(ctx context.Context, count int) {
	s.registry.RecordCounter(RecordsIngestedTotal, float64(count), nil)
}

func (s *stats) RecordKeyframesBuilt(ctx context.Context, count int) {
	s.registry.RecordCounter(KeyframesBuiltTotal, float64(count), nil)
}

func (s *stats) RecordBuildLatency(ctx context.Context, duration time.Duration) {
	s.registry.RecordHistogram(BuildLatencyMs, float64(duration.Milliseconds()), nil)
}

func (s *stats) SetStoredNames(ctx context.Context, count int) {
	s.registry.RecordGauge(StoredNames, float64(count), nil)
}

func (s *stats) RecordError(ctx context.Context, op string) {
	s.registry.RecordCounter(Errors, 1, map[string]string{
		"op": op,
	})
}

type Stats interface {
	RecordIngested(ctx context.Context, count int)
	RecordKeyframesBuilt(ctx context.Context, count int)
	RecordBuildLatency(ctx context.Context, duration time.Duration)
	SetStoredNames(ctx context.Context, count int)
	RecordError(ctx context.Context, op string)
}
