package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/davidvella/barrace/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLogger("builder", zap.New(core))

	l.Log(context.Background(), DEBUG, "debug", "dropped", nil)
	l.Log(context.Background(), WARN, "ingest", "skipped record", map[string]interface{}{"index": 3})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "skipped record", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "builder", fields["component"])
	assert.Equal(t, "ingest", fields["event_type"])
	assert.EqualValues(t, 3, fields["index"])
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DEBUG.String())
	assert.Equal(t, "ERROR", ERROR.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NopLogger().Log(context.Background(), ERROR, "x", "y", nil)
		NewLogger("nil", nil).Log(context.Background(), INFO, "x", "y", nil)
	})
}

func TestStats(t *testing.T) {
	registry := metrics.NewRegistry()
	s := NewStats(registry)
	ctx := context.Background()

	s.RecordIngested(ctx, 3)
	s.RecordIngested(ctx, 2)
	s.RecordKeyframesBuilt(ctx, 4)
	s.RecordBuildLatency(ctx, 15*time.Millisecond)
	s.SetStoredNames(ctx, 9)
	s.SetStoredNames(ctx, 10)
	s.RecordError(ctx, "ingest")

	assert.Equal(t, 5.0, registry.Sum(RecordsIngestedTotal))
	assert.Equal(t, 4.0, registry.Sum(KeyframesBuiltTotal))
	assert.Equal(t, 15.0, registry.Sum(BuildLatencyMs))
	assert.Equal(t, 10.0, registry.Sum(StoredNames))
	assert.Equal(t, 1.0, registry.Sum(Errors))
}
