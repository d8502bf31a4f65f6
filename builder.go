package barrace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidvella/barrace/keyframe"
	"github.com/davidvella/barrace/monitoring"
	"github.com/davidvella/barrace/storage"
	"github.com/davidvella/barrace/types"
)

// Builder stores records and derives ranked keyframes from them.
type Builder struct {
	store storage.Storage
	opts  options
}

// NewBuilder creates a builder over store.
func NewBuilder(store storage.Storage, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, errors.New("barrace: storage is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.interpolation < 0 || o.interpolation > keyframe.MaxInterpolation {
		return nil, fmt.Errorf("barrace: %w: %d", keyframe.ErrInvalidInterpolation, o.interpolation)
	}
	if o.batchSize <= 0 {
		return nil, errors.New("barrace: batch size must be positive")
	}
	if o.logger == nil {
		o.logger = monitoring.NopLogger()
	}

	return &Builder{store: store, opts: o}, nil
}

// Ingest validates every record and writes them to storage in batches. No
// record is written if any record is invalid.
func (b *Builder) Ingest(ctx context.Context, records ...types.Record) error {
	if err := storage.ValidateBatch(records); err != nil {
		b.fail(ctx, "ingest", err)
		return err
	}

	for start := 0; start < len(records); start += b.opts.batchSize {
		end := min(start+b.opts.batchSize, len(records))
		if err := b.store.Put(ctx, records[start:end]...); err != nil {
			err = fmt.Errorf("failed to store records %d-%d: %w", start, end-1, err)
			b.fail(ctx, "ingest", err)
			return err
		}
		if b.opts.stats != nil {
			b.opts.stats.RecordIngested(ctx, end-start)
		}
	}

	b.opts.logger.Log(ctx, monitoring.INFO, "ingest", "records stored", map[string]interface{}{
		"count": len(records),
	})

	if b.opts.stats != nil {
		if names, err := b.store.Names(ctx); err == nil {
			b.opts.stats.SetStoredNames(ctx, len(names))
		}
	}
	return nil
}

// Keyframes builds the keyframes for records dated in [start, end). Zero
// bounds are unbounded. Names absent before start begin at zero.
func (b *Builder) Keyframes(ctx context.Context, start, end time.Time) ([]keyframe.Keyframe, error) {
	began := time.Now()

	records, err := b.store.Range(ctx, start, end)
	if err != nil {
		err = fmt.Errorf("failed to load records: %w", err)
		b.fail(ctx, "keyframes", err)
		return nil, err
	}

	frames, err := keyframe.Build(records, b.opts.keyframeOptions()...)
	if err != nil {
		b.fail(ctx, "keyframes", err)
		return nil, err
	}

	if b.opts.stats != nil {
		b.opts.stats.RecordKeyframesBuilt(ctx, len(frames))
		b.opts.stats.RecordBuildLatency(ctx, time.Since(began))
	}

	b.opts.logger.Log(ctx, monitoring.DEBUG, "keyframes", "keyframes built", map[string]interface{}{
		"records": len(records),
		"frames":  len(frames),
	})
	return frames, nil
}

// Ranks returns the ranked state as of date: the last keyframe built from
// every record dated at or before date. It is empty when no such record
// exists. Interpolation does not apply.
func (b *Builder) Ranks(ctx context.Context, date time.Time) ([]types.KeyframeRecord, error) {
	records, err := b.store.Range(ctx, time.Time{}, date.Add(time.Nanosecond))
	if err != nil {
		err = fmt.Errorf("failed to load records: %w", err)
		b.fail(ctx, "ranks", err)
		return nil, err
	}

	o := b.opts
	o.interpolation = 0
	frames, err := keyframe.Build(records, o.keyframeOptions()...)
	if err != nil {
		b.fail(ctx, "ranks", err)
		return nil, err
	}
	if len(frames) == 0 {
		return nil, nil
	}
	return frames[len(frames)-1].Records, nil
}

func (b *Builder) fail(ctx context.Context, op string, err error) {
	b.opts.logger.Log(ctx, monitoring.ERROR, op, err.Error(), nil)
	if b.opts.stats != nil {
		b.opts.stats.RecordError(ctx, op)
	}
}
