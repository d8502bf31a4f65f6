package barrace

import (
	"github.com/davidvella/barrace/keyframe"
	"github.com/davidvella/barrace/monitoring"
)

// options defines all configuration options for the builder.
type options struct {
	// Keyframe options
	topN          int  // Number of ranked entries per frame; zero ranks all
	keepOverflow  bool // Keep entries beyond topN, unranked
	interpolation int  // Frames inserted between consecutive dates

	// Ingest options
	batchSize int // Maximum records written per storage call

	logger monitoring.Logger
	stats  monitoring.Stats
}

// Option is a function that configures the builder options.
type Option func(*options)

// WithTopN ranks only the n largest values of each frame.
func WithTopN(n int) Option {
	return func(o *options) {
		o.topN = n
	}
}

// WithUnrankedOverflow keeps entries beyond the top N, unranked.
func WithUnrankedOverflow() Option {
	return func(o *options) {
		o.keepOverflow = true
	}
}

// WithInterpolation sets the number of frames inserted between dates.
func WithInterpolation(k int) Option {
	return func(o *options) {
		o.interpolation = k
	}
}

// WithBatchSize sets the maximum number of records written per storage call.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l monitoring.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStats sets the statistics sink.
func WithStats(s monitoring.Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		batchSize: 1000,
		logger:    monitoring.NopLogger(),
	}
}

func (o options) keyframeOptions() []keyframe.Option {
	opts := []keyframe.Option{
		keyframe.WithTopN(o.topN),
		keyframe.WithInterpolation(o.interpolation),
	}
	if o.keepOverflow {
		opts = append(opts, keyframe.WithUnrankedOverflow())
	}
	return opts
}
