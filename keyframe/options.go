package keyframe

// options defines how keyframes are ranked and spaced.
type options struct {
	topN          int  // Number of ranked entries per frame; zero ranks all
	keepOverflow  bool // Keep entries beyond topN, unranked
	interpolation int  // Frames inserted between consecutive dates
}

// Option is a function that configures keyframe building.
type Option func(*options)

// WithTopN limits ranking to the n largest values of each frame. Entries
// beyond n are dropped unless WithUnrankedOverflow is also given. n <= 0
// ranks every entry.
func WithTopN(n int) Option {
	return func(o *options) {
		o.topN = n
	}
}

// WithUnrankedOverflow keeps entries beyond the top N in each frame with
// their rank absent.
func WithUnrankedOverflow() Option {
	return func(o *options) {
		o.keepOverflow = true
	}
}

// WithInterpolation inserts k linearly interpolated frames between each
// pair of consecutive dates.
func WithInterpolation(k int) Option {
	return func(o *options) {
		o.interpolation = k
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
