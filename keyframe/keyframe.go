package keyframe

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/davidvella/barrace/types"
)

// MaxInterpolation bounds the frames inserted between two dates.
const MaxInterpolation = 1000

// ErrInvalidInterpolation is returned for an interpolation count outside
// [0, MaxInterpolation].
var ErrInvalidInterpolation = errors.New("interpolation frames out of range")

// Keyframe is the ranked state of every name at one point in time.
type Keyframe struct {
	Date    time.Time
	Records []types.KeyframeRecord
}

// Rank orders records by value, largest first, breaking ties by name, and
// assigns ranks from zero. The input is not modified.
func Rank(records []types.KeyframeRecord, opts ...Option) []types.KeyframeRecord {
	return rank(records, applyOptions(opts))
}

func rank(records []types.KeyframeRecord, o options) []types.KeyframeRecord {
	ranked := slices.Clone(records)
	slices.SortStableFunc(ranked, func(a, b types.KeyframeRecord) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	for i := range ranked {
		if o.topN > 0 && i >= o.topN {
			if !o.keepOverflow {
				return ranked[:i]
			}
			ranked[i] = ranked[i].WithoutRank()
			continue
		}
		ranked[i] = ranked[i].WithRank(i)
	}
	return ranked
}

// Build turns records into one keyframe per distinct date, in date order,
// plus any interpolated frames between consecutive dates.
//
// Every frame carries every name seen in the input. A name missing at a
// date keeps its previous value, or zero before its first appearance. When
// the same name appears twice at a date the later record wins.
func Build(records []types.Record, opts ...Option) ([]Keyframe, error) {
	o := applyOptions(opts)
	if o.interpolation < 0 || o.interpolation > MaxInterpolation {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidInterpolation, o.interpolation, MaxInterpolation)
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	dates, names, values := tabulate(records)
	if len(dates) == 0 {
		return nil, nil
	}

	var frames []Keyframe
	for i := range dates {
		if i > 0 {
			frames = append(frames, between(dates[i-1], dates[i], names, values[i-1], values[i], o)...)
		}
		frames = append(frames, frame(dates[i], names, values[i], o))
	}
	return frames, nil
}

// tabulate returns the sorted distinct dates, the sorted distinct names and
// a dense value table indexed [date][name] with gaps carried forward.
func tabulate(records []types.Record) ([]time.Time, []string, [][]float64) {
	byDate := make(map[instant]time.Time)
	nameSet := make(map[string]struct{})
	for _, r := range records {
		if _, ok := byDate[instantOf(r.Date)]; !ok {
			byDate[instantOf(r.Date)] = r.Date
		}
		nameSet[r.Name] = struct{}{}
	}

	dates := make([]time.Time, 0, len(byDate))
	for _, d := range byDate {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	names := make([]string, 0, len(nameSet))
	for n := range nameSet {
		names = append(names, n)
	}
	slices.Sort(names)

	dateIdx := make(map[instant]int, len(dates))
	for i, d := range dates {
		dateIdx[instantOf(d)] = i
	}
	nameIdx := make(map[string]int, len(names))
	for i, n := range names {
		nameIdx[n] = i
	}

	values := make([][]float64, len(dates))
	seen := make([][]bool, len(dates))
	for i := range dates {
		values[i] = make([]float64, len(names))
		seen[i] = make([]bool, len(names))
	}
	for _, r := range records {
		d, n := dateIdx[instantOf(r.Date)], nameIdx[r.Name]
		values[d][n] = r.Value
		seen[d][n] = true
	}

	for d := 1; d < len(dates); d++ {
		for n := range names {
			if !seen[d][n] {
				values[d][n] = values[d-1][n]
			}
		}
	}

	return dates, names, values
}

// instant identifies a point in time regardless of location.
type instant struct {
	sec  int64
	nsec int
}

func instantOf(t time.Time) instant {
	return instant{sec: t.Unix(), nsec: t.Nanosecond()}
}

func frame(date time.Time, names []string, values []float64, o options) Keyframe {
	records := make([]types.KeyframeRecord, len(names))
	for i, name := range names {
		records[i] = types.KeyframeRecord{Name: name, Value: values[i]}
	}
	return Keyframe{Date: date, Records: rank(records, o)}
}

// between returns the o.interpolation frames strictly between two dates,
// with dates and values spaced linearly.
func between(from, to time.Time, names []string, a, b []float64, o options) []Keyframe {
	if o.interpolation == 0 {
		return nil
	}

	span := to.Sub(from)
	steps := float64(o.interpolation + 1)
	frames := make([]Keyframe, 0, o.interpolation)
	values := make([]float64, len(names))

	for i := 1; i <= o.interpolation; i++ {
		t := float64(i) / steps
		for n := range names {
			values[n] = a[n] + (b[n]-a[n])*t
		}
		date := from.Add(time.Duration(float64(span) * t))
		frames = append(frames, frame(date, names, values, o))
	}
	return frames
}
