package types

import (
	"fmt"
	"math"
)

// KeyframeRecord represents a named measurement possibly annotated with an
// ordering position. A nil Rank means unranked.
type KeyframeRecord struct {
	Name  string
	Rank  *int
	Value float64
}

// HasRank reports whether the record carries a rank.
func (k KeyframeRecord) HasRank() bool {
	return k.Rank != nil
}

// RankOr returns the rank, or def when the record is unranked.
func (k KeyframeRecord) RankOr(def int) int {
	if k.Rank == nil {
		return def
	}
	return *k.Rank
}

// WithRank returns a copy of k ranked at position rank.
func (k KeyframeRecord) WithRank(rank int) KeyframeRecord {
	k.Rank = &rank
	return k
}

// WithoutRank returns an unranked copy of k.
func (k KeyframeRecord) WithoutRank() KeyframeRecord {
	k.Rank = nil
	return k
}

// Equal compares by value, including rank presence.
func (k KeyframeRecord) Equal(o KeyframeRecord) bool {
	if k.Name != o.Name || k.Value != o.Value || k.HasRank() != o.HasRank() {
		return false
	}
	return k.Rank == nil || *k.Rank == *o.Rank
}

// Validate reports whether the required fields are present and the rank,
// if any, is a valid position.
func (k KeyframeRecord) Validate() error {
	if k.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidRecord)
	}
	if math.IsNaN(k.Value) || math.IsInf(k.Value, 0) {
		return fmt.Errorf("%w: value of %q is not finite", ErrInvalidRecord, k.Name)
	}
	if k.Rank != nil && *k.Rank < 0 {
		return fmt.Errorf("%w: rank of %q is negative", ErrInvalidRecord, k.Name)
	}
	return nil
}

// Ptr returns a pointer to v. Handy for building ranks inline.
func Ptr[T any](v T) *T {
	return &v
}
