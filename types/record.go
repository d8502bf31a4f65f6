package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRecord is returned when a value does not satisfy the shape of a
// Record or KeyframeRecord.
var ErrInvalidRecord = errors.New("invalid record")

// Record represents a single timestamped named measurement.
type Record struct {
	Date  time.Time
	Name  string
	Value float64
}

// Validate reports whether every field of the record is present.
func (r Record) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidRecord)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is missing for %q", ErrInvalidRecord, r.Name)
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return fmt.Errorf("%w: value of %q is not finite", ErrInvalidRecord, r.Name)
	}
	return nil
}

// Less orders records by name, then date.
func (r Record) Less(o Record) bool {
	if r.Name != o.Name {
		return r.Name < o.Name
	}
	return r.Date.Before(o.Date)
}

// Keyframe returns the unranked KeyframeRecord carrying the record's name
// and value.
func (r Record) Keyframe() KeyframeRecord {
	return KeyframeRecord{Name: r.Name, Value: r.Value}
}
