package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidvella/barrace/types"
)

var (
	// ErrNotFound is returned when no record exists for a name and date.
	ErrNotFound = errors.New("record not found")
	// ErrClosed is returned by operations on a closed storage.
	ErrClosed = errors.New("storage is closed")
)

// Storage defines the interface for record storage. Records are identified
// by name and date; putting a record with an existing identity replaces it.
type Storage interface {
	// Put stores records atomically: either all are stored or none are.
	Put(ctx context.Context, records ...types.Record) error

	// Get retrieves the record for name at date.
	Get(ctx context.Context, name string, date time.Time) (types.Record, error)

	// Delete removes the record for name at date. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, name string, date time.Time) error

	// Range returns the records dated in [start, end), ordered by date then
	// name. A zero start or end leaves that side unbounded.
	Range(ctx context.Context, start, end time.Time) ([]types.Record, error)

	// Names returns every stored name in ascending order.
	Names(ctx context.Context) ([]string, error)

	Close() error
}

// ValidateBatch checks every record before a batch is written. Names may
// not contain NUL, which key encodings reserve as a separator.
func ValidateBatch(records []types.Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if strings.ContainsRune(r.Name, 0) {
			return fmt.Errorf("record %d: %w: name contains NUL", i, types.ErrInvalidRecord)
		}
	}
	return nil
}

// InRange reports whether date falls in [start, end) with zero bounds
// treated as unbounded.
func InRange(date, start, end time.Time) bool {
	if !start.IsZero() && date.Before(start) {
		return false
	}
	if !end.IsZero() && !date.Before(end) {
		return false
	}
	return true
}
