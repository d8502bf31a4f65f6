// Package storagetest holds the behaviour every storage.Storage
// implementation must share.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/davidvella/barrace/storage"
	"github.com/davidvella/barrace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

// Run exercises s against the storage.Storage contract. newStorage must
// return an empty storage; Run closes it.
func Run(t *testing.T, newStorage func(t *testing.T) storage.Storage) {
	t.Run("BasicOperations", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		record := types.Record{Date: day(0), Name: "cpu", Value: 42}
		require.NoError(t, s.Put(ctx, record))

		got, err := s.Get(ctx, "cpu", day(0))
		require.NoError(t, err)
		assert.Equal(t, record.Name, got.Name)
		assert.Equal(t, record.Value, got.Value)
		assert.True(t, record.Date.Equal(got.Date))

		require.NoError(t, s.Delete(ctx, "cpu", day(0)))
		_, err = s.Get(ctx, "cpu", day(0))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		assert.NoError(t, s.Delete(ctx, "cpu", day(0)), "deleting a missing record")
	})

	t.Run("PutReplaces", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, types.Record{Date: day(0), Name: "cpu", Value: 1}))
		require.NoError(t, s.Put(ctx, types.Record{Date: day(0), Name: "cpu", Value: 2}))

		got, err := s.Get(ctx, "cpu", day(0))
		require.NoError(t, err)
		assert.Equal(t, 2.0, got.Value)

		records, err := s.Range(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("GetIgnoresLocation", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, types.Record{Date: day(0), Name: "cpu", Value: 1}))

		_, err := s.Get(ctx, "cpu", day(0).In(time.FixedZone("UTC+2", 2*60*60)))
		assert.NoError(t, err)
	})

	t.Run("InvalidBatchWritesNothing", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		err := s.Put(ctx,
			types.Record{Date: day(0), Name: "cpu", Value: 1},
			types.Record{Date: day(0), Name: "", Value: 1},
		)
		assert.ErrorIs(t, err, types.ErrInvalidRecord)

		err = s.Put(ctx, types.Record{Date: day(0), Name: "bad\x00name", Value: 1})
		assert.ErrorIs(t, err, types.ErrInvalidRecord)

		err = s.Put(ctx, types.Record{Date: day(0), Name: "nan", Value: math.NaN()})
		assert.ErrorIs(t, err, types.ErrInvalidRecord)

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("Range", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Put(ctx,
			types.Record{Date: day(2), Name: "b", Value: 4},
			types.Record{Date: day(0), Name: "b", Value: 1},
			types.Record{Date: day(1), Name: "a", Value: 3},
			types.Record{Date: day(0), Name: "a", Value: 2},
			types.Record{Date: time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC), Name: "a", Value: 0},
		))

		tests := []struct {
			name       string
			start, end time.Time
			want       []string
		}{
			{name: "unbounded", want: []string{"1969-12-31 a", "2024-01-01 a", "2024-01-01 b", "2024-01-02 a", "2024-01-03 b"}},
			{name: "start only", start: day(1), want: []string{"2024-01-02 a", "2024-01-03 b"}},
			{name: "end exclusive", end: day(1), want: []string{"1969-12-31 a", "2024-01-01 a", "2024-01-01 b"}},
			{name: "bounded", start: day(0), end: day(2), want: []string{"2024-01-01 a", "2024-01-01 b", "2024-01-02 a"}},
			{name: "empty", start: day(5), end: day(6), want: nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				records, err := s.Range(ctx, tt.start, tt.end)
				require.NoError(t, err)

				var got []string
				for _, r := range records {
					got = append(got, r.Date.UTC().Format(types.DateLayout)+" "+r.Name)
				}
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("DatesOutsideNanosecondRange", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		dates := []time.Time{
			time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2084, 7, 20, 23, 34, 33, 709551616, time.UTC),
			time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		for i, d := range dates {
			require.NoError(t, s.Put(ctx, types.Record{Date: d, Name: "a", Value: float64(i)}))
		}

		for i, d := range dates {
			got, err := s.Get(ctx, "a", d)
			require.NoError(t, err)
			assert.Equal(t, float64(i), got.Value)
			assert.True(t, d.Equal(got.Date), "want %s, got %s", d, got.Date)
		}

		records, err := s.Range(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, records, len(dates))
		for i, r := range records {
			assert.True(t, dates[i].Equal(r.Date), "want %s, got %s", dates[i], r.Date)
		}

		records, err = s.Range(ctx, dates[0].Add(time.Nanosecond), dates[2])
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 1.0, records[0].Value)
	})

	t.Run("Names", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Put(ctx,
			types.Record{Date: day(0), Name: "mem", Value: 1},
			types.Record{Date: day(1), Name: "mem", Value: 1},
			types.Record{Date: day(0), Name: "cpu", Value: 1},
			types.Record{Date: day(0), Name: "cpu2", Value: 1},
		))

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"cpu", "cpu2", "mem"}, names)

		require.NoError(t, s.Delete(ctx, "cpu", day(0)))
		require.NoError(t, s.Delete(ctx, "mem", day(0)))

		names, err = s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"cpu2", "mem"}, names)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Put(ctx, types.Record{Date: day(0), Name: "cpu", Value: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Closed", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Close())

		err := s.Put(context.Background(), types.Record{Date: day(0), Name: "cpu", Value: 1})
		assert.ErrorIs(t, err, storage.ErrClosed)
	})

	t.Run("CloseDuringReads", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx,
			types.Record{Date: day(0), Name: "cpu", Value: 1},
			types.Record{Date: day(1), Name: "mem", Value: 2},
		))

		numReaders := 8
		var wg sync.WaitGroup
		errCh := make(chan error, numReaders*3)
		start := make(chan struct{})

		for i := 0; i < numReaders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 50; j++ {
					if _, err := s.Range(ctx, time.Time{}, time.Time{}); err != nil {
						errCh <- err
						return
					}
					if _, err := s.Names(ctx); err != nil {
						errCh <- err
						return
					}
					if _, err := s.Get(ctx, "cpu", day(0)); err != nil {
						errCh <- err
						return
					}
				}
			}()
		}

		close(start)
		require.NoError(t, s.Close())
		wg.Wait()
		close(errCh)

		for err := range errCh {
			assert.ErrorIs(t, err, storage.ErrClosed)
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		s := newStorage(t)
		defer s.Close()
		ctx := context.Background()

		numWorkers := 8
		numOperations := 50

		var wg sync.WaitGroup
		errCh := make(chan error, numWorkers)

		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go func(workerID int) {
				defer wg.Done()
				name := fmt.Sprintf("worker%d", workerID)
				for j := 0; j < numOperations; j++ {
					if err := s.Put(ctx, types.Record{Date: day(j), Name: name, Value: float64(j)}); err != nil {
						errCh <- err
						return
					}
				}
			}(i)
		}

		wg.Wait()
		close(errCh)
		for err := range errCh {
			require.NoError(t, err)
		}

		records, err := s.Range(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, records, numWorkers*numOperations)

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Len(t, names, numWorkers)
	})
}
