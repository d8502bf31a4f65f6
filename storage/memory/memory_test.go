package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/davidvella/barrace/storage"
	"github.com/davidvella/barrace/storage/memory"
	"github.com/davidvella/barrace/storage/storagetest"
	"github.com/davidvella/barrace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return memory.NewMemoryStorage()
	})
}

func TestMemoryStorage_DeleteKeepsOtherDates(t *testing.T) {
	s := memory.NewMemoryStorage()
	ctx := context.Background()
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx,
		types.Record{Date: jan1, Name: "cpu", Value: 1},
		types.Record{Date: jan1.AddDate(0, 0, 1), Name: "cpu", Value: 2},
	))
	// Replacing must not double count the name.
	require.NoError(t, s.Put(ctx, types.Record{Date: jan1, Name: "cpu", Value: 3}))
	require.NoError(t, s.Delete(ctx, "cpu", jan1))

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu"}, names)

	require.NoError(t, s.Delete(ctx, "cpu", jan1.AddDate(0, 0, 1)))
	names, err = s.Names(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
