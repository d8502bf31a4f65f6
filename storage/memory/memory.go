package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/davidvella/barrace/storage"
	"github.com/davidvella/barrace/types"
	"github.com/google/btree"
)

const degree = 16

// byDate orders records by date, then name.
func byDate(a, b types.Record) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c < 0
	}
	return a.Name < b.Name
}

// MemoryStorage provides in-memory storage implementation
type MemoryStorage struct {
	mu      sync.RWMutex
	records *btree.BTreeG[types.Record]
	names   map[string]int
	closed  bool
}

var _ storage.Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: btree.NewG[types.Record](degree, byDate),
		names:   make(map[string]int),
	}
}

func (m *MemoryStorage) Put(ctx context.Context, records ...types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateBatch(records); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return storage.ErrClosed
	}

	for _, r := range records {
		if _, replaced := m.records.ReplaceOrInsert(r); !replaced {
			m.names[r.Name]++
		}
	}
	return nil
}

func (m *MemoryStorage) Get(ctx context.Context, name string, date time.Time) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return types.Record{}, storage.ErrClosed
	}

	r, ok := m.records.Get(types.Record{Name: name, Date: date})
	if !ok {
		return types.Record{}, fmt.Errorf("%s at %s: %w", name, date.Format(time.RFC3339), storage.ErrNotFound)
	}
	return r, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, name string, date time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return storage.ErrClosed
	}

	if _, ok := m.records.Delete(types.Record{Name: name, Date: date}); ok {
		m.names[name]--
		if m.names[name] == 0 {
			delete(m.names, name)
		}
	}
	return nil
}

func (m *MemoryStorage) Range(ctx context.Context, start, end time.Time) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, storage.ErrClosed
	}

	var out []types.Record
	collect := func(r types.Record) bool {
		if !storage.InRange(r.Date, start, end) {
			return end.IsZero() || r.Date.Before(end)
		}
		out = append(out, r)
		return true
	}

	if start.IsZero() {
		m.records.Ascend(collect)
	} else {
		m.records.AscendGreaterOrEqual(types.Record{Date: start}, collect)
	}
	return out, nil
}

func (m *MemoryStorage) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, storage.ErrClosed
	}

	names := make([]string, 0, len(m.names))
	for name := range m.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records.Clear(false)
	m.names = make(map[string]int)
	return nil
}
