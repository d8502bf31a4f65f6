package pebble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/davidvella/barrace/serialization"
	"github.com/davidvella/barrace/storage"
	"github.com/davidvella/barrace/types"
)

// StateNamespace identifies the key spaces a Storage writes.
type StateNamespace string

const (
	// RecordNamespace holds records keyed by name then date.
	RecordNamespace StateNamespace = "record"
	// DateNamespace indexes the same records by date then name.
	DateNamespace StateNamespace = "date"
)

// Storage implements storage.Storage using Pebble
type Storage struct {
	db              *pebble.DB
	keySerializer   *serialization.KeySerializer
	valueSerializer serialization.TypeSerializer[types.Record]
	writeOpts       *pebble.WriteOptions

	// mu serialises writers so that the two indexes stay consistent, and
	// keeps the database open for the length of every read.
	mu     sync.RWMutex
	closed bool
}

var _ storage.Storage = (*Storage)(nil)

// StorageOptions configures the storage
type StorageOptions struct {
	Path         string
	CacheSize    int64
	MaxOpenFiles int
	// Sync forces an fsync on every write batch.
	Sync bool
}

// NewStorage opens or creates a Pebble database at opts.Path. A nil
// valueSerializer selects the recordio encoding.
func NewStorage(
	opts StorageOptions,
	valueSerializer serialization.TypeSerializer[types.Record],
) (*Storage, error) {
	if opts.Path == "" {
		return nil, errors.New("pebble: path is required")
	}
	if valueSerializer == nil {
		valueSerializer = serialization.NewRecordSerializer()
	}

	cache := pebble.NewCache(opts.CacheSize)
	defer cache.Unref()

	pebbleOpts := &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: opts.MaxOpenFiles,
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, err
	}

	db, err := pebble.Open(opts.Path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", opts.Path, err)
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	return &Storage{
		db:              db,
		keySerializer:   &serialization.KeySerializer{},
		valueSerializer: valueSerializer,
		writeOpts:       writeOpts,
	}, nil
}

func (p *Storage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}

func (p *Storage) Put(ctx context.Context, records ...types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateBatch(records); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return storage.ErrClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, r := range records {
		value, err := p.valueSerializer.SerializeValue(r)
		if err != nil {
			return fmt.Errorf("failed to serialize record %q: %w", r.Name, err)
		}

		if err := batch.Set(p.nameKey(r.Name, r.Date), value, nil); err != nil {
			return err
		}
		if err := batch.Set(p.dateKey(r.Date, r.Name), value, nil); err != nil {
			return err
		}
	}

	return batch.Commit(p.writeOpts)
}

func (p *Storage) Get(ctx context.Context, name string, date time.Time) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return types.Record{}, storage.ErrClosed
	}

	value, closer, err := p.db.Get(p.nameKey(name, date))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return types.Record{}, fmt.Errorf("%s at %s: %w", name, date.Format(time.RFC3339), storage.ErrNotFound)
		}
		return types.Record{}, fmt.Errorf("failed to load record: %w", err)
	}
	defer closer.Close()

	record, err := p.valueSerializer.DeserializeValue(value)
	if err != nil {
		return types.Record{}, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return record, nil
}

func (p *Storage) Delete(ctx context.Context, name string, date time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return storage.ErrClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(p.nameKey(name, date), nil); err != nil {
		return err
	}
	if err := batch.Delete(p.dateKey(date, name), nil); err != nil {
		return err
	}

	return batch.Commit(p.writeOpts)
}

func (p *Storage) Range(ctx context.Context, start, end time.Time) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, storage.ErrClosed
	}

	namespace := string(DateNamespace)
	opts := &pebble.IterOptions{
		LowerBound: p.keySerializer.NamespacePrefix(namespace),
		UpperBound: p.keySerializer.NamespaceEnd(namespace),
	}
	if !start.IsZero() {
		opts.LowerBound = p.keySerializer.DateBound(namespace, start)
	}
	if !end.IsZero() {
		opts.UpperBound = p.keySerializer.DateBound(namespace, end)
	}

	iter, err := p.db.NewIter(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over records: %w", err)
	}
	defer iter.Close()

	var records []types.Record
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := p.valueSerializer.DeserializeValue(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize record: %w", err)
		}
		records = append(records, record)
	}

	return records, iter.Error()
}

func (p *Storage) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, storage.ErrClosed
	}

	namespace := string(RecordNamespace)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: p.keySerializer.NamespacePrefix(namespace),
		UpperBound: p.keySerializer.NamespaceEnd(namespace),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over names: %w", err)
	}
	defer iter.Close()

	var names []string
	for valid := iter.First(); valid; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, name, _, err := p.keySerializer.DecodeNameKey(iter.Key())
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		// Skip every remaining date of this name.
		valid = iter.SeekGE(p.keySerializer.NameEnd(namespace, name))
	}

	return names, iter.Error()
}

func (p *Storage) nameKey(name string, date time.Time) []byte {
	return p.keySerializer.NameKey(string(RecordNamespace), name, date)
}

func (p *Storage) dateKey(date time.Time, name string) []byte {
	return p.keySerializer.DateKey(string(DateNamespace), date, name)
}
