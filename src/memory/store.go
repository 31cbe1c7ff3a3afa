package memory

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound        = errors.New("memory record not found")
	ErrVersionConflict = errors.New("memory record version conflict")
)

// RecordStore persists records with optimistic concurrency
type RecordStore interface {
	// Load returns ErrNotFound when no record exists under id
	Load(ctx context.Context, id string) (*Record, error)
	// CompareAndSwap writes rec only if the stored version equals expected
	// (0 meaning absent) and returns ErrVersionConflict otherwise.
	CompareAndSwap(ctx context.Context, rec *Record, expected int64) error
	Close() error
}

// InMemoryStore keeps encoded records in a map; used in tests and MEMORY_BACKEND=memory
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]byte)}
}

func (m *InMemoryStore) Load(ctx context.Context, id string) (*Record, error) {
	m.mu.Lock()
	data, ok := m.records[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeRecord(data)
}

func (m *InMemoryStore) CompareAndSwap(ctx context.Context, rec *Record, expected int64) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if stored, ok := m.records[rec.ID]; ok {
		existing, err := decodeRecord(stored)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			current = existing.Version
		}
	}
	if current != expected {
		return ErrVersionConflict
	}
	m.records[rec.ID] = data
	return nil
}

func (m *InMemoryStore) Close() error {
	return nil
}
