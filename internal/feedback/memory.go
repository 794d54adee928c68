package feedback

import (
	"context"
	"sync"
)

// MemoryStore keeps feedback for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	records []Feedback
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, fb Feedback) (int, error) {
	fb, err := prepare(fb)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, fb)
	return len(m.records), nil
}

func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counts [6]int
	for _, r := range m.records {
		counts[r.Rating]++
	}
	return computeStats(counts), nil
}

func (m *MemoryStore) Close() error { return nil }
