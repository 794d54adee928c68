package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// Lookup answers nearest-neighbour queries over a solved-problem corpus.
type Lookup struct {
	embedder Embedder

	mu      sync.RWMutex
	index   *Index
	entries []Entry
}

func NewLookup(embedder Embedder) *Lookup {
	return &Lookup{
		embedder: embedder,
		index:    NewIndex(),
	}
}

// Index embeds every question in one batch and replaces the current index.
func (l *Lookup) Index(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyCorpus
	}

	questions := make([]string, len(entries))
	for i, e := range entries {
		questions[i] = e.Question
	}
	vectors, err := l.embedder.Embed(ctx, questions)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("embed corpus: got %d vectors for %d entries", len(vectors), len(entries))
	}

	index := NewIndex()
	for i, v := range vectors {
		if err := index.Add(i, v); err != nil {
			return fmt.Errorf("index entry %d: %w", i, err)
		}
	}

	stored := make([]Entry, len(entries))
	copy(stored, entries)

	l.mu.Lock()
	l.index = index
	l.entries = stored
	l.mu.Unlock()

	slog.Info("Indexed math problems", "count", len(entries))
	return nil
}

func (l *Lookup) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Search returns up to topK entries, best first, with Score set to the cosine
// similarity. Failures are logged and yield an empty slice.
func (l *Lookup) Search(ctx context.Context, query string, topK int) []Entry {
	l.mu.RLock()
	index, entries := l.index, l.entries
	l.mu.RUnlock()

	if len(entries) == 0 || topK <= 0 {
		return []Entry{}
	}

	vectors, err := l.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		slog.Warn("Knowledge search failed", "error", err)
		return []Entry{}
	}

	labels, distances, err := index.Search(vectors[0], topK)
	if err != nil {
		slog.Warn("Knowledge search failed", "error", err)
		return []Entry{}
	}

	results := make([]Entry, 0, len(labels))
	for i, label := range labels {
		if label < 0 || label >= len(entries) {
			continue
		}
		entry := entries[label]
		entry.Steps = append([]string(nil), entry.Steps...)
		entry.Score = clamp01(1 - float64(distances[i]))
		results = append(results, entry)
	}
	return results
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
