package knowledge

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// Index is an exact in-memory cosine index. Vectors are stored by label.
type Index struct {
	mu      sync.RWMutex
	vectors map[int][]float32
}

func NewIndex() *Index {
	return &Index{vectors: make(map[int][]float32)}
}

func (i *Index) Add(label int, vector []float32) error {
	if len(vector) == 0 {
		return errors.New("vector cannot be empty")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	copied := make([]float32, len(vector))
	copy(copied, vector)
	i.vectors[label] = copied
	return nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vectors)
}

// Search returns up to k labels ordered by ascending cosine distance.
// Vectors whose dimension differs from the query are skipped.
func (i *Index) Search(vector []float32, k int) ([]int, []float32, error) {
	if len(vector) == 0 {
		return nil, nil, errors.New("query vector cannot be empty")
	}
	if k <= 0 {
		return []int{}, []float32{}, nil
	}

	type scored struct {
		label    int
		distance float32
	}

	i.mu.RLock()
	candidates := make([]scored, 0, len(i.vectors))
	for label, v := range i.vectors {
		if len(v) != len(vector) {
			continue
		}
		candidates = append(candidates, scored{label: label, distance: 1 - cosine(vector, v)})
	}
	i.mu.RUnlock()

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].distance == candidates[b].distance {
			return candidates[a].label < candidates[b].label
		}
		return candidates[a].distance < candidates[b].distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	labels := make([]int, len(candidates))
	distances := make([]float32, len(candidates))
	for n, c := range candidates {
		labels[n] = c.label
		distances[n] = c.distance
	}
	return labels, distances, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
