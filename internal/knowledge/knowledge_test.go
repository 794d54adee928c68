package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}

func indexedSample(t *testing.T) *Lookup {
	t.Helper()
	entries, err := SampleCorpus()
	require.NoError(t, err)

	lookup := NewLookup(NewHashEmbedder(DefaultDimensions))
	require.NoError(t, lookup.Index(context.Background(), entries))
	return lookup
}

func TestSampleCorpus(t *testing.T) {
	entries, err := SampleCorpus()
	require.NoError(t, err)
	require.Len(t, entries, 20)

	assert.Equal(t, "What is the derivative of x^2?", entries[0].Question)
	assert.Equal(t, "x = 2 or x = 3", entries[1].Solution)
	assert.Len(t, entries[1].Steps, 3)
	for _, e := range entries {
		assert.NotEmpty(t, e.Topic)
		assert.NotEmpty(t, e.Difficulty)
	}
}

func TestLoadCorpus(t *testing.T) {
	t.Run("Should write the sample corpus when missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "math_dataset.json")

		entries, err := LoadCorpus(path)
		require.NoError(t, err)
		assert.Len(t, entries, 20)
		assert.FileExists(t, path)
	})

	t.Run("Should keep an existing corpus", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"question":"What is 1+1?","solution":"2","steps":["Add"],"topic":"arithmetic","difficulty":"easy"}]`), 0o644))

		entries, err := LoadCorpus(path)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "2", entries[0].Solution)

		created, err := WriteSampleCorpus(path, false)
		require.NoError(t, err)
		assert.False(t, created)

		created, err = WriteSampleCorpus(path, true)
		require.NoError(t, err)
		assert.True(t, created)
		entries, err = LoadCorpus(path)
		require.NoError(t, err)
		assert.Len(t, entries, 20)
	})

	t.Run("Should reject an empty corpus", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

		_, err := LoadCorpus(path)
		assert.ErrorIs(t, err, ErrEmptyCorpus)
	})

	t.Run("Should reject malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		_, err := LoadCorpus(path)
		assert.Error(t, err)
	})
}

func TestHashEmbedder(t *testing.T) {
	embedder := NewHashEmbedder(64)
	vectors, err := embedder.Embed(context.Background(), []string{
		"Solve for x: 2x + 5 = 15",
		"Solve for x: 2x + 5 = 15",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Len(t, vectors[0], 64)
	assert.Equal(t, vectors[0], vectors[1])
	assert.InDelta(t, 1.0, cosine(vectors[0], vectors[1]), 1e-5)
	assert.Equal(t, make([]float32, 64), vectors[2])
}

func TestLookupSearch(t *testing.T) {
	lookup := indexedSample(t)
	assert.Equal(t, 20, lookup.Size())

	t.Run("Should score an exact question near one", func(t *testing.T) {
		results := lookup.Search(context.Background(), "Solve the quadratic equation x^2 - 5x + 6 = 0", 1)
		require.Len(t, results, 1)
		assert.Equal(t, "x = 2 or x = 3", results[0].Solution)
		assert.Greater(t, results[0].Score, 0.99)
		assert.LessOrEqual(t, results[0].Score, 1.0)
	})

	t.Run("Should order results best first", func(t *testing.T) {
		results := lookup.Search(context.Background(), "What is the integral of 2x?", 3)
		require.Len(t, results, 3)
		assert.Equal(t, "What is the integral of 2x?", results[0].Question)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
		assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
	})

	t.Run("Should not leak step slices", func(t *testing.T) {
		results := lookup.Search(context.Background(), "Simplify: √(16)", 1)
		require.Len(t, results, 1)
		results[0].Steps[0] = "changed"

		again := lookup.Search(context.Background(), "Simplify: √(16)", 1)
		assert.NotEqual(t, "changed", again[0].Steps[0])
	})
}

func TestLookupFailures(t *testing.T) {
	t.Run("Should return empty on embedding failure", func(t *testing.T) {
		lookup := indexedSample(t)
		lookup.embedder = failingEmbedder{}

		results := lookup.Search(context.Background(), "What is the derivative of x^2?", 1)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("Should return empty before indexing", func(t *testing.T) {
		lookup := NewLookup(NewHashEmbedder(0))
		assert.Empty(t, lookup.Search(context.Background(), "anything 1+1", 1))
		assert.Equal(t, 0, lookup.Size())
	})

	t.Run("Should reject empty entries", func(t *testing.T) {
		lookup := NewLookup(NewHashEmbedder(0))
		assert.ErrorIs(t, lookup.Index(context.Background(), nil), ErrEmptyCorpus)
	})

	t.Run("Should surface embedding errors while indexing", func(t *testing.T) {
		lookup := NewLookup(failingEmbedder{})
		err := lookup.Index(context.Background(), []Entry{{Question: "1+1"}})
		assert.Error(t, err)
	})
}

func TestIndexSearch(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add(1, []float32{1, 0}))
	require.NoError(t, index.Add(2, []float32{0, 1}))
	require.NoError(t, index.Add(3, []float32{1, 1, 1}))
	assert.Error(t, index.Add(4, nil))

	labels, distances, err := index.Search([]float32{1, 0.1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, labels)
	assert.Less(t, distances[0], distances[1])

	labels, _, err = index.Search([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, labels)

	_, _, err = index.Search(nil, 1)
	assert.Error(t, err)
}
