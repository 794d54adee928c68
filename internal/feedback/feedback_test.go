package feedback

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathrouter/mathrouter/internal/config"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := Open(context.Background(), config.FeedbackConfig{
		Driver: config.FeedbackDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "nested", "feedback.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	memoryStore, err := Open(context.Background(), config.FeedbackConfig{Driver: config.FeedbackDriverMemory})
	require.NoError(t, err)

	return map[string]Store{"memory": memoryStore, "sqlite": sqliteStore}
}

func TestStoreStats(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, Stats{}, empty)
			assert.Nil(t, empty.Breakdown)

			for i, rating := range []int{5, 4, 4, 2} {
				total, err := store.Append(ctx, Feedback{Question: "q", Solution: "s", Rating: rating})
				require.NoError(t, err)
				assert.Equal(t, i+1, total)
			}

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, stats.TotalFeedback)
			assert.InDelta(t, 3.75, stats.AverageRating, 1e-9)
			require.NotNil(t, stats.Breakdown)
			assert.Equal(t, Breakdown{FiveStar: 1, FourStar: 2, TwoStar: 1}, *stats.Breakdown)
		})
	}
}

func TestStoreRejectsBadRatings(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, rating := range []int{0, 6, -1} {
				_, err := store.Append(context.Background(), Feedback{Question: "q", Solution: "s", Rating: rating})
				assert.Error(t, err)
			}
			stats, err := store.Stats(context.Background())
			require.NoError(t, err)
			assert.Zero(t, stats.TotalFeedback)
		})
	}
}

func TestStoreConcurrentAppends(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(rating int) {
					defer wg.Done()
					_, err := store.Append(context.Background(), Feedback{Question: "q", Solution: "s", Rating: rating})
					assert.NoError(t, err)
				}(i%5 + 1)
			}
			wg.Wait()

			stats, err := store.Stats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 20, stats.TotalFeedback)
			assert.InDelta(t, 3.0, stats.AverageRating, 1e-9)
		})
	}
}

func TestComputeStatsRounding(t *testing.T) {
	stats := computeStats([6]int{0, 1, 0, 0, 0, 2})
	assert.InDelta(t, 3.67, stats.AverageRating, 1e-9)
	assert.Equal(t, 3, stats.TotalFeedback)
}

func TestPrepare(t *testing.T) {
	fb, err := prepare(Feedback{Rating: 3})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, fb.ID)
	assert.False(t, fb.CreatedAt.IsZero())

	id := uuid.New()
	fb, err = prepare(Feedback{ID: id, Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, id, fb.ID)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.FeedbackConfig{Driver: "redis"})
	assert.Error(t, err)
}
