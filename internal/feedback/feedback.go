// Package feedback records user ratings of routed answers.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mathrouter/mathrouter/internal/config"
)

type Feedback struct {
	ID        uuid.UUID
	Question  string
	Solution  string
	Rating    int
	Comments  string
	CreatedAt time.Time
}

type Breakdown struct {
	FiveStar  int `json:"5_star"`
	FourStar  int `json:"4_star"`
	ThreeStar int `json:"3_star"`
	TwoStar   int `json:"2_star"`
	OneStar   int `json:"1_star"`
}

type Stats struct {
	AverageRating float64    `json:"average_rating"`
	TotalFeedback int        `json:"total_feedback"`
	Breakdown     *Breakdown `json:"feedback_breakdown,omitempty"`
}

type Store interface {
	// Append stores fb and returns the new total number of records.
	Append(ctx context.Context, fb Feedback) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.FeedbackConfig) (Store, error) {
	switch cfg.Driver {
	case config.FeedbackDriverSQLite:
		s := NewSQLiteStore(cfg.Path)
		if err := s.Init(ctx); err != nil {
			return nil, fmt.Errorf("open feedback store: %w", err)
		}
		return s, nil
	case config.FeedbackDriverMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown feedback driver %q", cfg.Driver)
	}
}

// prepare fills ID and CreatedAt and validates the rating.
func prepare(fb Feedback) (Feedback, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return fb, fmt.Errorf("rating %d out of range 1..5", fb.Rating)
	}
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	if fb.Rating < 3 {
		slog.Warn("Low rating received", "question", fb.Question, "rating", fb.Rating)
	}
	return fb, nil
}

// computeStats builds Stats from per-star counts indexed 1..5.
func computeStats(counts [6]int) Stats {
	total, sum := 0, 0
	for rating := 1; rating <= 5; rating++ {
		total += counts[rating]
		sum += rating * counts[rating]
	}
	if total == 0 {
		return Stats{}
	}
	return Stats{
		AverageRating: math.Round(float64(sum)/float64(total)*100) / 100,
		TotalFeedback: total,
		Breakdown: &Breakdown{
			FiveStar:  counts[5],
			FourStar:  counts[4],
			ThreeStar: counts[3],
			TwoStar:   counts[2],
			OneStar:   counts[1],
		},
	}
}
