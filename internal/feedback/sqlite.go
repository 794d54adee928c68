package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}

	schema := `
CREATE TABLE IF NOT EXISTS feedback (
  id TEXT PRIMARY KEY,
  question TEXT NOT NULL,
  solution TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comments TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_rating ON feedback(rating);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, fb Feedback) (int, error) {
	fb, err := prepare(fb)
	if err != nil {
		return 0, err
	}
	db, err := s.ensureDB(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO feedback(id, question, solution, rating, comments, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		fb.ID.String(), fb.Question, fb.Solution, fb.Rating, fb.Comments, fb.CreatedAt.UnixMilli(),
	); err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return total, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return Stats{}, err
	}

	rows, err := db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM feedback GROUP BY rating`)
	if err != nil {
		return Stats{}, fmt.Errorf("query feedback stats: %w", err)
	}
	defer rows.Close()

	var counts [6]int
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return Stats{}, err
		}
		if rating >= 1 && rating <= 5 {
			counts[rating] = n
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	return computeStats(counts), nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) ensureDB(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db != nil {
		return db, nil
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("feedback store is closed")
	}
	return s.db, nil
}
