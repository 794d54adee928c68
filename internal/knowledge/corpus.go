package knowledge

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

//go:embed sample_corpus.json
var sampleCorpus []byte

// ErrEmptyCorpus is returned when there is nothing to index.
var ErrEmptyCorpus = errors.New("knowledge: corpus is empty")

// Entry is one solved problem. Score is only set on search results.
type Entry struct {
	Question   string   `json:"question"`
	Solution   string   `json:"solution"`
	Steps      []string `json:"steps"`
	Topic      string   `json:"topic"`
	Difficulty string   `json:"difficulty"`
	Score      float64  `json:"score,omitempty"`
}

// SampleCorpus returns the built-in corpus.
func SampleCorpus() ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(sampleCorpus, &entries); err != nil {
		return nil, fmt.Errorf("decode sample corpus: %w", err)
	}
	return entries, nil
}

// WriteSampleCorpus writes the built-in corpus to path. An existing file is
// kept unless force is set.
func WriteSampleCorpus(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create corpus directory: %w", err)
		}
	}
	if err := os.WriteFile(path, sampleCorpus, 0o644); err != nil {
		return false, fmt.Errorf("write sample corpus: %w", err)
	}
	return true, nil
}

// LoadCorpus reads a JSON array of entries from path, creating the sample
// corpus there first when the file does not exist.
func LoadCorpus(path string) ([]Entry, error) {
	created, err := WriteSampleCorpus(path, false)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("Created sample dataset", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCorpus
	}
	for i, e := range entries {
		if e.Question == "" {
			return nil, fmt.Errorf("corpus entry %d has no question", i)
		}
	}
	return entries, nil
}
