package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Search    SearchConfig    `mapstructure:"search"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Router    RouterConfig    `mapstructure:"router"`
	Timeouts  TimeoutConfig   `mapstructure:"timeouts"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RateLimit uses the limiter format, e.g. "60-M". Empty disables it.
	RateLimit string `mapstructure:"rate_limit"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	APIVersion  string  `mapstructure:"api_version"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

// Configured reports whether the generation tier can be used.
func (c LLMConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

type SearchConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

func (c SearchConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type KnowledgeConfig struct {
	CorpusPath string  `mapstructure:"corpus_path"`
	Threshold  float64 `mapstructure:"threshold"`
}

type RouterConfig struct {
	GenerationFailure string `mapstructure:"generation_failure"`
	OutputGuard       string `mapstructure:"output_guard"`
	SearchDepth       string `mapstructure:"search_depth"`
}

type TimeoutConfig struct {
	Knowledge  time.Duration `mapstructure:"knowledge"`
	Search     time.Duration `mapstructure:"search"`
	Generation time.Duration `mapstructure:"generation"`
}

type FeedbackConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
