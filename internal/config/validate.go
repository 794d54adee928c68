package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Validate checks enums and ranges. Missing API keys are not errors; they only
// disable the corresponding tier.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("CONFIG_INVALID: nil config")
	}
	if err := validateEnums(cfg); err != nil {
		return err
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("CONFIG_INVALID: server.port=%d; must be between 1 and 65535", cfg.Server.Port)
	}
	if cfg.Knowledge.Threshold <= 0 || cfg.Knowledge.Threshold >= 1 {
		return fmt.Errorf("CONFIG_INVALID: knowledge.threshold=%v; must be in (0, 1)", cfg.Knowledge.Threshold)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("CONFIG_INVALID: llm.temperature=%v; must be in [0, 2]", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("CONFIG_INVALID: llm.max_tokens=%d; must be positive", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Provider == LLMProviderAzure && cfg.LLM.Configured() && cfg.LLM.Endpoint == "" {
		return fmt.Errorf("CONFIG_INVALID: llm.endpoint is required for the azure provider\nSet env: MATHROUTER_LLM_ENDPOINT=https://<resource>.openai.azure.com")
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("CONFIG_INVALID: embedding.dimensions=%d; must be positive", cfg.Embedding.Dimensions)
	}
	if cfg.Knowledge.CorpusPath == "" {
		return fmt.Errorf("CONFIG_INVALID: knowledge.corpus_path is empty")
	}
	if cfg.Feedback.Driver == FeedbackDriverSQLite && cfg.Feedback.Path == "" {
		return fmt.Errorf("CONFIG_INVALID: feedback.path is required for the sqlite driver")
	}

	for _, t := range []struct {
		key   string
		value time.Duration
	}{
		{"timeouts.knowledge", cfg.Timeouts.Knowledge},
		{"timeouts.search", cfg.Timeouts.Search},
		{"timeouts.generation", cfg.Timeouts.Generation},
	} {
		if t.value <= 0 {
			return fmt.Errorf("CONFIG_INVALID: %s=%s; must be a positive duration", t.key, t.value)
		}
	}
	return nil
}

func validateEnums(cfg *Config) error {
	checks := []struct {
		key     string
		value   string
		allowed []string
	}{
		{"llm.provider", cfg.LLM.Provider, LLMProviders},
		{"embedding.provider", cfg.Embedding.Provider, EmbeddingProviders},
		{"router.generation_failure", cfg.Router.GenerationFailure, GenerationFailures},
		{"router.output_guard", cfg.Router.OutputGuard, OutputGuardModes},
		{"router.search_depth", cfg.Router.SearchDepth, SearchDepths},
		{"feedback.driver", cfg.Feedback.Driver, FeedbackDrivers},
		{"log.level", cfg.Log.Level, LogLevels},
		{"log.format", cfg.Log.Format, LogFormats},
	}
	for _, c := range checks {
		if !slices.Contains(c.allowed, c.value) {
			return fmt.Errorf("CONFIG_INVALID: %s=%q; allowed: %s", c.key, c.value, strings.Join(c.allowed, ", "))
		}
	}
	return nil
}
