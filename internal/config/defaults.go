package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	LLMProviderOpenAI = "openai"
	LLMProviderAzure  = "azure"
	LLMProviderGroq   = "groq"

	EmbeddingProviderLocal  = "local"
	EmbeddingProviderOpenAI = "openai"

	GenerationFailureFallthrough = "fallthrough"
	GenerationFailureInline      = "inline"

	OutputGuardAdvise  = "advise"
	OutputGuardEnforce = "enforce"

	FeedbackDriverMemory = "memory"
	FeedbackDriverSQLite = "sqlite"
)

var (
	LLMProviders       = []string{LLMProviderOpenAI, LLMProviderAzure, LLMProviderGroq}
	EmbeddingProviders = []string{EmbeddingProviderLocal, EmbeddingProviderOpenAI}
	GenerationFailures = []string{GenerationFailureFallthrough, GenerationFailureInline}
	OutputGuardModes   = []string{OutputGuardAdvise, OutputGuardEnforce}
	SearchDepths       = []string{"basic", "advanced"}
	FeedbackDrivers    = []string{FeedbackDriverMemory, FeedbackDriverSQLite}
	LogLevels          = []string{"debug", "info", "warn", "error"}
	LogFormats         = []string{"text", "json"}
)

// DefaultEndpoints maps each LLM provider to its OpenAI-compatible base URL.
var DefaultEndpoints = map[string]string{
	LLMProviderOpenAI: "https://api.openai.com/v1",
	LLMProviderGroq:   "https://api.groq.com/openai/v1",
}

// ProviderKeyEnv names the conventional API key variable of each LLM provider.
var ProviderKeyEnv = map[string]string{
	LLMProviderOpenAI: "OPENAI_API_KEY",
	LLMProviderAzure:  "AZURE_OPENAI_API_KEY",
	LLMProviderGroq:   "GROQ_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 55*time.Second)
	v.SetDefault("server.rate_limit", "")

	v.SetDefault("llm.provider", LLMProviderGroq)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.api_version", "2024-06-01")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("embedding.provider", EmbeddingProviderLocal)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.endpoint", DefaultEndpoints[LLMProviderOpenAI])
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 384)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.endpoint", "https://api.tavily.com")

	v.SetDefault("knowledge.corpus_path", "data/math_dataset.json")
	v.SetDefault("knowledge.threshold", 0.70)

	v.SetDefault("router.generation_failure", GenerationFailureFallthrough)
	v.SetDefault("router.output_guard", OutputGuardAdvise)
	v.SetDefault("router.search_depth", "basic")

	v.SetDefault("timeouts.knowledge", 5*time.Second)
	v.SetDefault("timeouts.search", 15*time.Second)
	v.SetDefault("timeouts.generation", 30*time.Second)

	v.SetDefault("feedback.driver", FeedbackDriverMemory)
	v.SetDefault("feedback.path", "data/feedback.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
