package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GROQ_API_KEY", "OPENAI_API_KEY", "AZURE_OPENAI_API_KEY", "TAVILY_API_KEY",
		"MATHROUTER_LLM_API_KEY", "MATHROUTER_SEARCH_API_KEY", "MATHROUTER_EMBEDDING_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func load(t *testing.T, opts Options) *Config {
	t.Helper()
	if opts.DotEnvFiles == nil {
		opts.DotEnvFiles = []string{}
	}
	cfg, err := Load(opts)
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)
	cfg := load(t, Options{})

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, LLMProviderGroq, cfg.LLM.Provider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.Endpoint)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, int64(1024), cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.70, cfg.Knowledge.Threshold, 1e-9)
	assert.Equal(t, OutputGuardAdvise, cfg.Router.OutputGuard)
	assert.Equal(t, GenerationFailureFallthrough, cfg.Router.GenerationFailure)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Search)
	assert.False(t, cfg.LLM.Configured())
	assert.False(t, cfg.Search.Configured())
}

func TestLoadEnvironment(t *testing.T) {
	t.Run("Should read prefixed variables", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("MATHROUTER_SERVER_PORT", "9090")
		t.Setenv("MATHROUTER_ROUTER_OUTPUT_GUARD", "enforce")
		t.Setenv("MATHROUTER_TIMEOUTS_GENERATION", "45s")

		cfg := load(t, Options{})
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, OutputGuardEnforce, cfg.Router.OutputGuard)
		assert.Equal(t, 45*time.Second, cfg.Timeouts.Generation)
	})

	t.Run("Should fill credentials from provider variables", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("GROQ_API_KEY", "gsk-test")
		t.Setenv("TAVILY_API_KEY", "tvly-test")

		cfg := load(t, Options{})
		assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
		assert.Equal(t, "tvly-test", cfg.Search.APIKey)
		assert.True(t, cfg.LLM.Configured())
		assert.True(t, cfg.Search.Configured())
	})

	t.Run("Should not use another provider's key for generation", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-openai-only")

		cfg := load(t, Options{})
		assert.Equal(t, LLMProviderGroq, cfg.LLM.Provider)
		assert.Empty(t, cfg.LLM.APIKey)
		assert.False(t, cfg.LLM.Configured())
		assert.Equal(t, "sk-openai-only", cfg.Embedding.APIKey)
	})

	t.Run("Should use the key of the selected provider", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("GROQ_API_KEY", "gsk-test")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("MATHROUTER_LLM_PROVIDER", "openai")

		cfg := load(t, Options{})
		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
		assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.Endpoint)

		cfg = load(t, Options{Overrides: map[string]any{"llm.provider": "groq"}})
		assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	})

	t.Run("Should prefer the prefixed variable", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("TAVILY_API_KEY", "bare")
		t.Setenv("MATHROUTER_SEARCH_API_KEY", "prefixed")

		cfg := load(t, Options{})
		assert.Equal(t, "prefixed", cfg.Search.APIKey)
	})
}

func TestLoadConfigFile(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "mathrouter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: gpt-4o-mini
knowledge:
  threshold: 0.8
feedback:
  driver: sqlite
  path: /tmp/feedback.db
`), 0o600))

	cfg := load(t, Options{ConfigFile: path})
	assert.Equal(t, LLMProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.8, cfg.Knowledge.Threshold, 1e-9)
	assert.Equal(t, FeedbackDriverSQLite, cfg.Feedback.Driver)

	t.Run("Should tolerate a missing file", func(t *testing.T) {
		cfg := load(t, Options{ConfigFile: filepath.Join(dir, "absent.yaml")})
		assert.Equal(t, LLMProviderGroq, cfg.LLM.Provider)
	})
}

func TestLoadOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("MATHROUTER_SERVER_PORT", "9090")

	cfg := load(t, Options{Overrides: map[string]any{"server.port": 7070}})
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	clearProviderEnv(t)
	require.Empty(t, os.Getenv("MATHROUTER_LOG_FORMAT"))
	t.Cleanup(func() { _ = os.Unsetenv("MATHROUTER_LOG_FORMAT") })

	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("MATHROUTER_LOG_FORMAT=json\n"), 0o600))
	require.NoError(t, os.WriteFile(shared, []byte("MATHROUTER_LOG_FORMAT=text\n"), 0o600))

	cfg := load(t, Options{DotEnvFiles: []string{local, shared, filepath.Join(dir, "missing")}})
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name      string
		overrides map[string]any
		contains  string
	}{
		{"unknown output guard", map[string]any{"router.output_guard": "block"}, "router.output_guard"},
		{"unknown provider", map[string]any{"llm.provider": "mistral"}, "llm.provider"},
		{"threshold out of range", map[string]any{"knowledge.threshold": 1.5}, "knowledge.threshold"},
		{"bad port", map[string]any{"server.port": 0}, "server.port"},
		{"zero timeout", map[string]any{"timeouts.search": "0s"}, "timeouts.search"},
		{"sqlite without path", map[string]any{"feedback.driver": "sqlite", "feedback.path": ""}, "feedback.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{DotEnvFiles: []string{}, Overrides: tt.overrides})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "CONFIG_INVALID:")
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	assert.Error(t, Validate(nil))
}
