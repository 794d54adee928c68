package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "MATHROUTER"

// DefaultDotEnvFiles are read before the environment is consulted.
var DefaultDotEnvFiles = []string{".env.local", ".env"}

type Options struct {
	// ConfigFile is an optional YAML file. A missing file is not an error.
	ConfigFile string

	// DotEnvFiles overrides DefaultDotEnvFiles when non-nil.
	DotEnvFiles []string

	// Overrides are applied last, keyed by dotted config path (e.g. "server.port").
	Overrides map[string]any
}

// Load layers defaults, the config file, the environment and overrides, then validates.
func Load(opts Options) (*Config, error) {
	dotenv := DefaultDotEnvFiles
	if opts.DotEnvFiles != nil {
		dotenv = opts.DotEnvFiles
	}
	if err := loadDotEnvFiles(dotenv...); err != nil {
		return nil, fmt.Errorf("CONFIG_INVALID: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("CONFIG_INVALID: read %s: %w", opts.ConfigFile, err)
			}
			slog.Debug("Config file not found, using defaults", "path", opts.ConfigFile)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}
	if err := bindProviderKeys(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("CONFIG_INVALID: decode: %w", err)
	}
	applyDerived(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindProviderKeys lets the conventional provider variables fill in credentials.
// The prefixed variable still wins when both are set. The LLM key only comes
// from the variable of the selected provider.
func bindProviderKeys(v *viper.Viper) error {
	llmEnvs := []string{envPrefix + "_LLM_API_KEY"}
	provider := strings.ToLower(strings.TrimSpace(v.GetString("llm.provider")))
	if env, ok := ProviderKeyEnv[provider]; ok {
		llmEnvs = append(llmEnvs, env)
	}

	bindings := map[string][]string{
		"llm.api_key":       llmEnvs,
		"embedding.api_key": {envPrefix + "_EMBEDDING_API_KEY", "OPENAI_API_KEY"},
		"search.api_key":    {envPrefix + "_SEARCH_API_KEY", "TAVILY_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("CONFIG_INVALID: bind %s: %w", key, err)
		}
	}
	return nil
}

func applyDerived(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = DefaultEndpoints[cfg.LLM.Provider]
	}
	cfg.Embedding.Provider = strings.ToLower(strings.TrimSpace(cfg.Embedding.Provider))
	cfg.Router.GenerationFailure = strings.ToLower(strings.TrimSpace(cfg.Router.GenerationFailure))
	cfg.Router.OutputGuard = strings.ToLower(strings.TrimSpace(cfg.Router.OutputGuard))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}
