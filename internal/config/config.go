package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved todoscan configuration.
type Config struct {
	Scan    Scan    `mapstructure:"scan"`
	Markers Markers `mapstructure:"markers"`
	Log     Log     `mapstructure:"log"`
	Qdrant  Qdrant  `mapstructure:"qdrant"`
	OpenAI  OpenAI  `mapstructure:"openai"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type Scan struct {
	Workers int      `mapstructure:"workers"`
	Exclude []string `mapstructure:"exclude"`
	NoCache bool     `mapstructure:"no_cache"`
}

// Markers are the prefixes recognized in ordinary comments (Plain) and the
// directives recognized in block-doc comments (Doc).
type Markers struct {
	Plain []string `mapstructure:"plain"`
	Doc   []string `mapstructure:"doc"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Qdrant struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

type OpenAI struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

const (
	envPrefix  = "TODOSCAN"
	configName = "todoscan"
)

// Dir returns ~/.todoscan, where the config file and scan state live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".todoscan"), nil
}

// Load reads configuration from defaults, an optional YAML file and
// TODOSCAN_* environment variables. cfgFile overrides the search for
// ~/.todoscan/todoscan.yaml and ./todoscan.yaml.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	applyLegacyEnv(cfg)
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = DefaultWorkers
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	return cfg, nil
}

// DefaultWorkers is the scan worker count when none is configured.
const DefaultWorkers = 4

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.workers", DefaultWorkers)
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("scan.no_cache", false)
	v.SetDefault("markers.plain", []string{"TODO: "})
	v.SetDefault("markers.doc", []string{"@todo", "TODO:"})
	v.SetDefault("log.level", "info")
	v.SetDefault("qdrant.url", "")
	v.SetDefault("qdrant.api_key", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.embedding_model", "")
}

// applyLegacyEnv fills unset service settings from the conventional
// QDRANT_*/OPENAI_* variables.
func applyLegacyEnv(cfg *Config) {
	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = Get("QDRANT_URL", "qdrant_url")
	}
	if cfg.Qdrant.APIKey == "" {
		cfg.Qdrant.APIKey = Get(
			"QDRANT_API_KEY",
			"qdrant_api_key",
			"QDRANT_API_TOKEN",
			"QDRANT_AUTH_TOKEN",
		)
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = Get("OPENAI_API_KEY", "openai_key")
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = Get("OPENAI_BASE_URL", "openai_base_url")
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = Get("OPENAI_EMBEDDING_MODEL", "openai_embedding_model")
	}
}

// Get returns the first non-empty environment variable from the provided keys.
func Get(keys ...string) string {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
