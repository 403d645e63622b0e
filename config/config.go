// Package config は、YAML ファイルと環境変数から設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/sat8bit/chorus/state"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultMaxTokens   = 600
	DefaultContext     = 2000
	DefaultJournal     = "./data/journal.db"
	DefaultService     = "chorus"
)

type Config struct {
	Provider     string         `yaml:"provider"`
	Model        string         `yaml:"model"`
	MaxTokens    int            `yaml:"maxTokens"`
	ContextLimit int            `yaml:"contextLimit"`
	Seed         uint64         `yaml:"seed"`
	RelationsDir string         `yaml:"relationsDir"`
	Journal      string         `yaml:"journal"`
	Gemini       GeminiConfig   `yaml:"gemini"`
	OpenAI       OpenAIConfig   `yaml:"openai"`
	Tracing      TracingConfig  `yaml:"tracing"`
	Settings     state.Settings `yaml:"settings"`
}

type GeminiConfig struct {
	APIKey   string `yaml:"apiKey"`
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
}

type TracingConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"`
	Headers     map[string]string `yaml:"headers"`
	ServiceName string            `yaml:"serviceName"`
	Insecure    bool              `yaml:"insecure"`
}

// Load は path の YAML (空ならスキップ、存在しなければ無視) を読み、環境変数で上書きして既定値を埋めます。
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config.Load: %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("CHORUS_PROVIDER", &c.Provider)
	str("CHORUS_MODEL", &c.Model)
	str("CHORUS_JOURNAL", &c.Journal)
	str("CHORUS_RELATIONS_DIR", &c.RelationsDir)
	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("PROJECT_ID", &c.Gemini.Project)
	str("LOCATION", &c.Gemini.Location)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.Endpoint)

	if v, ok := lookupEnv("CHORUS_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config.Load: CHORUS_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v, ok := lookupEnv("OTEL_TRACES_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config.Load: OTEL_TRACES_ENABLED: %w", err)
		}
		c.Tracing.Enabled = enabled
	}
	return nil
}

// ApplyDefaults はゼロ値の項目を既定値で埋めます。
func (c *Config) ApplyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderGemini
		if c.Gemini.APIKey == "" && c.Gemini.Project == "" && c.OpenAI.APIKey != "" {
			c.Provider = ProviderOpenAI
		}
	}
	if c.Model == "" {
		c.Model = DefaultGeminiModel
		if c.Provider == ProviderOpenAI {
			c.Model = DefaultOpenAIModel
		}
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.ContextLimit <= 0 {
		c.ContextLimit = DefaultContext
	}
	if c.Journal == "" {
		c.Journal = DefaultJournal
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultService
	}
}

// Validate は設定の矛盾を検出します。認証情報の有無は生成器を作るときに確認します。
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("config.Validate: unknown provider %q", c.Provider)
	}
	if err := c.Settings.Validate(); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// JournalEnabled は、ジャーナルを書くかどうかを返します。"off" で無効になります。
func (c *Config) JournalEnabled() bool {
	return c.Journal != "off"
}
