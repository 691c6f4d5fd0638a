// Package config loads abilityc settings: built-in defaults, then an optional
// YAML file, then ABILITYC_* environment variables.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/abilityc/cache"
	"github.com/nstehr/abilityc/llm"
	"github.com/nstehr/abilityc/logging"
)

// EnvPrefix prefixes every environment override, e.g. ABILITYC_LLM_MODEL.
const EnvPrefix = "abilityc"

type Config struct {
	Log      logging.Config `yaml:"log" split_words:"true"`
	LLM      llm.Config     `yaml:"llm" split_words:"true"`
	Cache    cache.Config   `yaml:"cache" split_words:"true"`
	Compiler CompilerConfig `yaml:"compiler" split_words:"true"`
	Server   ServerConfig   `yaml:"server" split_words:"true"`
}

type CompilerConfig struct {
	// DescTokens caps each talent description in the prompt.
	DescTokens int `yaml:"desc_tokens" split_words:"true"`
	// Workers bounds concurrent compiles in batch mode.
	Workers int `yaml:"workers" split_words:"true"`
}

type ServerConfig struct {
	Socket      string `yaml:"socket" split_words:"true"`
	MetricsAddr string `yaml:"metrics_addr" split_words:"true"`
}

// Default returns the built-in settings: heuristic only, no cache.
func Default() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Encoding: "console"},
		LLM: llm.Config{Timeout: 2 * time.Minute},
		Cache: cache.Config{
			TTL: 30 * 24 * time.Hour,
		},
		Compiler: CompilerConfig{DescTokens: 600, Workers: 4},
		Server:   ServerConfig{Socket: "/tmp/abilityc.sock", MetricsAddr: ":9464"},
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if cfg.Compiler.Workers <= 0 {
		cfg.Compiler.Workers = 1
	}
	return cfg, nil
}
