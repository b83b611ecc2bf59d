package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Backends BackendsConfig `yaml:"backends"`
	Storage  StorageConfig  `yaml:"storage"`
	Runner   RunnerConfig   `yaml:"runner"`
	API      APIConfig      `yaml:"api"`
}

type BackendsConfig struct {
	Ollama   ServerConfig   `yaml:"ollama"`
	LMStudio ServerConfig   `yaml:"lmstudio"`
	OpenAI   ProviderConfig `yaml:"openai"`
	Claude   ProviderConfig `yaml:"claude"`
}

// ServerConfig points at a locally hosted inference server.
type ServerConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
}

// ProviderConfig holds credentials for a hosted provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type RunnerConfig struct {
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type APIConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Load reads the YAML config at path and applies environment overrides.
// The default path may be absent, in which case a zero config with
// overrides applied is returned; an explicit path must exist.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	explicit := path != "" && path != DefaultPath
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.Backends.Claude.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		cfg.Backends.Claude.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.Backends.OpenAI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OLLAMA_SERVER")); v != "" {
		cfg.Backends.Ollama.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LMSTUDIO_SERVER")); v != "" {
		cfg.Backends.LMStudio.BaseURL = v
	}

	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = "data/bench.db"
	}

	return &cfg, nil
}
