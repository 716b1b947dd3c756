package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the bridge.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	// HTTP listen address, e.g. ":8080".
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// Remote API settings.
	API APIConfig `json:"api" yaml:"api" toml:"api"`
}

// APIConfig carries the remote API settings. FalKey is only a
// fallback: the FAL_KEY environment variable wins at startup.
type APIConfig struct {
	FalKey         string `json:"fal_key" yaml:"fal_key" toml:"fal_key"`
	QueueURL       string `json:"queue_url" yaml:"queue_url" toml:"queue_url"`
	RestURL        string `json:"rest_url" yaml:"rest_url" toml:"rest_url"`
	PollIntervalMS int    `json:"poll_interval_ms" yaml:"poll_interval_ms" toml:"poll_interval_ms"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml and .ini. The shipped config.ini
// uses the key = "value" / [section] subset that is valid TOML, so
// .ini files go through the TOML parser. A leading '~' in path is
// expanded to the user's home directory.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := expandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml", ".ini":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
