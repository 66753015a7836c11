package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config is the optional YAML file configuration. Everything has a
// sensible default; the file only overrides what it names. The API key
// deliberately has no place here: it arrives per request or from the
// environment at the call site.
type Config struct {
	Addr          string      `yaml:"addr"`
	Pattern       string      `yaml:"pattern"`
	Model         string      `yaml:"model"`
	MaxIterations int         `yaml:"maxIterations"`
	Store         StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	// Driver is "sqlite", "redis", or "" for no persistence.
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path"`
	// Addr is the redis address.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func Default() Config {
	return Config{
		Addr:    "127.0.0.1:8000",
		Pattern: "supervised",
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "./.postgen/runs.db",
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults. An
// empty path skips the file. POSTGEN_MAX_ITERATIONS overrides the
// iteration ceiling from either source.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve config path: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %q: %w", absPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %q as YAML: %w", absPath, err)
		}
	}

	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Pattern = strings.TrimSpace(cfg.Pattern)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.MaxIterations = ParseIntEnv("POSTGEN_MAX_ITERATIONS", cfg.MaxIterations)
	return cfg, nil
}
