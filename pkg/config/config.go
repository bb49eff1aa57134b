// Package config loads the TOML build configuration. Every field has a
// default; a missing config file means defaults, while a present but
// unreadable one is an error.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wheelforge/wheelforge/pkg/registry/pypi"
	"github.com/wheelforge/wheelforge/pkg/resolve"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "wheelforge.toml"

// Config drives a channel build.
type Config struct {
	// Channel is the output directory for the generated channel tree.
	Channel string `toml:"channel"`

	// IndexURL is the PyPI-compatible index to resolve against.
	IndexURL string `toml:"index_url"`

	// MappingURL points at the grayskull pypi-to-conda name mapping.
	MappingURL string `toml:"mapping_url"`

	// Concurrency caps in-flight metadata resolutions.
	Concurrency int `toml:"concurrency"`

	// AnyWheel admits platform-specific wheels instead of requiring pure
	// ones. The generated channel is then only valid for the build platform.
	AnyWheel bool `toml:"any_wheel"`

	// CacheDir overrides the response cache location; empty means the
	// user cache directory.
	CacheDir string `toml:"cache_dir"`

	// CacheTTLHours bounds how long cached registry responses are reused.
	CacheTTLHours int `toml:"cache_ttl_hours"`

	// RedisURL selects the Redis cache backend when set; empty means the
	// file cache.
	RedisURL string `toml:"redis_url"`

	// StoreDSN selects the resolution record store: a file path, or a
	// mongodb:// DSN for shared infrastructure. Empty disables the store.
	StoreDSN string `toml:"store_dsn"`
}

// Default returns the configuration used when no file and no flags override
// anything.
func Default() Config {
	return Config{
		Channel:       "channel",
		IndexURL:      pypi.DefaultBaseURL,
		MappingURL:    pypi.DefaultMappingURL,
		Concurrency:   resolve.DefaultConcurrency,
		CacheTTLHours: 24,
	}
}

// Load reads path over the defaults. When path is DefaultPath and the file
// does not exist, defaults are returned; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && path == DefaultPath {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}
