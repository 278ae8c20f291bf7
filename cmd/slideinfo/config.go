package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-wsi/wsi"
)

// Config represents the optional tool configuration file
// (~/.config/go-wsi/slideinfo.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	CacheMB    *int64 `yaml:"cache_mb"`
	MaxHandles *int   `yaml:"max_handles"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "go-wsi", "slideinfo.yaml")
}

// loadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or doesn't parse.
func loadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// openOptions converts the config into slide open options.
func (c Config) openOptions() []wsi.Option {
	var opts []wsi.Option
	if c.CacheMB != nil {
		opts = append(opts, wsi.WithTileCacheSize(*c.CacheMB<<20))
	}
	if c.MaxHandles != nil {
		opts = append(opts, wsi.WithMaxHandles(*c.MaxHandles))
	}
	return opts
}
