package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the optional server configuration file
// (~/.config/go-wsi/slideserve.yaml).
type Config struct {
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "go-wsi", "slideserve.yaml")
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
