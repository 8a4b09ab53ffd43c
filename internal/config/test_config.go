package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config pointing at throwaway locations, for tests.
func TestConfig(tmpDir string) *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:    filepath.Join(tmpDir, "samlib.db"),
			Timeout: time.Second,
		},
		Site: SiteConfig{
			Protocol: "http",
			Domain:   "samlib.ru",
		},
		HTTP: HTTPConfig{
			Timeout:   time.Second,
			UserAgent: "samlib-test/1.0",
		},
		Storage: StorageConfig{
			Path: tmpDir,
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}
