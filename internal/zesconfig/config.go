// Package zesconfig loads the optional tunable-override config file. Absence
// of a config file is not an error: built-in defaults apply.
package zesconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backoff mirrors the X11 reader's staged-poll schedule (spec.md §4.2).
type Backoff struct {
	FastIterations int `yaml:"fast_iterations"`
	FastDelayUs    int `yaml:"fast_delay_us"`
	MidIterations  int `yaml:"mid_iterations"`
	MidDelayUs     int `yaml:"mid_delay_us"`
	SlowIterations int `yaml:"slow_iterations"`
	SlowDelayUs    int `yaml:"slow_delay_us"`
}

// Config holds every tunable this rewrite allows overriding via YAML.
type Config struct {
	LogLevel         string  `yaml:"log_level"`
	LogFile          string  `yaml:"log_file"`
	MaxSelectionSize int     `yaml:"max_selection_size"`
	MaxClipboardSize int     `yaml:"max_clipboard_size"`
	Backoff          Backoff `yaml:"backoff"`
}

// Default returns the config that matches spec.md's hardcoded values.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		MaxSelectionSize: 1 << 20, // 1 MiB
		MaxClipboardSize: 4 << 20, // 4 MiB
		Backoff: Backoff{
			FastIterations: 5, FastDelayUs: 500,
			MidIterations: 15, MidDelayUs: 2000,
			SlowIterations: 80, SlowDelayUs: 5000,
		},
	}
}

// Load searches $XDG_CONFIG_HOME/zsh-edit-select/config.yaml, then
// $HOME/.config/zsh-edit-select/config.yaml, overlaying any fields found
// onto the built-in defaults.
func Load() (*Config, error) {
	cfg := Default()

	path := searchPath()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("zesconfig: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("zesconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

func searchPath() string {
	candidates := make([]string, 0, 2)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "zsh-edit-select", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "zsh-edit-select", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
