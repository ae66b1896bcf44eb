package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/icons"
	"gitlab.com/tinyland/lab/pulsebar/pkg/theme"
)

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/pulsebar/config.toml
//  2. ~/.config/pulsebar/config.toml
//
// A bar without a config file is useless, so a missing file is an error
// (unlike themes, there is no sensible default block list).
func Load() (*Config, error) {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return nil, fmt.Errorf("config: no config.toml found in %v", SearchPaths())
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader. Only the top-level
// and block-header keys are decoded here; block tables are validated by
// their constructors and CheckUndecoded.
func LoadFromReader(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parse TOML: %w", err)
	}
	cfg.meta = md
	if len(cfg.Blocks) == 0 {
		return nil, fmt.Errorf("config: no [[block]] tables configured")
	}
	return &cfg, nil
}

// SearchPaths returns the ordered list of config file paths to try.
func SearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "pulsebar", "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "pulsebar", "config.toml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// loadThemeFile reads and parses a TOML theme override file.
func loadThemeFile(path string) (theme.Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return theme.Theme{}, fmt.Errorf("config: read theme file: %w", err)
	}
	return theme.LoadFromTOML(data)
}

// loadIconsFile reads and parses a TOML icon set override file.
func loadIconsFile(path string) (icons.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return icons.Set{}, fmt.Errorf("config: read icons file: %w", err)
	}
	return icons.LoadFromTOML(data)
}
