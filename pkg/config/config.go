package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/icons"
	"gitlab.com/tinyland/lab/pulsebar/pkg/theme"
)

// Config is the parsed bar configuration. Block tables stay as raw TOML
// primitives here; each block constructor decodes its own table strictly.
type Config struct {
	// Theme names a built-in or file-loaded theme.
	Theme string `toml:"theme"`

	// Icons names a built-in or file-loaded icon set.
	Icons string `toml:"icons"`

	// ThemeFile and IconsFile point at TOML override files registered
	// before name resolution.
	ThemeFile string `toml:"theme_file"`
	IconsFile string `toml:"icons_file"`

	// LogFile receives a copy of the structured log when set.
	LogFile string `toml:"log_file"`

	// IPCSocket enables the control socket at the given path when set.
	IPCSocket string `toml:"ipc_socket"`

	// Blocks holds one raw [[block]] table per configured block, in bar
	// order (leftmost first).
	Blocks []toml.Primitive `toml:"block"`

	meta toml.MetaData
}

// blockHeader is the part of a block table the loader itself understands:
// the key selecting which block implementation to construct.
type blockHeader struct {
	Block string `toml:"block"`
}

// Meta exposes the decode metadata so block constructors can strictly
// decode their primitives against it.
func (c *Config) Meta() *toml.MetaData {
	return &c.meta
}

// BlockKind returns the `block` key of the i-th block table.
func (c *Config) BlockKind(i int) (string, error) {
	var h blockHeader
	if err := c.meta.PrimitiveDecode(c.Blocks[i], &h); err != nil {
		return "", fmt.Errorf("config: block %d: %w", i, err)
	}
	if h.Block == "" {
		return "", fmt.Errorf("config: block %d: missing `block` key", i)
	}
	return h.Block, nil
}

// CheckUndecoded fails if any configured key was not consumed, either by the
// loader or by a block constructor. Unknown keys are configuration errors,
// not warnings.
func (c *Config) CheckUndecoded() error {
	undecoded := c.meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("config: unrecognized keys: %s", strings.Join(keys, ", "))
}

// Shared bundles the resolved theme, icon set, and logger handed to every
// block at construction.
type Shared struct {
	Theme  theme.Theme
	Icons  icons.Set
	Logger *slog.Logger
}

// Shared resolves the configured theme and icon set. File overrides are
// loaded and registered first so names in the file win over builtins.
func (c *Config) Shared(logger *slog.Logger) (*Shared, error) {
	if c.ThemeFile != "" {
		t, err := loadThemeFile(c.ThemeFile)
		if err != nil {
			return nil, err
		}
		theme.Register(t)
	}
	if c.IconsFile != "" {
		s, err := loadIconsFile(c.IconsFile)
		if err != nil {
			return nil, err
		}
		icons.Register(s)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Shared{
		Theme:  theme.Get(c.Theme),
		Icons:  icons.Lookup(c.Icons),
		Logger: logger,
	}, nil
}
