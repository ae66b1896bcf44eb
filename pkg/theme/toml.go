package theme

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// thTOMLTheme is the TOML-serializable representation of a Theme.
type thTOMLTheme struct {
	Name      string       `toml:"name"`
	Idle      thTOMLColors `toml:"idle"`
	Info      thTOMLColors `toml:"info"`
	Good      thTOMLColors `toml:"good"`
	Warning   thTOMLColors `toml:"warning"`
	Critical  thTOMLColors `toml:"critical"`
	Separator thTOMLSep    `toml:"separator"`
}

type thTOMLColors struct {
	FG string `toml:"fg"`
	BG string `toml:"bg"`
}

type thTOMLSep struct {
	Glyph string `toml:"glyph"`
	FG    string `toml:"fg"`
}

var thHexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFromTOML parses a TOML theme definition from raw bytes. Every
// non-empty color must be a `#rrggbb` hex string.
func LoadFromTOML(data []byte) (Theme, error) {
	var tt thTOMLTheme
	if err := toml.Unmarshal(data, &tt); err != nil {
		return Theme{}, fmt.Errorf("theme: parse TOML: %w", err)
	}
	if tt.Name == "" {
		return Theme{}, fmt.Errorf("theme: missing name")
	}

	t := Theme{
		Name:        tt.Name,
		Idle:        StateColors(tt.Idle),
		Info:        StateColors(tt.Info),
		Good:        StateColors(tt.Good),
		Warning:     StateColors(tt.Warning),
		Critical:    StateColors(tt.Critical),
		Separator:   tt.Separator.Glyph,
		SeparatorFG: tt.Separator.FG,
	}

	if err := thValidateColors(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// thValidateColors rejects any color that is non-empty but not a six-digit
// hex string.
func thValidateColors(t Theme) error {
	colors := []string{
		t.Idle.FG, t.Idle.BG,
		t.Info.FG, t.Info.BG,
		t.Good.FG, t.Good.BG,
		t.Warning.FG, t.Warning.BG,
		t.Critical.FG, t.Critical.BG,
		t.SeparatorFG,
	}
	for _, c := range colors {
		if c != "" && !thHexColorRegex.MatchString(c) {
			return fmt.Errorf("theme %q: invalid color %q", t.Name, c)
		}
	}
	return nil
}
