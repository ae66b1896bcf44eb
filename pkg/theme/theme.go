// Package theme provides the color palettes pulsebar applies to rendered
// blocks. A theme maps each widget state (idle, info, good, warning,
// critical) to a foreground/background pair, plus separator colors.
//
// Themes are looked up by name from a built-in registry and can be
// overridden or extended from TOML files.
package theme

import (
	"sort"
	"strings"
	"sync"
)

// StateColors is the fg/bg pair applied to a block in one widget state.
type StateColors struct {
	FG string // hex color e.g. "#93a1a1", empty means bar default
	BG string
}

// Theme defines the complete block palette for the bar.
type Theme struct {
	Name string

	Idle     StateColors
	Info     StateColors
	Good     StateColors
	Warning  StateColors
	Critical StateColors

	// Separator is drawn between blocks when non-empty (the i3bar native
	// separator is disabled in that case).
	Separator   string
	SeparatorFG string
}

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	thRegisterBuiltins()
}

// Get returns a named theme, falling back to the plain theme if not found.
func Get(name string) Theme {
	mu.RLock()
	defer mu.RUnlock()
	if t, ok := registry[strings.ToLower(name)]; ok {
		return t
	}
	return registry["plain"]
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a theme to the registry under its lowercase name,
// replacing any existing theme with that name.
func Register(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(t.Name)] = t
}
