// Package icons resolves the symbolic icon identifiers used in block
// configuration (e.g. "toggle_on") into displayable glyphs. Two sets are
// built in: "none" renders short ASCII markers for terminals without patched
// fonts, and "awesome" uses Font Awesome glyphs.
package icons

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Set is a named mapping from symbolic icon ids to glyphs.
type Set struct {
	Name   string
	glyphs map[string]string
}

// Get resolves a symbolic icon id. The empty id resolves to "" without
// error so blocks can leave icons unset.
func (s Set) Get(id string) (string, bool) {
	if id == "" {
		return "", true
	}
	g, ok := s.glyphs[id]
	return g, ok
}

// IDs returns the sorted symbolic ids the set defines.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s.glyphs))
	for id := range s.glyphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	mu       sync.RWMutex
	registry = map[string]Set{}
)

func init() {
	for _, s := range []Set{icNoneSet(), icAwesomeSet()} {
		Register(s)
	}
}

// Lookup returns a named icon set, falling back to "none" if not found.
func Lookup(name string) Set {
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := registry[strings.ToLower(name)]; ok {
		return s
	}
	return registry["none"]
}

// Names returns all registered set names sorted alphabetically.
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

// Register adds a set to the registry under its lowercase name, replacing
// any existing set with that name.
func Register(s Set) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(s.Name)] = s
}

// icTOMLSet is the TOML shape of an icon set override file.
type icTOMLSet struct {
	Name   string            `toml:"name"`
	Base   string            `toml:"base"`
	Glyphs map[string]string `toml:"glyphs"`
}

// LoadFromTOML parses an icon set definition. When `base` names an existing
// set, its glyphs are copied first and the file's glyphs overlay them.
func LoadFromTOML(data []byte) (Set, error) {
	var ts icTOMLSet
	if err := toml.Unmarshal(data, &ts); err != nil {
		return Set{}, fmt.Errorf("icons: parse TOML: %w", err)
	}
	if ts.Name == "" {
		return Set{}, fmt.Errorf("icons: missing name")
	}

	glyphs := map[string]string{}
	if ts.Base != "" {
		base := Lookup(ts.Base)
		for id, g := range base.glyphs {
			glyphs[id] = g
		}
	}
	for id, g := range ts.Glyphs {
		glyphs[id] = g
	}
	return Set{Name: ts.Name, glyphs: glyphs}, nil
}

// icNoneSet keeps the bar legible without a patched font.
func icNoneSet() Set {
	return Set{
		Name: "none",
		glyphs: map[string]string{
			"toggle_on":  "[x]",
			"toggle_off": "[ ]",
			"time":       "",
			"cpu":        "cpu",
			"mem":        "mem",
			"load":       "load",
		},
	}
}

// icAwesomeSet uses Font Awesome 4 glyphs.
func icAwesomeSet() Set {
	return Set{
		Name: "awesome",
		glyphs: map[string]string{
			"toggle_on":  "",
			"toggle_off": "",
			"time":       "",
			"cpu":        "",
			"mem":        "",
			"load":       "",
		},
	}
}
