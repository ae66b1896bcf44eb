// Package format implements the placeholder template language used by
// pulsebar block formats. A template is a plain string with `{name}`
// placeholders substituted at render time from a name->value map, e.g.
// "TW [ {tags} ] {hours}:{minutes}".
//
// Templates are compiled once at block construction; a malformed template is
// a configuration error, not a runtime one.
package format

import (
	"fmt"
	"sort"
	"strings"
)

// segment is one compiled piece of a template: either a literal run or a
// single named placeholder.
type segment struct {
	literal string
	name    string // non-empty means placeholder
}

// Template is a compiled format string. The zero value is an empty template
// that renders to "".
type Template struct {
	raw      string
	segments []segment
}

// Compile parses a template string. It fails on an unterminated `{`, a `}`
// with no opening brace, or an empty placeholder name.
func Compile(s string) (*Template, error) {
	t := &Template{raw: s}
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		clos := strings.IndexByte(s, '}')
		if open == -1 {
			if clos != -1 {
				return nil, fmt.Errorf("format: unmatched %q in %q", "}", t.raw)
			}
			t.segments = append(t.segments, segment{literal: s})
			break
		}
		if clos != -1 && clos < open {
			return nil, fmt.Errorf("format: unmatched %q in %q", "}", t.raw)
		}
		if open > 0 {
			t.segments = append(t.segments, segment{literal: s[:open]})
		}
		s = s[open+1:]
		end := strings.IndexByte(s, '}')
		if end == -1 {
			return nil, fmt.Errorf("format: unterminated placeholder in %q", t.raw)
		}
		name := s[:end]
		if name == "" {
			return nil, fmt.Errorf("format: empty placeholder in %q", t.raw)
		}
		t.segments = append(t.segments, segment{name: name})
		s = s[end+1:]
	}
	return t, nil
}

// MustCompile is Compile for compile-time constant templates; it panics on
// error.
func MustCompile(s string) *Template {
	t, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes fields into the template. Every placeholder must have a
// corresponding key in fields; a missing key is reported as an error since it
// indicates a format/regex mismatch in the configuration.
func (t *Template) Render(fields map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.name == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := fields[seg.name]
		if !ok {
			return "", fmt.Errorf("format: no value for placeholder {%s} in %q", seg.name, t.raw)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Names returns the sorted, deduplicated placeholder names the template
// references. Blocks use this to pre-seed field maps so that placeholders a
// classifier regex does not capture render as empty strings.
func (t *Template) Names() []string {
	seen := map[string]bool{}
	var names []string
	for _, seg := range t.segments {
		if seg.name != "" && !seen[seg.name] {
			seen[seg.name] = true
			names = append(names, seg.name)
		}
	}
	sort.Strings(names)
	return names
}

// String returns the original template source.
func (t *Template) String() string {
	return t.raw
}

// IsZero reports whether the template was never compiled (e.g. the config
// key was absent). Blocks substitute their default format in that case.
func (t *Template) IsZero() bool {
	return t.raw == "" && t.segments == nil
}

// UnmarshalText implements encoding.TextUnmarshaler so templates can be
// decoded directly from TOML strings.
func (t *Template) UnmarshalText(text []byte) error {
	parsed, err := Compile(string(text))
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t *Template) MarshalText() ([]byte, error) {
	return []byte(t.raw), nil
}
