package timewarrior

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// classifyOutputLimit bounds how much of an unmatched output is echoed into
// the error for diagnostics.
const classifyOutputLimit = 120

// classify decides tracking state from the probe output. The ON regex wins
// the tie-break: only when it fails is the OFF regex consulted. The
// returned fields hold exactly the named capture groups of the regex that
// matched; groups that did not participate map to empty strings.
func classify(output string, on, off *regexp.Regexp) (bool, map[string]string, error) {
	if fields, ok := matchFields(on, output); ok {
		return true, fields, nil
	}
	if fields, ok := matchFields(off, output); ok {
		return false, fields, nil
	}
	return false, nil, fmt.Errorf("output matches neither regex: %q", truncate(output, classifyOutputLimit))
}

// matchFields applies re to s and collects the first match's named groups.
// Unnamed groups are ignored.
func matchFields(re *regexp.Regexp, s string) (map[string]string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	fields := map[string]string{}
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		fields[name] = m[i]
	}
	return fields, true
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
