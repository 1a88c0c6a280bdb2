// Package patterns provides the grok-style pattern compiler used by the TAC
// token classifiers, the base patterns they share and the static code tables
// used to decode token values.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Format is one token shape with named capture groups.
type Format struct {
	Name     string         // Format name for identification
	Pattern  string         // Pattern with {PLACEHOLDER} syntax
	Compiled *regexp.Regexp // Compiled regex (populated by Compile)
}

// Compiler compiles and matches a set of token formats. Formats are anchored
// on both ends: a token matches a format only as a whole.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
}

// NewCompiler creates a compiler for formats. Local patterns are overlaid on
// BasePatterns and may override them.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string, len(BasePatterns)+len(localPatterns)),
		formats:      make([]Format, len(formats)),
	}
	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}
	copy(c.formats, formats)
	return c
}

// MustCompile builds and compiles a compiler, panicking on a bad pattern.
// Classifiers call it from package-level vars.
func MustCompile(formats ...Format) *Compiler {
	c := NewCompiler(formats, nil)
	if err := c.Compile(); err != nil {
		panic(err)
	}
	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		expanded, err := c.expand(c.formats[i].Pattern)
		if err != nil {
			return fmt.Errorf("format %s: %w", c.formats[i].Name, err)
		}
		re, err := regexp.Compile(`^(?:` + expanded + `)$`)
		if err != nil {
			return fmt.Errorf("format %s: %w", c.formats[i].Name, err)
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// maxExpandDepth bounds nested placeholder expansion.
const maxExpandDepth = 4

// expand replaces {PLACEHOLDER} with the base pattern, repeatedly, so base
// patterns may reference each other.
func (c *Compiler) expand(pattern string) (string, error) {
	names := make([]string, 0, len(c.basePatterns))
	for name := range c.basePatterns {
		names = append(names, name)
	}
	sort.Strings(names)

	result := pattern
	for depth := 0; depth < maxExpandDepth; depth++ {
		if !hasPlaceholder(result, names) {
			return result, nil
		}
		for _, name := range names {
			result = strings.ReplaceAll(result, "{"+name+"}", c.basePatterns[name])
		}
	}
	if hasPlaceholder(result, names) {
		return "", fmt.Errorf("placeholder expansion too deep in %q", pattern)
	}
	return result, nil
}

// hasPlaceholder reports whether s still references a known base pattern.
// Unknown braces such as \d{2} are regexp syntax and are left alone.
func hasPlaceholder(s string, names []string) bool {
	for _, name := range names {
		if strings.Contains(s, "{"+name+"}") {
			return true
		}
	}
	return false
}

// Match is a successful format match with its named captures.
type Match struct {
	FormatName string
	Captures   map[string]string
}

// Parse matches token against the formats in order and returns the first
// match, or nil.
func (c *Compiler) Parse(token string) *Match {
	upper := strings.ToUpper(token)
	for _, format := range c.formats {
		if format.Compiled == nil {
			continue
		}
		if m := format.Compiled.FindStringSubmatch(upper); m != nil {
			return &Match{FormatName: format.Name, Captures: captures(format.Compiled, m)}
		}
	}
	return nil
}

// Matches reports whether any format matches token.
func (c *Compiler) Matches(token string) bool {
	return c.Parse(token) != nil
}

func captures(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = m[i]
	}
	return out
}

// Get returns capture name, or "" when absent or unmatched.
func (m *Match) Get(name string) string {
	if m == nil {
		return ""
	}
	return m.Captures[name]
}

// Has reports whether capture name matched a non-empty string.
func (m *Match) Has(name string) bool {
	return m.Get(name) != ""
}

// FormatTrace contains debug information about a format match attempt.
type FormatTrace struct {
	Name     string            `json:"name"`
	Matched  bool              `json:"matched"`
	Pattern  string            `json:"pattern"`
	Captures map[string]string `json:"captures,omitempty"`
}

// ParseWithTrace matches token against every format and records each
// attempt. The returned match is the first one, as with Parse.
func (c *Compiler) ParseWithTrace(token string) (*Match, []FormatTrace) {
	upper := strings.ToUpper(token)
	var first *Match
	traces := make([]FormatTrace, 0, len(c.formats))
	for _, format := range c.formats {
		ft := FormatTrace{Name: format.Name}
		if format.Compiled == nil {
			traces = append(traces, ft)
			continue
		}
		ft.Pattern = format.Compiled.String()
		if m := format.Compiled.FindStringSubmatch(upper); m != nil {
			ft.Matched = true
			ft.Captures = captures(format.Compiled, m)
			if first == nil {
				first = &Match{FormatName: format.Name, Captures: ft.Captures}
			}
		}
		traces = append(traces, ft)
	}
	return first, traces
}
