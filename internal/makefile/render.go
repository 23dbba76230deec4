package makefile

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Placeholders recognised in template bodies.
const (
	SourcePlaceholder = "template.c"
	ObjectPlaceholder = "template.o"
	BinaryPlaceholder = "template"
)

// Rule replaces every occurrence of Pattern with Replacement.
type Rule struct {
	Pattern     string
	Replacement string
}

// Apply runs the rule against one line.
func (r Rule) Apply(line string) string {
	if r.Pattern == "" {
		return line
	}
	return strings.ReplaceAll(line, r.Pattern, r.Replacement)
}

// Rules are applied in slice order. A pattern that contains a later
// pattern must come first, otherwise the later rule would rewrite part of
// it before it gets a chance to match.
type Rules []Rule

// Apply runs every rule against line in order.
func (rs Rules) Apply(line string) string {
	for _, r := range rs {
		line = r.Apply(line)
	}
	return line
}

// Substitutions returns the placeholder rules for a project.
// template.c and template.o both contain template, so they run first.
func Substitutions(source, object, binary string) Rules {
	return Rules{
		{Pattern: SourcePlaceholder, Replacement: source},
		{Pattern: ObjectPlaceholder, Replacement: object},
		{Pattern: BinaryPlaceholder, Replacement: binary},
	}
}

// Stem returns name up to, not including, its first '.'.
// A name without a dot is returned unchanged.
func Stem(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// ObjectName maps a source file name to its object file name:
// foo.c -> foo.o, foo.tar.c -> foo.o.
func ObjectName(source string) string {
	return Stem(filepath.Base(source)) + ".o"
}

// MergeFlags appends each extra flag not already present. Order of first
// appearance is kept and matching is exact. Empty extras are skipped.
// defaults is not modified.
func MergeFlags(defaults, extra []string) []string {
	merged := make([]string, 0, len(defaults)+len(extra))
	merged = append(merged, defaults...)

	seen := make(map[string]bool, len(merged))
	for _, f := range merged {
		seen[f] = true
	}
	for _, f := range extra {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		merged = append(merged, f)
	}
	return merged
}

// FlagsLine renders the single flags declaration, newline terminated.
func FlagsLine(keyword string, flags []string) string {
	return fmt.Sprintf("%s = %s\n", keyword, strings.TrimSpace(strings.Join(flags, " ")))
}

// RenderBody applies rules to every line of at least minLen characters.
// Shorter lines, blank separators mostly, are returned untouched.
// The result has the same length and order as body.
func RenderBody(body []string, rules Rules, minLen int) []string {
	out := make([]string, len(body))
	for i, line := range body {
		if utf8.RuneCountInString(line) < minLen {
			out[i] = line
			continue
		}
		out[i] = rules.Apply(line)
	}
	return out
}
