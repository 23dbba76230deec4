package makefile

import (
	"path/filepath"
	"strings"

	"github.com/Joe-Degs/riscv/internal/logging"
)

// Project names what the rendered Makefile builds.
type Project struct {
	Source     string   // source file; only the base name is used
	Binary     string   // target binary name
	ExtraFlags []string // merged after the template defaults
}

// Render produces the Makefile for p: the flags line followed by the
// substituted body. The output depends only on its inputs.
func Render(tmpl *Template, syn Syntax, p Project) []byte {
	source := filepath.Base(p.Source)
	object := ObjectName(source)

	flags := MergeFlags(tmpl.Flags, p.ExtraFlags)
	body := RenderBody(tmpl.Body, Substitutions(source, object, p.Binary), syn.MinLineLength)

	logging.GetLogger("render").Debug().
		Str("source", source).
		Str("object", object).
		Str("binary", p.Binary).
		Strs("flags", flags).
		Msg("rendering makefile")

	var b strings.Builder
	b.WriteString(FlagsLine(syn.FlagsKeyword, flags))
	for _, line := range body {
		b.WriteString(line)
	}
	return []byte(b.String())
}
