// Package makefile turns a Makefile template into a project Makefile.
//
// A template is line oriented:
//
//	# comment lines are dropped
//	CFLAGS = -Wextra          (default compiler flags, one or more lines)
//	template: template.o      (everything else is body)
//		$(LD) -o template template.o
//
// Body lines have three placeholders substituted: template.c becomes the
// source file, template.o the object file and template the binary name.
package makefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Joe-Degs/riscv/internal/logging"
)

// Syntax describes the markers recognised in a template.
type Syntax struct {
	Comment       string // prefix of dropped lines
	FlagsKeyword  string // prefix of default flag lines, also the key of the rendered flags line
	MinLineLength int    // body lines shorter than this are copied verbatim
}

// DefaultSyntax matches Makefile.template as shipped in projects/.
func DefaultSyntax() Syntax {
	return Syntax{
		Comment:       "#",
		FlagsKeyword:  "CFLAGS",
		MinLineLength: 6,
	}
}

// Template is a parsed template file.
type Template struct {
	// Flags are the default flag tokens in declaration order.
	Flags []string
	// Body holds the remaining lines in order, each with its original
	// line terminator. The last line may have none.
	Body []string
}

// ReadFile reads and parses the template at path.
func ReadFile(path string, syn Syntax) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	tmpl, err := Parse(f, syn)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return tmpl, nil
}

// Parse splits template text into default flags and body lines.
func Parse(r io.Reader, syn Syntax) (*Template, error) {
	log := logging.GetLogger("template")
	tmpl := &Template{
		Flags: []string{},
		Body:  []string{},
	}

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lineNo++
			switch {
			case strings.HasPrefix(line, syn.Comment):
				// dropped
			case strings.HasPrefix(line, syn.FlagsKeyword):
				_, value, found := strings.Cut(line, "=")
				if !found {
					log.Debug().Int("line", lineNo).Msg("flags line without '=' ignored")
					break
				}
				tmpl.Flags = append(tmpl.Flags, strings.TrimSpace(value))
			default:
				tmpl.Body = append(tmpl.Body, line)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	log.Debug().
		Int("lines", lineNo).
		Int("flags", len(tmpl.Flags)).
		Int("body", len(tmpl.Body)).
		Msg("template parsed")
	return tmpl, nil
}
