// Package options resolves command line input into a validated Options.
//
// Defaults are filled in only after every flag has been read, because
// some of them depend on others: the source file defaults to
// <dir>/<dir-name>.<ext> and the binary name to the source file stem.
// Validation problems are collected and returned together in a
// *ValidationError instead of stopping at the first one.
package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Joe-Degs/riscv/internal/config"
	"github.com/Joe-Degs/riscv/internal/makefile"
)

var (
	ErrNoDir        = errors.New("specify directory to put Makefile with option -d")
	ErrDirNotADir   = errors.New("-d: destination for Makefile should be a directory")
	ErrNoBinaryName = errors.New("cannot derive binary name")
)

// MissingSourceError reports a source file that is not a regular file
// listed in the destination directory.
type MissingSourceError struct {
	Name string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("there is no source file %s in destination", e.Name)
}

// Raw is the command line exactly as given. Empty strings mean "not set".
type Raw struct {
	Dir      string
	Template string
	Binary   string
	Source   string
	Ext      string
	Flags    string // comma separated
	Build    bool
	DryRun   bool
	Quiet    bool
}

// Options is the fully resolved, validated input to a generator run.
// Paths are absolute.
type Options struct {
	Dir        string
	Source     string
	Ext        string
	Binary     string
	Template   string
	ExtraFlags []string
	Build      bool
	DryRun     bool
	Quiet      bool
}

// SourceName is the base name of the source file.
func (o *Options) SourceName() string {
	return filepath.Base(o.Source)
}

// ValidationError carries every problem found while resolving options.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// SplitFlags splits a comma separated flag list, dropping empty entries.
func SplitFlags(s string) []string {
	if s == "" {
		return nil
	}
	var flags []string
	for _, f := range strings.Split(s, ",") {
		if f != "" {
			flags = append(flags, f)
		}
	}
	return flags
}

// Resolve applies defaults from cfg to raw and validates the result.
// It never writes to the filesystem.
func Resolve(raw Raw, cfg *config.Config) (*Options, error) {
	opts := &Options{
		Ext:        raw.Ext,
		Binary:     raw.Binary,
		Template:   raw.Template,
		ExtraFlags: SplitFlags(raw.Flags),
		Build:      raw.Build,
		DryRun:     raw.DryRun,
		Quiet:      raw.Quiet,
	}
	if opts.Ext == "" {
		opts.Ext = cfg.Extension
	}
	if opts.Template == "" {
		opts.Template = cfg.Template
	}

	var errs []error
	add := func(err error) { errs = append(errs, err) }

	dirOK := false
	switch {
	case raw.Dir == "":
		add(ErrNoDir)
	default:
		dir, err := filepath.Abs(raw.Dir)
		if err != nil {
			add(fmt.Errorf("-d: %w", err))
			break
		}
		opts.Dir = dir
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			add(ErrDirNotADir)
			break
		}
		dirOK = true
	}

	if t, err := filepath.Abs(opts.Template); err == nil {
		opts.Template = t
	}

	switch {
	case !dirOK && raw.Source != "":
		// no usable destination, so the source cannot be in it
		add(&MissingSourceError{Name: filepath.Base(raw.Source)})
	case dirOK:
		if err := resolveSource(opts, raw.Source); err != nil {
			add(err)
		} else if opts.Binary == "" {
			opts.Binary = makefile.Stem(opts.SourceName())
			if opts.Binary == "" {
				add(fmt.Errorf("%w from source file %s, use -b", ErrNoBinaryName, opts.SourceName()))
			}
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return opts, nil
}

// resolveSource fills opts.Source and checks that it is a regular file
// whose name appears in the destination directory. Symlinks are followed
// before the name check.
func resolveSource(opts *Options, source string) error {
	if source == "" {
		source = filepath.Join(opts.Dir, filepath.Base(opts.Dir)+"."+opts.Ext)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("-s: %w", err)
	}
	opts.Source = abs

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return &MissingSourceError{Name: filepath.Base(abs)}
	}

	// a symlink is judged by its target's name
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		opts.Source = resolved
	}
	name := filepath.Base(opts.Source)
	missing := &MissingSourceError{Name: name}

	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return missing
	}
	for _, e := range entries {
		if e.Name() == name {
			return nil
		}
	}
	return missing
}
