package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Joe-Degs/riscv/internal/config"
	"github.com/Joe-Degs/riscv/internal/exec"
	"github.com/Joe-Degs/riscv/internal/generator"
	"github.com/Joe-Degs/riscv/internal/makefile"
	"github.com/Joe-Degs/riscv/internal/options"
	"github.com/Joe-Degs/riscv/internal/output"
)

// Generate renders the Makefile described by opts into opts.Dir and, when
// requested, runs the build command there. A dry run prints the Makefile
// to stdout and never builds.
func Generate(ctx context.Context, opts *options.Options, cfg *config.Config, stdout, stderr io.Writer) error {
	syn := makefile.Syntax{
		Comment:       cfg.Syntax.Comment,
		FlagsKeyword:  cfg.Syntax.FlagsKeyword,
		MinLineLength: cfg.Syntax.MinLineLength,
	}

	// stdout carries only the Makefile on a dry run
	if opts.DryRun {
		output.SetOutput(stderr, stderr)
		defer output.SetOutput(stdout, stderr)
	}

	output.Step(fmt.Sprintf("Reading template %s", opts.Template))
	tmpl, err := makefile.ReadFile(opts.Template, syn)
	if err != nil {
		return err
	}

	content := makefile.Render(tmpl, syn, makefile.Project{
		Source:     opts.Source,
		Binary:     opts.Binary,
		ExtraFlags: opts.ExtraFlags,
	})

	target := filepath.Join(opts.Dir, cfg.Output)
	ops := []generator.Operation{
		&generator.WriteFileOp{
			Path:      target,
			Content:   content,
			Mode:      0644,
			Overwrite: true,
		},
	}

	progress := stdout
	if opts.DryRun {
		progress = stderr
	}
	if err := generator.Execute(ctx, ops, generator.ExecuteOptions{
		DryRun:  opts.DryRun,
		Writer:  progress,
		Preview: stdout,
	}); err != nil {
		return err
	}

	if opts.DryRun {
		if opts.Build {
			output.Verbose("--build ignored during a dry run")
		}
		return nil
	}
	if !opts.Build {
		return nil
	}
	return build(ctx, opts, cfg, stdout, stderr)
}

// build runs the configured build command in the destination directory.
// The command's exit status becomes the returned ExitError's code.
func build(ctx context.Context, opts *options.Options, cfg *config.Config, stdout, stderr io.Writer) error {
	executor := exec.NewExecutor(&exec.Options{
		Stdout: stdout,
		Stderr: stderr,
		Env:    cfg.Build.Env,
		Dir:    opts.Dir,
	})

	output.Info(fmt.Sprintf("Running %s in %s", cfg.Build.Command, opts.Dir))
	output.Verbose(exec.CommandString(cfg.Build.Command, cfg.Build.Args...))

	var err error
	if opts.Quiet {
		err = executor.RunQuiet(ctx, "Building "+opts.Binary, cfg.Build.Command, cfg.Build.Args...)
	} else {
		err = executor.Run(ctx, cfg.Build.Command, cfg.Build.Args...)
	}
	if err != nil {
		return &ExitError{Code: exec.ExitCode(err), Err: err}
	}

	output.Success(fmt.Sprintf("Built %s", opts.Binary))
	return nil
}
