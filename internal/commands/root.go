package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	riscv "github.com/Joe-Degs/riscv"
	"github.com/Joe-Degs/riscv/internal/config"
	"github.com/Joe-Degs/riscv/internal/logging"
	"github.com/Joe-Degs/riscv/internal/options"
	"github.com/Joe-Degs/riscv/internal/output"
)

// cli is the state shared by the root command and its subcommands.
type cli struct {
	raw        options.Raw
	verbose    bool
	configFile string
	helpShown  bool
}

func (c *cli) loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{File: c.configFile})
}

// Execute runs rvmake with args and returns the process exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	output.SetOutput(stdout, stderr)

	st := &cli{}
	root := newRootCmd(st)
	root.AddCommand(newConfigCmd(st))
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if st.helpShown {
		return ExitUsage
	}
	if err == nil {
		return ExitOK
	}
	return report(cmd, err, stderr)
}

// report prints err and maps it to an exit status. Usage and validation
// errors print every message followed by the usage text.
func report(cmd *cobra.Command, err error, stderr io.Writer) int {
	var verr *options.ValidationError
	var uerr *UsageError
	var xerr *ExitError

	switch {
	case errors.As(err, &verr):
		for _, e := range verr.Errors {
			output.Error(e.Error())
		}
		fmt.Fprint(stderr, cmd.UsageString())
		return ExitUsage
	case errors.As(err, &uerr):
		output.Error(uerr.Error())
		fmt.Fprint(stderr, cmd.UsageString())
		return ExitUsage
	case errors.As(err, &xerr):
		output.Error(xerr.Error())
		return xerr.Code
	default:
		output.Error(err.Error())
		return ExitFailure
	}
}

// newRootCmd creates the rvmake command. Running it generates a Makefile.
func newRootCmd(st *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rvmake -d <dir> [flags]",
		Short: "Generate a Makefile for a single-source rv64i program",
		Long: `Generate a Makefile from a template and optionally build the target binary
from a C or assembly source file.

The template is a Makefile in which lines starting with # are dropped,
lines starting with CFLAGS declare default compiler flags, and every other
line is copied with template.c, template.o and template replaced by the
source file, object file and binary name.

The source file defaults to <dir>/<dir-name>.<ext> and must live in the
destination directory. The binary name defaults to the source file name
without its extension.`,
		Example: `  rvmake -d projects/hello
  rvmake -d projects/boot -x S --flags=-O2,-g --build
  rvmake -d projects/demo -s projects/demo/main.c -b demo -n`,
		Version:       riscv.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(st.verbose)
			logging.SetupWriter(cmd.ErrOrStderr(), st.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}

			opts, err := options.Resolve(st.raw, cfg)
			if err != nil {
				return err
			}

			logging.GetLogger("cli").Debug().
				Str("dir", opts.Dir).
				Str("source", opts.Source).
				Str("binary", opts.Binary).
				Str("template", opts.Template).
				Strs("flags", opts.ExtraFlags).
				Bool("build", opts.Build).
				Strs("given", flagSet(cmd)).
				Msg("options resolved")

			return Generate(cmd.Context(), opts, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&st.raw.Dir, "dir", "d", "", "directory of the build; receives the Makefile (required)")
	f.StringVarP(&st.raw.Template, "template", "t", "", "Makefile template to use (default from config)")
	f.StringVarP(&st.raw.Binary, "binary", "b", "", "name of the target binary (default: source file stem)")
	f.StringVarP(&st.raw.Source, "source", "s", "", "source file to compile (default: <dir>/<dir-name>.<ext>)")
	f.StringVarP(&st.raw.Ext, "ext", "x", "", `source file extension, C or assembly (default from config, "c")`)
	f.StringVar(&st.raw.Flags, "flags", "", "additional compiler flags as a comma separated list")
	f.BoolVar(&st.raw.Build, "build", false, "run the build command in the destination directory")
	f.BoolVarP(&st.raw.DryRun, "dry-run", "n", false, "print the Makefile instead of writing it")
	f.BoolVarP(&st.raw.Quiet, "quiet", "q", false, "hide build output unless the build fails")

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&st.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	pf.StringVar(&st.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/rvmake/rvmake.yaml or ./rvmake.yaml)")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		st.helpShown = true
	})

	return cmd
}

// usageArgs turns positional argument errors into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// flagSet reports which flags were given explicitly, for debugging.
func flagSet(cmd *cobra.Command) []string {
	var set []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		set = append(set, f.Name)
	})
	return set
}
