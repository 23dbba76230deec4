// Package config loads rvmake settings.
//
// Settings come from built-in defaults, an optional rvmake.yaml and
// RVMAKE_* environment variables, in increasing order of precedence.
// The resulting Config is passed explicitly to the commands that need it;
// nothing in the tool reads a package-level default path.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName names the config file, the XDG directory and the env prefix.
const AppName = "rvmake"

// Config holds every tunable the generator uses.
type Config struct {
	Template  string       `mapstructure:"template" yaml:"template"`
	Extension string       `mapstructure:"extension" yaml:"extension"`
	Output    string       `mapstructure:"output" yaml:"output"`
	Build     BuildConfig  `mapstructure:"build" yaml:"build"`
	Syntax    SyntaxConfig `mapstructure:"syntax" yaml:"syntax"`
}

// BuildConfig describes the command run by --build.
type BuildConfig struct {
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
	// Env is added to the inherited environment, as KEY=VALUE entries.
	Env []string `mapstructure:"env" yaml:"env"`
}

// SyntaxConfig describes the template file format.
type SyntaxConfig struct {
	Comment       string `mapstructure:"comment" yaml:"comment"`
	FlagsKeyword  string `mapstructure:"flags_keyword" yaml:"flags_keyword"`
	MinLineLength int    `mapstructure:"min_line_length" yaml:"min_line_length"`
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// File is an explicit config file. When set it must exist.
	File string
	// Paths are searched for rvmake.yaml when File is empty.
	// Nil means DefaultSearchPaths.
	Paths []string
}

// DefaultTemplatePath is the template used when neither a flag nor the
// config file names one.
func DefaultTemplatePath() string {
	return filepath.Join(xdg.Home, "dev", "riscv", "projects", "Makefile.template")
}

// DefaultSearchPaths returns the directories searched for rvmake.yaml.
func DefaultSearchPaths() []string {
	return []string{filepath.Join(xdg.ConfigHome, AppName), "."}
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Template:  DefaultTemplatePath(),
		Extension: "c",
		Output:    "Makefile",
		Build: BuildConfig{
			Command: "make",
			Args:    []string{},
			Env:     []string{},
		},
		Syntax: SyntaxConfig{
			Comment:       "#",
			FlagsKeyword:  "CFLAGS",
			MinLineLength: 6,
		},
	}
}

// Load builds a Config from defaults, the config file and the environment.
// A missing config file in the search paths is not an error.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		paths := opts.Paths
		if paths == nil {
			paths = DefaultSearchPaths()
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Template = expandHome(cfg.Template)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the generator cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Output == "":
		return fmt.Errorf("config: output file name is empty")
	case strings.ContainsRune(c.Output, os.PathSeparator):
		return fmt.Errorf("config: output %q must be a file name, not a path", c.Output)
	case c.Build.Command == "":
		return fmt.Errorf("config: build.command is empty")
	case invalidEnv(c.Build.Env) != "":
		return fmt.Errorf("config: build.env entry %q is not KEY=VALUE", invalidEnv(c.Build.Env))
	case c.Syntax.Comment == "":
		return fmt.Errorf("config: syntax.comment is empty")
	case c.Syntax.FlagsKeyword == "":
		return fmt.Errorf("config: syntax.flags_keyword is empty")
	case c.Syntax.MinLineLength < 0:
		return fmt.Errorf("config: syntax.min_line_length must not be negative")
	}
	return nil
}

// invalidEnv returns the first entry without a key, or "".
func invalidEnv(env []string) string {
	for _, e := range env {
		if k, _, ok := strings.Cut(e, "="); !ok || k == "" {
			return e
		}
	}
	return ""
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("template", d.Template)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("output", d.Output)
	v.SetDefault("build.command", d.Build.Command)
	v.SetDefault("build.args", d.Build.Args)
	v.SetDefault("build.env", d.Build.Env)
	v.SetDefault("syntax.comment", d.Syntax.Comment)
	v.SetDefault("syntax.flags_keyword", d.Syntax.FlagsKeyword)
	v.SetDefault("syntax.min_line_length", d.Syntax.MinLineLength)
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if path == "~" {
		return xdg.Home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(xdg.Home, path[2:])
	}
	return path
}
