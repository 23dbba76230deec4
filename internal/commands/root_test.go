package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `# Makefile template for rv64i single source programs
CC = clang --target=riscv64
CFLAGS = -Wextra

all: template

template: template.o
	$(CC) -o template template.o

template.o: template.c
	$(CC) $(CFLAGS) -c template.c -o template.o
`

const wantMakefile = `CFLAGS = -Wextra
CC = clang --target=riscv64

all: demo

demo: demo.o
	$(CC) -o demo demo.o

demo.o: demo.c
	$(CC) $(CFLAGS) -c demo.c -o demo.o
`

type fixture struct {
	root     string
	dir      string
	template string
	config   string
}

// newFixture lays out <tmp>/demo/demo.c, a template and a config file
// that points at it. build configures the build command.
func newFixture(t *testing.T, build string) *fixture {
	t.Helper()
	root := t.TempDir()
	fx := &fixture{
		root:     root,
		dir:      filepath.Join(root, "demo"),
		template: filepath.Join(root, "Makefile.template"),
		config:   filepath.Join(root, "rvmake.yaml"),
	}

	require.NoError(t, os.Mkdir(fx.dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "demo.c"), []byte("int main(void) { return 0; }\n"), 0644))
	require.NoError(t, os.WriteFile(fx.template, []byte(testTemplate), 0644))

	cfg := fmt.Sprintf("template: %s\n", fx.template)
	if build != "" {
		cfg += fmt.Sprintf("build:\n  command: sh\n  args: [\"-c\", %q]\n", build)
	}
	require.NoError(t, os.WriteFile(fx.config, []byte(cfg), 0644))
	return fx
}

func (fx *fixture) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", fx.config}, args...)
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (fx *fixture) makefile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fx.dir, "Makefile"))
	require.NoError(t, err)
	return string(data)
}

func (fx *fixture) assertNoMakefile(t *testing.T) {
	t.Helper()
	_, err := os.Stat(filepath.Join(fx.dir, "Makefile"))
	assert.True(t, os.IsNotExist(err), "Makefile should not exist")
}

func TestExecute_GeneratesWithDefaults(t *testing.T) {
	fx := newFixture(t, "")

	code, stdout, stderr := fx.run(t, "-d", fx.dir)
	require.Equal(t, ExitOK, code, stderr)

	assert.Equal(t, wantMakefile, fx.makefile(t))
	assert.Contains(t, stdout, "Reading template "+fx.template)
	assert.Contains(t, stdout, "Makefile")
}

func TestExecute_MergesExtraFlags(t *testing.T) {
	fx := newFixture(t, "")

	code, _, stderr := fx.run(t, "-d", fx.dir, "--flags=-O2,-Wall,-Wextra")
	require.Equal(t, ExitOK, code, stderr)

	first, _, _ := strings.Cut(fx.makefile(t), "\n")
	assert.Equal(t, "CFLAGS = -Wextra -O2 -Wall", first)
}

func TestExecute_ExplicitSourceAndBinary(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "main.c"), []byte("\n"), 0644))

	code, _, stderr := fx.run(t, "-d", fx.dir, "-s", filepath.Join(fx.dir, "main.c"), "-b", "kernel", "-t", fx.template)
	require.Equal(t, ExitOK, code, stderr)

	mk := fx.makefile(t)
	assert.Contains(t, mk, "all: kernel\n")
	assert.Contains(t, mk, "main.o: main.c\n")
	assert.Contains(t, mk, "-c main.c -o main.o\n")
	assert.NotContains(t, mk, "template")
}

func TestExecute_Idempotent(t *testing.T) {
	fx := newFixture(t, "")

	code, _, _ := fx.run(t, "-d", fx.dir, "--flags=-g")
	require.Equal(t, ExitOK, code)
	first := fx.makefile(t)

	code, _, _ = fx.run(t, "-d", fx.dir, "--flags=-g")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, first, fx.makefile(t))
}

func TestExecute_OverwritesExistingMakefile(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, "Makefile"), []byte(strings.Repeat("stale\n", 100)), 0644))

	code, _, stderr := fx.run(t, "-d", fx.dir)
	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, wantMakefile, fx.makefile(t))
}

func TestExecute_DryRun(t *testing.T) {
	fx := newFixture(t, "touch built")

	code, stdout, stderr := fx.run(t, "-d", fx.dir, "-n", "--build")
	require.Equal(t, ExitOK, code, stderr)

	assert.Equal(t, wantMakefile, stdout)
	assert.Contains(t, stderr, "[DRY RUN]")
	fx.assertNoMakefile(t)
	_, err := os.Stat(filepath.Join(fx.dir, "built"))
	assert.True(t, os.IsNotExist(err), "dry run must not build")
}

func TestExecute_DryRunVerboseKeepsStdoutClean(t *testing.T) {
	fx := newFixture(t, "touch built")

	code, stdout, stderr := fx.run(t, "-d", fx.dir, "-n", "--build", "-v")
	require.Equal(t, ExitOK, code, stderr)

	assert.Equal(t, wantMakefile, stdout)
	assert.Contains(t, stderr, "--build ignored during a dry run")
	assert.Contains(t, stderr, "Reading template")
	fx.assertNoMakefile(t)
}

func TestExecute_MissingDir(t *testing.T) {
	fx := newFixture(t, "")

	code, _, stderr := fx.run(t)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "specify directory to put Makefile with option -d")
	assert.Contains(t, stderr, "Usage:")
}

func TestExecute_MissingSourceWritesNothing(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "demo.c")))

	code, _, stderr := fx.run(t, "-d", fx.dir, "--build")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "there is no source file demo.c in destination")
	fx.assertNoMakefile(t)
}

func TestExecute_ReportsAllValidationErrors(t *testing.T) {
	fx := newFixture(t, "")
	notADir := filepath.Join(fx.root, "file")
	require.NoError(t, os.WriteFile(notADir, nil, 0644))

	code, _, stderr := fx.run(t, "-d", notADir, "-s", "prog.c")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "-d: destination for Makefile should be a directory")
	assert.Contains(t, stderr, "there is no source file prog.c in destination")
}

func TestExecute_Help(t *testing.T) {
	fx := newFixture(t, "")

	for _, flag := range []string{"-h", "--help"} {
		code, stdout, _ := fx.run(t, flag)
		assert.Equal(t, ExitUsage, code, flag)
		assert.Contains(t, stdout, "Usage:", flag)
		assert.Contains(t, stdout, "--flags", flag)
	}
	fx.assertNoMakefile(t)
}

func TestExecute_BadFlags(t *testing.T) {
	fx := newFixture(t, "")

	code, _, stderr := fx.run(t, "-d", fx.dir, "--bogus")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "bogus")
	assert.Contains(t, stderr, "Usage:")

	code, _, _ = fx.run(t, "-d")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = fx.run(t, "-d", fx.dir, "stray")
	assert.Equal(t, ExitUsage, code)
	fx.assertNoMakefile(t)
}

func TestExecute_MissingTemplate(t *testing.T) {
	fx := newFixture(t, "")

	code, _, stderr := fx.run(t, "-d", fx.dir, "-t", filepath.Join(fx.root, "nope.template"))
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "failed to open template")
	fx.assertNoMakefile(t)
}

func TestExecute_BadConfig(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, os.WriteFile(fx.config, []byte("output: \"\"\n"), 0644))

	code, _, stderr := fx.run(t, "-d", fx.dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "output file name is empty")
}

func TestExecute_Build(t *testing.T) {
	fx := newFixture(t, "test -f Makefile && echo ok > built")

	code, stdout, stderr := fx.run(t, "-d", fx.dir, "--build")
	require.Equal(t, ExitOK, code, stderr)

	data, err := os.ReadFile(filepath.Join(fx.dir, "built"))
	require.NoError(t, err, "build command did not run in the destination directory")
	assert.Equal(t, "ok\n", string(data))
	assert.Contains(t, stdout, "Running sh in "+fx.dir)
	assert.Contains(t, stdout, "Built demo")
}

func TestExecute_BuildEnv(t *testing.T) {
	fx := newFixture(t, "")
	cfg := fmt.Sprintf("template: %s\nbuild:\n  command: sh\n  args: [\"-c\", \"echo $RVMAKE_ARCH > built\"]\n  env: [\"RVMAKE_ARCH=rv64i\"]\n", fx.template)
	require.NoError(t, os.WriteFile(fx.config, []byte(cfg), 0644))

	code, _, stderr := fx.run(t, "-d", fx.dir, "--build")
	require.Equal(t, ExitOK, code, stderr)

	data, err := os.ReadFile(filepath.Join(fx.dir, "built"))
	require.NoError(t, err)
	assert.Equal(t, "rv64i\n", string(data))
}

func TestExecute_BuildFailurePropagatesStatus(t *testing.T) {
	fx := newFixture(t, "echo compile error >&2; exit 3")

	code, _, stderr := fx.run(t, "-d", fx.dir, "--build")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "compile error")
	// the Makefile is written before the build runs
	assert.Equal(t, wantMakefile, fx.makefile(t))
}

func TestExecute_QuietBuild(t *testing.T) {
	fx := newFixture(t, "echo noisy; exit 0")

	code, stdout, stderr := fx.run(t, "-d", fx.dir, "--build", "-q")
	require.Equal(t, ExitOK, code, stderr)
	assert.NotContains(t, stdout, "noisy")
	assert.NotContains(t, stderr, "noisy")
}

func TestExecute_QuietBuildFailureShowsOutput(t *testing.T) {
	fx := newFixture(t, "echo undefined reference; exit 2")

	code, _, stderr := fx.run(t, "-d", fx.dir, "--build", "--quiet")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "│ undefined reference")
}

func TestExecute_ConfigCommand(t *testing.T) {
	fx := newFixture(t, "")

	code, stdout, stderr := fx.run(t, "config")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "template: "+fx.template)
	assert.Contains(t, stdout, "flags_keyword: CFLAGS")
	assert.Contains(t, stdout, "min_line_length: 6")
	assert.Contains(t, stdout, "output: Makefile")
}
