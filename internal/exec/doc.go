// Package exec runs the build command after a Makefile is generated.
//
// An Executor runs commands in a fixed working directory with context
// support:
//
//	executor := exec.NewExecutor(&exec.Options{Dir: "projects/demo"})
//	err := executor.Run(ctx, "make")
//	os.Exit(exec.ExitCode(err))
//
// Run streams output straight through. RunQuiet captures it, shows a
// spinner on a terminal, and prints the captured output only when the
// command fails.
//
// ExitCode recovers the command's own exit status from a returned error so
// callers can exit with it.
package exec
