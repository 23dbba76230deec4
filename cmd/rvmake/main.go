package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Joe-Degs/riscv/internal/commands"
	"github.com/Joe-Degs/riscv/internal/logging"
)

func main() {
	logging.Setup(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
