// Package riscv holds build metadata shared by the rvmake tools.
package riscv

// Version is set at build time via -ldflags "-X github.com/Joe-Degs/riscv.Version=..."
var Version = "0.1.0"
