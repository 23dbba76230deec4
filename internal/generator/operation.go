package generator

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Operation represents a file system operation that can be validated and executed.
//
// Validate checks if the operation would succeed without executing it and
// must not touch the file system.
//
// Execute performs the actual operation. This should only be called after Validate succeeds.
//
// Description returns a human-readable description for output (e.g., "Write demo/Makefile (412 bytes)").
type Operation interface {
	Validate(ctx context.Context) error
	Execute(ctx context.Context) error
	Description() string
}

// Previewer is implemented by operations that can show what they would
// produce. Dry runs call Preview instead of Execute.
type Previewer interface {
	Preview(w io.Writer) error
}

// WriteFileOp writes a file into an existing directory.
//
// Validation behavior:
//   - The parent directory must already exist
//   - An existing regular file is a conflict unless Overwrite is set
//   - Allows empty content (zero bytes) but rejects nil content
//
// Execution behavior:
//   - Creates or truncates the file and writes Content in one call
type WriteFileOp struct {
	Path      string      // File path to write
	Content   []byte      // File content (can be empty, must not be nil)
	Mode      fs.FileMode // File permissions (e.g., 0644)
	Overwrite bool        // Replace an existing file
}

func (op *WriteFileOp) Validate(ctx context.Context) error {
	dir := filepath.Dir(op.Path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot write into %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot write into %s: not a directory", dir)
	}

	if existing, err := os.Stat(op.Path); err == nil {
		if existing.IsDir() {
			return fmt.Errorf("%s is a directory", op.Path)
		}
		if !op.Overwrite {
			return fmt.Errorf("file already exists: %s", op.Path)
		}
	}

	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}

	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context) error {
	return os.WriteFile(op.Path, op.Content, op.Mode)
}

func (op *WriteFileOp) Preview(w io.Writer) error {
	_, err := w.Write(op.Content)
	return err
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Write %s (%d bytes)", op.Path, len(op.Content))
}
