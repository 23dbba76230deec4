// Package generator applies generated files to disk.
//
// Work is expressed as a list of Operations that are all validated before
// any of them executes, so a bad destination is reported before anything
// is written:
//
//	ops := []generator.Operation{
//		&generator.WriteFileOp{Path: "demo/Makefile", Content: data, Mode: 0644, Overwrite: true},
//	}
//	err := generator.Execute(ctx, ops, generator.ExecuteOptions{})
//
// With DryRun set, operations are reported and previewed but not executed.
package generator
