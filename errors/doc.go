// Package errors provides structured error types for layout and ABI processing.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: member path, C type spelling, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLayout, errors.KindIncompleteType).
//		Path("node", "next").
//		Type("struct node").
//		Detail("forward declaration was never completed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.IncompleteType(path, "struct node")
//	err := errors.OutOfBounds(errors.PhaseInit, path, 10, 5)
//
// The Err* sentinels match on kind regardless of phase:
//
//	if errors.Is(err, errors.ErrIncompleteType) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
