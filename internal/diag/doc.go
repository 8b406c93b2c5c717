// Package diag defines the diagnostic model shared by all pipeline phases.
//
// Diagnostic is the central record: a Severity, a stable Code, a short
// message, the primary source.Span, and optional notes pointing at related
// declarations ("superclass declared here"). Phases emit diagnostics through
// the Reporter interface so they never couple to storage; BagReporter
// aggregates them into a Bag, which supports sorting, deduplication, merging
// and a hard cap.
//
// The package performs no formatting or IO. Rendering lives in
// internal/diagfmt; orchestration in internal/driver.
//
// Codes follow the compilation pipeline: 1xxx are reserved for the external
// lexer/parser, 3xxx are produced while building the class table, 4xxx while
// type-checking method bodies, and 9xxx are internal invariant violations
// that indicate a compiler defect rather than a user error.
package diag
