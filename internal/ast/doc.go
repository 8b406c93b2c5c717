// Package ast defines the untyped syntax tree the semantic core consumes.
//
// The tree is produced by the external parser and handed over either
// in-process or as a msgpack dump (see codec.go). The core trusts it to be
// structurally well-formed (every node has the right shape and a span)
// but performs all semantic validation itself: names, arities, types.
//
// Nothing in this package carries resolved type information; that is the
// job of internal/hir.
package ast
