// Package interp implements a tree-walking interpreter for the flat
// source.Program produced by the analyzer. It runs synchronously,
// single-threaded, to completion or to the first error, against
// pluggable input and output byte streams.
//
// State lives entirely on an *Instance: a data stack of Values, a call
// stack of Frames (each carrying its own While-loop resumption state), a
// variable map keyed by 'a'..'z', and the current (lambda, pc) cursor.
// Value-kind coercion on pop is governed by source.Config.TypeSafety (see
// Coerce).
package interp
