// Package analyzer flattens the parser's tree of nested LambdaDefinitions
// into a flat, id-keyed table of Lambdas (a source.Program), and interns
// every string literal encountered along the way.
//
// Ids are assigned in pre-order as lambda definitions are entered: the
// top-level sequence is id 0, and every nested definition receives the
// next unused id before its own body is hoisted. This makes id assignment
// deterministic: parsing and analyzing the same source twice yields
// byte-identical Programs (modulo fresh map allocation).
package analyzer
