// Package source holds the value types shared by every stage of the FALSE
// toolchain: source positions and spans, the tagged Command union produced
// by the parser and consumed by the analyzer, interpreter and code
// generator, the flattened Program produced by the analyzer, and the
// Config knobs that tune all of the above.
package source
