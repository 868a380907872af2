package analyzer

import "github.com/MixusMinimax/falsec/source"

// stringID computes the deterministic intern key for a decoded string
// literal's exact byte sequence. Delegates to source.StringID so the code
// generator, which must compute the same key independently when emitting
// rodata labels, never risks drifting from the analyzer's choice of hash.
func stringID(s string) uint64 {
	return source.StringID(s)
}
