package source

import "hash/fnv"

// StringID computes the deterministic intern key for a string literal's
// exact decoded byte sequence (spec §2, §3). No example in the corpus pulls
// in a third-party hashing library as a direct dependency, so this uses the
// standard library's FNV-1a: stable across a run (the spec requires no more
// than that) and independently reproducible by the code generator, which
// must compute the same key as the analyzer when emitting rodata labels for
// string literals.
func StringID(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
