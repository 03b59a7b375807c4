package champ

import (
	"hash/maphash"

	"github.com/rogpeppe/champ/anyhash"
)

// Hasher and ComparableHasher are the anyhash types, re-exported under the
// names this package's constructors use. anyhash's Hasher is the corpus's
// only answer to "what hashes and compares an arbitrary key type" — the
// same interface shape already used for watcher-style canonicalization, now
// driving trie routing instead.
type Hasher[K any] = anyhash.Hasher[K]

// ComparableHasher adapts any comparable type to Hasher using the standard
// library's built-in comparable hashing and equality.
type ComparableHasher[K comparable] = anyhash.ComparableHasher[K]

// defaultSeed is shared by every Map built with New or NewWithHasher so that
// two maps built from default hashing remain merge-compatible: a key must
// mix to the same trie address in both trees being merged, which requires
// a single consistent seed across instances, exactly as ctrie.StringHash
// and ctrie.BytesHash shared one package-level maphash.Seed.
var defaultSeed = maphash.MakeSeed()

// hashFuncFor turns a Hasher into a raw uint32 hash: the hasher writes
// into a maphash.Hash and the resulting 64-bit sum is folded into 32
// bits. NewWithFuncs applies mix32 on top, so every Map spreads its hash
// the same way no matter which constructor built it.
func hashFuncFor[K any](h Hasher[K]) func(K) uint32 {
	return func(k K) uint32 {
		var mh maphash.Hash
		mh.SetSeed(defaultSeed)
		h.Hash(&mh, k)
		sum := mh.Sum64()
		return uint32(sum) ^ uint32(sum>>32)
	}
}

// mix32 spreads entropy from the high bits of h down into the low bits,
// since CHAMP fragment addressing consumes the low 5 bits first and many
// hash functions concentrate their entropy near the top. It is a
// bijection (each step is an invertible xor-shift), so it never
// introduces collisions of its own.
func mix32(h uint32) uint32 {
	h ^= (h >> 20) ^ (h >> 12)
	h ^= (h >> 7) ^ (h >> 4)
	return h
}
