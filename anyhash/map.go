// Package anyhash implements support for hashing and comparing arbitrary
// key types that aren't necessarily comparable, via an explicit Hasher
// supplied by the caller instead of relying on Go's built-in == and
// map[K]V hashing.
package anyhash

import (
	"hash/maphash"
)

// See https://go-review.googlesource.com/c/go/+/657296/11/src/hash/maphash/hasher.go#7

// A Hasher defines a hash function and an equivalence relation over
// values of type T. champ's Map constructors use this as the one pluggable
// seam for routing a key to a trie fragment and for comparing two keys
// that land in the same slot.
//
// See https://go-review.googlesource.com/c/go/+/657296/11/src/hash/maphash/hasher.go
type Hasher[T any] interface {
	Hash(*maphash.Hash, T)
	Equal(x, y T) bool
}

// ComparableHasher is an implementation of [Hasher] for comparable types.
// Its Equal(x, y) method is consistent with x == y. It is the only default
// Hasher this package offers: there is no universal default over arbitrary
// key types, so non-comparable keys (slices, structs containing funcs,
// etc.) need a caller-supplied Hasher.
type ComparableHasher[T comparable] struct {
	_ [0]func(T) // disallow comparison, and conversion between ComparableHasher[X] and ComparableHasher[Y]
}

func (ComparableHasher[T]) Hash(h *maphash.Hash, v T) { maphash.WriteComparable(h, v) }
func (ComparableHasher[T]) Equal(x, y T) bool         { return x == y }
