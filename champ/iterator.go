package champ

import "iter"

// Iterator walks every key/value pair in a Map via an explicit stack,
// mirroring the depth-first traversal the ctrie package's Iter type used
// (mainIter/sliceIter/listIter), adapted to CHAMP's two-bitmap node shape:
// a frame visits a node's entries first, then descends into its children
// in ascending hash-fragment order.
type Iterator[K, V any] struct {
	stack []iterFrame[K, V]
	key   K
	value V
	ok    bool
}

type iterFrame[K, V any] struct {
	n        *node[K, V]
	entryIdx int
	childIdx int // counts down from len(children)-1 to recover ascending bit order
	l        *leaf[K, V]
	leafIdx  int
}

func newIterator[K, V any](root *node[K, V]) *Iterator[K, V] {
	it := &Iterator[K, V]{}
	it.push(root)
	return it
}

func (it *Iterator[K, V]) push(n *node[K, V]) {
	it.stack = append(it.stack, iterFrame[K, V]{n: n, childIdx: len(n.children) - 1})
}

func (it *Iterator[K, V]) pushLeaf(l *leaf[K, V]) {
	it.stack = append(it.stack, iterFrame[K, V]{l: l})
}

// Next advances the iterator and reports whether a pair is available.
func (it *Iterator[K, V]) Next() bool {
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]

		if f.l != nil {
			if f.leafIdx >= len(f.l.entries) {
				it.stack = it.stack[:len(it.stack)-1]
				continue
			}
			e := f.l.entries[f.leafIdx]
			f.leafIdx++
			it.key, it.value, it.ok = e.key, e.value, true
			return true
		}

		if f.entryIdx < len(f.n.entries) {
			e := f.n.entries[f.entryIdx]
			f.entryIdx++
			it.key, it.value, it.ok = e.key, e.value, true
			return true
		}

		if f.childIdx < 0 {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		child := f.n.children[f.childIdx]
		f.childIdx--
		switch c := child.(type) {
		case *node[K, V]:
			it.push(c)
		case *leaf[K, V]:
			it.pushLeaf(c)
		default:
			invariantViolation("unknown branch type %T", child)
		}
	}
	it.ok = false
	return false
}

// Key returns the current pair's key. It is only meaningful after a call
// to Next that returned true.
func (it *Iterator[K, V]) Key() K { return it.key }

// Value returns the current pair's value. It is only meaningful after a
// call to Next that returned true.
func (it *Iterator[K, V]) Value() V { return it.value }

// forEach eagerly walks root, stopping early if fn returns false.
func forEach[K, V any](root *node[K, V], fn func(K, V) bool) {
	it := newIterator(root)
	for it.Next() {
		if !fn(it.Key(), it.Value()) {
			return
		}
	}
}

// all returns an iter.Seq2 over every key/value pair in root, in the same
// traversal order Iterator uses.
func all[K, V any](root *node[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		forEach(root, yield)
	}
}

// keys returns an iter.Seq over every key in root.
func keys[K, V any](root *node[K, V]) iter.Seq[K] {
	return func(yield func(K) bool) {
		forEach(root, func(k K, _ V) bool { return yield(k) })
	}
}

// values returns an iter.Seq over every value in root.
func values[K, V any](root *node[K, V]) iter.Seq[V] {
	return func(yield func(V) bool) {
		forEach(root, func(_ K, v V) bool { return yield(v) })
	}
}
