package champ

import (
	"iter"

	"github.com/rogpeppe/champ/gatomic"
)

// Map is a hash map backed by a CHAMP trie. The zero value is not usable;
// construct one with New or NewWithFuncs.
//
// A Map built by New/NewWithFuncs/NewWithHasher is persistent: every
// mutating method returns a new Map and leaves the receiver untouched.
// Linear returns a transient handle that mutates its private root in
// place until Forked hands a persistent Map back out — the same
// "batch of edits, then publish" workflow the ctrie package's Clone/RClone
// pair supported, adapted from generation tokens to editor tokens.
type Map[K, V any] struct {
	root   *node[K, V]
	hashFn func(K) uint32
	eqFn   func(K, K) bool

	// editor is nil for a persistent Map. A non-nil editor marks a
	// transient handle: mutating methods may edit root's nodes in
	// place when they find editor set on them.
	editor *editor
}

// MapLike is the capability set Merge, Intersection, Difference, and
// Equal need of their second operand: a size, a keyed lookup, and an
// entrywise iteration. Any map-shaped container can implement it. When
// the operand is a *Map the operations dispatch on that concrete type
// and work subtree-by-subtree on its root; for any other implementation
// they fall back to iterating its entries one at a time.
type MapLike[K, V any] interface {
	Size() int
	Lookup(key K) (V, bool)
	All() iter.Seq2[K, V]
}

func (m *Map[K, V]) rootNode() *node[K, V] {
	return gatomic.LoadPointer(&m.root)
}

// publishRoot returns the map's current root for adoption into another
// map's structure. A transient's editor token is retired first, exactly as
// in Forked: subtrees the bulk result shares with a transient argument
// must not be mutable in place through that argument afterwards.
func (m *Map[K, V]) publishRoot() *node[K, V] {
	if m.editor != nil {
		m.editor = newEditor()
	}
	return m.rootNode()
}

// New returns an empty persistent Map using the standard library's
// built-in comparison and maphash-based hashing for K.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithHasher[K, V](ComparableHasher[K]{})
}

// NewWithHasher returns an empty persistent Map using h for both hashing
// and equality, following ctrie.New's use of a single Hasher argument but
// generalized to anyhash.Hasher so K need not be comparable.
func NewWithHasher[K, V any](h Hasher[K]) *Map[K, V] {
	return NewWithFuncs[K, V](h.Equal, hashFuncFor(h))
}

// NewWithFuncs returns an empty persistent Map using explicit equality and
// hash functions, following ctrie.NewWithFuncs's shape exactly. The
// caller's hash is spread through mix32 before fragment addressing, the
// same as every other construction path: routing consumes the low bits
// first, and an explicitly supplied hash is just as likely to be weak
// there as a derived one.
func NewWithFuncs[K, V any](eqFn func(K, K) bool, hashFn func(K) uint32) *Map[K, V] {
	mixed := func(k K) uint32 { return mix32(hashFn(k)) }
	return newMap[K, V](&node[K, V]{}, eqFn, mixed, nil)
}

func newMap[K, V any](root *node[K, V], eqFn func(K, K) bool, hashFn func(K) uint32, ed *editor) *Map[K, V] {
	m := &Map[K, V]{eqFn: eqFn, hashFn: hashFn, editor: ed}
	gatomic.StorePointer(&m.root, root)
	return m
}

// Size returns the number of entries in the Map. This is O(1): every node
// caches the size of its subtree.
func (m *Map[K, V]) Size() int {
	return m.rootNode().size
}

// Lookup returns the value associated with key and whether it was present.
func (m *Map[K, V]) Lookup(key K) (V, bool) {
	return m.rootNode().lookup(0, m.hashFn(key), key, m.eqFn)
}

// GetOr returns the value associated with key, or def if key is absent.
func (m *Map[K, V]) GetOr(key K, def V) V {
	if v, ok := m.Lookup(key); ok {
		return v
	}
	return def
}

// Contains reports whether key is present in the Map.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Lookup(key)
	return ok
}

func replace[V any](_, new V) V { return new }

// Put returns a Map with key associated with value, replacing any
// existing association. For a transient Map, the receiver is mutated in
// place and also returned; for a persistent Map the receiver is left
// untouched and a new Map is returned.
func (m *Map[K, V]) Put(key K, value V) *Map[K, V] {
	return m.putWith(key, value, replace[V])
}

// PutWith is like Put, except that when key is already present mergeFn
// combines the existing value with value to compute the one stored. If
// the combined value is identical to the existing one the operation is a
// no-op and the receiver is returned unchanged.
func (m *Map[K, V]) PutWith(key K, value V, mergeFn func(old, new V) V) *Map[K, V] {
	return m.putWith(key, value, mergeFn)
}

// Update is like Put, except fn sees the existing value (and whether the
// key was already present) and computes the value to store, letting
// callers synthesize defaults (e.g. a counter's first increment) without a
// separate Lookup.
func (m *Map[K, V]) Update(key K, fn func(old V, had bool) V) *Map[K, V] {
	old, had := m.Lookup(key)
	return m.putWith(key, fn(old, had), replace[V])
}

func (m *Map[K, V]) putWith(key K, value V, mergeFn func(old, new V) V) *Map[K, V] {
	root := m.rootNode()
	newRoot, _ := root.put(0, m.hashFn(key), key, value, mergeFn, m.eqFn, m.editor)
	if newRoot == root {
		return m
	}
	return m.withRoot(newRoot)
}

// Remove returns a Map with key absent, along with the removed value and
// whether it had been present.
func (m *Map[K, V]) Remove(key K) (*Map[K, V], V, bool) {
	newRoot, val, removed := m.rootNode().remove(0, m.hashFn(key), key, m.eqFn)
	if !removed {
		return m, val, false
	}
	return m.withRoot(newRoot), val, true
}

func (m *Map[K, V]) withRoot(newRoot *node[K, V]) *Map[K, V] {
	if m.editor != nil {
		gatomic.StorePointer(&m.root, newRoot)
		return m
	}
	return newMap(newRoot, m.eqFn, m.hashFn, nil)
}

// Iterator returns a stateful iterator over the Map's entries. Iteration
// order is unspecified.
func (m *Map[K, V]) Iterator() *Iterator[K, V] {
	return newIterator(m.rootNode())
}

// ForEach calls fn for every entry, stopping early if fn returns false.
func (m *Map[K, V]) ForEach(fn func(K, V) bool) {
	forEach(m.rootNode(), fn)
}

// All returns an iter.Seq2 over every key/value pair, for use with Go's
// range-over-func: for k, v := range m.All() { ... }.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return all(m.rootNode())
}

// Keys returns an iter.Seq over every key.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return keys(m.rootNode())
}

// Values returns an iter.Seq over every value.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return values(m.rootNode())
}

// Linear returns a transient Map sharing the receiver's current structure,
// owned by a fresh editor token. Mutating methods called on the result
// edit nodes in place wherever they find that token already on them,
// falling back to a copy otherwise — the same owned-vs-shared test the
// ctrie package's generation field drove, reframed as a single token
// instead of a clone-counter.
func (m *Map[K, V]) Linear() *Map[K, V] {
	return newMap(m.rootNode(), m.eqFn, m.hashFn, newEditor())
}

// Forked returns a persistent Map with the receiver's current structure.
// Called on a transient Map, it burns the transient's editor token so that
// further mutation through the transient handle (if any) cannot reach
// into the now-published persistent result — any node it would otherwise
// mutate in place no longer matches the old token, so it copies instead.
// This is the "standard publication guarantee": the returned Map's root is
// stored with gatomic.StorePointer, so it is safe to hand to another
// goroutine as soon as Forked returns.
func (m *Map[K, V]) Forked() *Map[K, V] {
	root := m.rootNode()
	if m.editor != nil {
		m.editor = newEditor() // retire the old token; old nodes are now foreign to it
	}
	return newMap(root, m.eqFn, m.hashFn, nil)
}

// Clone returns a Map of the same mode (persistent or transient) as the
// receiver, sharing its current structure. A persistent Clone is just
// another persistent handle on the same root. Cloning a transient retires
// the receiver's editor token as well as issuing the clone a fresh one:
// every node the two handles now share is foreign to both tokens, so
// edits made through one handle are never visible, in place, through the
// other.
func (m *Map[K, V]) Clone() *Map[K, V] {
	if m.editor == nil {
		return newMap(m.rootNode(), m.eqFn, m.hashFn, nil)
	}
	m.editor = newEditor()
	return newMap(m.rootNode(), m.eqFn, m.hashFn, newEditor())
}

// Merge returns the union of m and other, calling mergeFn(selfValue,
// otherValue) for any key present in both to compute the kept value.
// When other is a *Map the union is computed subtree-by-subtree over the
// two roots; a foreign MapLike is folded in entry by entry.
func (m *Map[K, V]) Merge(other MapLike[K, V], mergeFn func(self, other V) V) *Map[K, V] {
	om, ok := other.(*Map[K, V])
	if !ok {
		out := m
		for k, v := range other.All() {
			out = out.putWith(k, v, mergeFn)
		}
		return out
	}
	otherRoot := om.publishRoot()
	merged := mergeBranch[K, V](0, m.rootNode(), otherRoot, mergeFn, m.eqFn, m.editor)
	return m.withBulkResult(merged)
}

// Intersection returns the entries present in both m and other, calling
// mergeFn(selfValue, otherValue) to compute the kept value. When other
// is a *Map the intersection is computed subtree-by-subtree over the two
// roots; against a foreign MapLike each of m's entries is looked up in
// other individually.
func (m *Map[K, V]) Intersection(other MapLike[K, V], mergeFn func(self, other V) V) *Map[K, V] {
	om, ok := other.(*Map[K, V])
	if !ok {
		kept := newMap[K, V](&node[K, V]{}, m.eqFn, m.hashFn, newEditor())
		for k, v := range m.All() {
			if ov, present := other.Lookup(k); present {
				kept = kept.Put(k, mergeFn(v, ov))
			}
		}
		return m.withRoot(kept.rootNode())
	}
	otherRoot := om.publishRoot()
	result := intersectBranch[K, V](0, m.rootNode(), otherRoot, mergeFn, m.eqFn, m.editor)
	return m.withBulkResult(result)
}

// Difference returns the entries of m whose key is absent from other.
// When other is a *Map the difference is computed subtree-by-subtree over
// the two roots; a foreign MapLike has its keys removed from m one at a
// time.
func (m *Map[K, V]) Difference(other MapLike[K, V]) *Map[K, V] {
	om, ok := other.(*Map[K, V])
	if !ok {
		out := m
		for k := range other.All() {
			out, _, _ = out.Remove(k)
		}
		return out
	}
	otherRoot := om.publishRoot()
	result := differenceBranch[K, V](0, m.rootNode(), otherRoot, m.eqFn, m.editor)
	return m.withBulkResult(result)
}

func (m *Map[K, V]) withBulkResult(result branch[K, V]) *Map[K, V] {
	n, ok := result.(*node[K, V])
	if !ok {
		// Both operands' roots are nodes, so every bulk combination of
		// them is too; a bare collision leaf here means a corrupt tree.
		invariantViolation("bulk operation produced a bare leaf at the root")
	}
	return m.withRoot(n)
}

// Equal reports whether m and other contain the same keys mapped to equal
// values, per valueEq. When other is a *Map it short-circuits on subtree
// reference equality, so two maps built by sharing structure (e.g. Put on
// top of a common ancestor) compare in time proportional to their
// differing prefix rather than their size; a foreign MapLike is compared
// by size and per-key lookup.
func (m *Map[K, V]) Equal(other MapLike[K, V], valueEq func(a, b V) bool) bool {
	if om, ok := other.(*Map[K, V]); ok {
		return equalNodes(m.rootNode(), om.rootNode(), m.eqFn, valueEq)
	}
	if m.Size() != other.Size() {
		return false
	}
	for k, v := range m.All() {
		ov, present := other.Lookup(k)
		if !present || !valueEq(v, ov) {
			return false
		}
	}
	return true
}
