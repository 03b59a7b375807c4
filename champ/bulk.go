package champ

// bulk.go implements the three set-algebra operations over whole subtrees:
// Merge (union), Intersection, and Difference. Each works by descending two
// trees in lock-step, short-circuiting on reference equality (a subtree
// shared between both operands needs no further work) the same way
// node/leaf equality checks do in node.go.

// mergeBranch computes the union of a and b, calling mergeFn(valueFromA,
// valueFromB) whenever both sides hold the same key; a and b are assumed
// to sit at the same depth.
func mergeBranch[K, V any](depth int, a, b branch[K, V], mergeFn func(a, b V) V, eq func(K, K) bool, ed *editor) branch[K, V] {
	if a == b {
		return a
	}
	an, aIsNode := a.(*node[K, V])
	bn, bIsNode := b.(*node[K, V])
	switch {
	case aIsNode && bIsNode:
		return mergeNodes(depth, an, bn, mergeFn, eq, ed)
	case !aIsNode && !bIsNode:
		return mergeLeaves(a.(*leaf[K, V]), b.(*leaf[K, V]), mergeFn, eq, ed)
	default:
		// A node on one side and a leaf on the other only happens at
		// maxDepth, where a node never occurs — defensive fallback that
		// folds the leaf's entries into the node one at a time.
		if aIsNode {
			return foldLeafIntoNode(depth, an, b.(*leaf[K, V]), mergeFn, eq, ed)
		}
		return foldLeafIntoNode(depth, bn, a.(*leaf[K, V]), flip(mergeFn), eq, ed)
	}
}

func flip[V any](f func(a, b V) V) func(a, b V) V {
	return func(a, b V) V { return f(b, a) }
}

func foldLeafIntoNode[K, V any](depth int, n *node[K, V], l *leaf[K, V], mergeFn func(a, b V) V, eq func(K, K) bool, ed *editor) branch[K, V] {
	for _, e := range l.entries {
		next, _ := n.put(depth, e.hash, e.key, e.value, mergeFn, eq, ed)
		n = next
	}
	return n
}

// mergeLeaves folds b's colliding entries into a. The put sees a's value
// as old and b's as new, which is already mergeFn's self-then-other
// argument order.
func mergeLeaves[K, V any](a, b *leaf[K, V], mergeFn func(x, y V) V, eq func(K, K) bool, ed *editor) *leaf[K, V] {
	out := a
	for _, be := range b.entries {
		next, _ := out.put(be.key, be.value, be.hash, mergeFn, eq, ed)
		out = next.(*leaf[K, V])
	}
	return out
}

// mergeNodes merges two node-level subtrees slot by slot. a is the
// logical "base": where a slot is only present in one operand it is
// copied across untouched, and where both sides hold the same key
// mergeFn is called with a's value first, preserving the caller-facing
// Merge(other, mergeFn) contract of mergeFn(selfValue, otherValue).
func mergeNodes[K, V any](depth int, a, b *node[K, V], mergeFn func(x, y V) V, eq func(K, K) bool, ed *editor) *node[K, V] {
	if a == b {
		return a
	}
	// every bit touched, as data or as a child, by either side
	combined := a.dataMap | a.nodeMap | b.dataMap | b.nodeMap

	builder := newNodeBuilder[K, V](ed)
	for bitpos := uint32(1); bitpos != 0; bitpos <<= 1 {
		if combined&bitpos == 0 {
			continue
		}
		as := a.slotAt(bitpos)
		bs := b.slotAt(bitpos)
		switch {
		case as.kind == slotEmpty:
			builder.addSlot(bitpos, bs)
		case bs.kind == slotEmpty:
			builder.addSlot(bitpos, as)
		case as.kind == slotEntry && bs.kind == slotEntry:
			if eq(as.entry.key, bs.entry.key) {
				merged := mergeFn(as.entry.value, bs.entry.value)
				builder.addSlot(bitpos, slot[K, V]{kind: slotEntry, entry: entry[K, V]{key: as.entry.key, value: merged, hash: as.entry.hash}})
			} else {
				child := buildSubtree(depth+1, as.entry, bs.entry, ed)
				builder.addSlot(bitpos, slot[K, V]{kind: slotChild, child: child})
			}
		case as.kind == slotEntry:
			// entry in a, child in b: fold a's single entry into b's
			// subtree, keeping mergeFn's argument order a-then-b by
			// flipping it for the insert (which naturally calls
			// mergeFn(fromB, fromA)).
			child, _ := putBranch(bs.child, depth+1, as.entry.hash, as.entry.key, as.entry.value, flip(mergeFn), eq, ed)
			builder.addSlot(bitpos, slot[K, V]{kind: slotChild, child: child})
		case bs.kind == slotEntry:
			child, _ := putBranch(as.child, depth+1, bs.entry.hash, bs.entry.key, bs.entry.value, mergeFn, eq, ed)
			builder.addSlot(bitpos, slot[K, V]{kind: slotChild, child: child})
		default:
			child := mergeBranch(depth+1, as.child, bs.child, mergeFn, eq, ed)
			builder.addSlot(bitpos, slot[K, V]{kind: slotChild, child: child})
		}
	}
	return builder.build()
}

// intersectBranch keeps only keys present in both a and b, applying
// mergeFn(valueFromA, valueFromB) to compute the kept value.
func intersectBranch[K, V any](depth int, a, b branch[K, V], mergeFn func(a, b V) V, eq func(K, K) bool, ed *editor) branch[K, V] {
	if a == b {
		return a
	}
	an, aIsNode := a.(*node[K, V])
	bn, bIsNode := b.(*node[K, V])
	switch {
	case aIsNode && bIsNode:
		return intersectNodes(depth, an, bn, mergeFn, eq, ed)
	case !aIsNode && !bIsNode:
		return intersectLeaves(a.(*leaf[K, V]), b.(*leaf[K, V]), mergeFn, eq)
	case aIsNode:
		return intersectNodeWithLeaf(depth, an, b.(*leaf[K, V]), mergeFn, eq)
	default:
		return intersectNodeWithLeaf(depth, bn, a.(*leaf[K, V]), flip(mergeFn), eq)
	}
}

func intersectNodeWithLeaf[K, V any](depth int, n *node[K, V], l *leaf[K, V], mergeFn func(a, b V) V, eq func(K, K) bool) branch[K, V] {
	var kept []entry[K, V]
	for _, e := range l.entries {
		if v, ok := n.lookup(depth, e.hash, e.key, eq); ok {
			kept = append(kept, entry[K, V]{key: e.key, value: mergeFn(v, e.value), hash: e.hash})
		}
	}
	if len(kept) == 0 {
		return emptyBranch[K, V]()
	}
	return newLeaf(l.hash, kept, nil)
}

func intersectLeaves[K, V any](a, b *leaf[K, V], mergeFn func(x, y V) V, eq func(K, K) bool) branch[K, V] {
	var kept []entry[K, V]
	for _, ae := range a.entries {
		if v, ok := b.lookup(ae.key, eq); ok {
			kept = append(kept, entry[K, V]{key: ae.key, value: mergeFn(ae.value, v), hash: ae.hash})
		}
	}
	if len(kept) == 0 {
		return emptyBranch[K, V]()
	}
	return newLeaf(a.hash, kept, nil)
}

func intersectNodes[K, V any](depth int, a, b *node[K, V], mergeFn func(x, y V) V, eq func(K, K) bool, ed *editor) branch[K, V] {
	if a == b {
		return a
	}
	builder := newNodeBuilder[K, V](ed)
	shared := (a.dataMap | a.nodeMap) & (b.dataMap | b.nodeMap)
	for bitpos := uint32(1); bitpos != 0; bitpos <<= 1 {
		if shared&bitpos == 0 {
			continue
		}
		as := a.slotAt(bitpos)
		bs := b.slotAt(bitpos)
		switch {
		case as.kind == slotEntry && bs.kind == slotEntry:
			if eq(as.entry.key, bs.entry.key) {
				merged := mergeFn(as.entry.value, bs.entry.value)
				builder.addSlot(bitpos, slot[K, V]{kind: slotEntry, entry: entry[K, V]{key: as.entry.key, value: merged, hash: as.entry.hash}})
			}
		case as.kind == slotEntry:
			if v, ok := lookupBranch[K, V](bs.child, depth+1, as.entry.hash, as.entry.key, eq); ok {
				merged := mergeFn(as.entry.value, v)
				builder.addSlot(bitpos, slot[K, V]{kind: slotEntry, entry: entry[K, V]{key: as.entry.key, value: merged, hash: as.entry.hash}})
			}
		case bs.kind == slotEntry:
			if v, ok := lookupBranch[K, V](as.child, depth+1, bs.entry.hash, bs.entry.key, eq); ok {
				merged := mergeFn(v, bs.entry.value)
				builder.addSlot(bitpos, slot[K, V]{kind: slotEntry, entry: entry[K, V]{key: bs.entry.key, value: merged, hash: bs.entry.hash}})
			}
		default:
			builder.addChild(bitpos, intersectBranch(depth+1, as.child, bs.child, mergeFn, eq, ed))
		}
	}
	return builder.build()
}

func lookupBranch[K, V any](b branch[K, V], depth int, hash uint32, key K, eq func(K, K) bool) (V, bool) {
	switch c := b.(type) {
	case *node[K, V]:
		return c.lookup(depth, hash, key, eq)
	case *leaf[K, V]:
		return c.lookup(key, eq)
	default:
		invariantViolation("unknown branch type %T", b)
		var zero V
		return zero, false
	}
}

// differenceBranch keeps only keys in a that are absent from b.
func differenceBranch[K, V any](depth int, a, b branch[K, V], eq func(K, K) bool, ed *editor) branch[K, V] {
	if a == b {
		return emptyBranch[K, V]()
	}
	an, aIsNode := a.(*node[K, V])
	bn, bIsNode := b.(*node[K, V])
	switch {
	case aIsNode && bIsNode:
		return differenceNodes(depth, an, bn, eq, ed)
	case !aIsNode && !bIsNode:
		return differenceLeaves(a.(*leaf[K, V]), b.(*leaf[K, V]), eq)
	case aIsNode:
		return differenceNodeFromLeaf(depth, an, b.(*leaf[K, V]), eq)
	default:
		return differenceLeafFromNode(depth, bn, a.(*leaf[K, V]), eq)
	}
}

func differenceLeafFromNode[K, V any](depth int, n *node[K, V], l *leaf[K, V], eq func(K, K) bool) branch[K, V] {
	var kept []entry[K, V]
	for _, e := range l.entries {
		if _, ok := n.lookup(depth, e.hash, e.key, eq); !ok {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return emptyBranch[K, V]()
	}
	return newLeaf(l.hash, kept, nil)
}

func differenceNodeFromLeaf[K, V any](depth int, n *node[K, V], l *leaf[K, V], eq func(K, K) bool) branch[K, V] {
	out := n
	for _, e := range l.entries {
		newN, _, removed := out.remove(depth, e.hash, e.key, eq)
		if removed {
			out = newN
		}
	}
	if out.size == 0 {
		return emptyBranch[K, V]()
	}
	return out
}

func differenceLeaves[K, V any](a, b *leaf[K, V], eq func(K, K) bool) branch[K, V] {
	var kept []entry[K, V]
	for _, e := range a.entries {
		if _, ok := b.lookup(e.key, eq); !ok {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return emptyBranch[K, V]()
	}
	return newLeaf(a.hash, kept, nil)
}

func differenceNodes[K, V any](depth int, a, b *node[K, V], eq func(K, K) bool, ed *editor) branch[K, V] {
	if a == b {
		return emptyBranch[K, V]()
	}
	builder := newNodeBuilder[K, V](ed)
	for bitpos := uint32(1); bitpos != 0; bitpos <<= 1 {
		as := a.slotAt(bitpos)
		if as.kind == slotEmpty {
			continue
		}
		bs := b.slotAt(bitpos)
		switch {
		case bs.kind == slotEmpty:
			builder.addSlot(bitpos, as)
		case as.kind == slotEntry && bs.kind == slotEntry:
			if !eq(as.entry.key, bs.entry.key) {
				builder.addSlot(bitpos, as)
			}
		case as.kind == slotEntry:
			if _, ok := lookupBranch[K, V](bs.child, depth+1, as.entry.hash, as.entry.key, eq); !ok {
				builder.addSlot(bitpos, as)
			}
		case bs.kind == slotEntry:
			builder.addChild(bitpos, differenceBranch[K, V](depth+1, as.child, emptyLeafHolder(bs.entry), eq, ed))
		default:
			builder.addChild(bitpos, differenceBranch[K, V](depth+1, as.child, bs.child, eq, ed))
		}
	}
	return builder.build()
}

// emptyLeafHolder wraps a single entry from the "subtrahend" side as a
// one-element leaf so differenceBranch's node/leaf dispatch can subtract a
// lone b-side entry from a whole a-side subtree without a separate case.
func emptyLeafHolder[K, V any](e entry[K, V]) branch[K, V] {
	return newLeaf(e.hash, []entry[K, V]{e}, nil)
}

// emptyBranch returns a canonical empty node, used as the "nothing survived"
// result of an intersection or difference so callers can uniformly check
// branchSize() == 0 rather than distinguish a nil case.
func emptyBranch[K, V any]() branch[K, V] {
	return &node[K, V]{}
}

// nodeBuilder accumulates slots (in ascending bit order) into the
// dataMap/nodeMap + entries/children representation a node expects,
// handling the entries-ascending / children-descending storage
// convention described in node.go.
type nodeBuilder[K, V any] struct {
	editor   *editor
	dataMap  uint32
	nodeMap  uint32
	entries  []entry[K, V]
	children []branch[K, V]
	size     int
}

func newNodeBuilder[K, V any](ed *editor) *nodeBuilder[K, V] {
	return &nodeBuilder[K, V]{editor: ed}
}

func (b *nodeBuilder[K, V]) addSlot(bitpos uint32, s slot[K, V]) {
	switch s.kind {
	case slotEntry:
		b.dataMap |= bitpos
		b.entries = append(b.entries, s.entry)
		b.size++
	case slotChild:
		b.nodeMap |= bitpos
		b.children = append(b.children, s.child)
		b.size += s.child.branchSize()
	}
}

// addChild adds a subtree produced by a recursive intersection or
// difference, re-applying the contraction invariant on the way up: an
// empty result contributes nothing, and a node whose subtree shrank to a
// single entry is inlined as a data slot instead of kept as a child. A
// one-entry collision leaf stays a child, matching how remove treats
// leaves.
func (b *nodeBuilder[K, V]) addChild(bitpos uint32, c branch[K, V]) {
	if c.branchSize() == 0 {
		return
	}
	if n, ok := c.(*node[K, V]); ok && n.size == 1 {
		b.addSlot(bitpos, slot[K, V]{kind: slotEntry, entry: n.soleEntry()})
		return
	}
	b.addSlot(bitpos, slot[K, V]{kind: slotChild, child: c})
}

// build finalizes the node, reversing the children slice (collected in
// ascending-bit order by addSlot) into the descending-bit storage order
// nodeIndexFor expects.
func (b *nodeBuilder[K, V]) build() *node[K, V] {
	n := len(b.children)
	rev := make([]branch[K, V], n)
	for i, c := range b.children {
		rev[n-1-i] = c
	}
	return &node[K, V]{
		dataMap:  b.dataMap,
		nodeMap:  b.nodeMap,
		entries:  b.entries,
		children: rev,
		size:     b.size,
		editor:   b.editor,
	}
}
