package champ

import (
	"math/bits"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestMapPutAndLookup(t *testing.T) {
	c := qt.New(t)
	m := New[string, string]()

	_, ok := m.Lookup("foo")
	c.Assert(ok, qt.IsFalse)

	m2 := m.Put("foo", "bar")
	c.Assert(m.Contains("foo"), qt.IsFalse, qt.Commentf("persistent Put must not mutate the receiver"))
	val, ok := m2.Lookup("foo")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, "bar")

	m3 := m2.Put("fooooo", "baz")
	val, ok = m3.Lookup("foo")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, "bar")
	val, ok = m3.Lookup("fooooo")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, "baz")
}

func TestMapPutManyAndLookup(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]()
	for i := 0; i < 200; i++ {
		m = m.Put(strconv.Itoa(i), i)
	}
	c.Assert(m.Size(), qt.Equals, 200)
	for i := 0; i < 200; i++ {
		val, ok := m.Lookup(strconv.Itoa(i))
		c.Assert(ok, qt.IsTrue)
		c.Assert(val, qt.Equals, i)
	}
	_, ok := m.Lookup("not-there")
	c.Assert(ok, qt.IsFalse)
}

func TestMapPutOverwrite(t *testing.T) {
	c := qt.New(t)
	m := New[string, string]().Put("foo", "bar")
	m2 := m.Put("foo", "qux")
	val, _ := m2.Lookup("foo")
	c.Assert(val, qt.Equals, "qux")
	val, _ = m.Lookup("foo")
	c.Assert(val, qt.Equals, "bar", qt.Commentf("Put on a persistent Map must not alter the receiver's view"))
}

func TestMapRemove(t *testing.T) {
	c := qt.New(t)
	m := New[string, string]().Put("foo", "bar").Put("fooooo", "baz")

	m2, val, ok := m.Remove("foo")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, "bar")
	c.Assert(m2.Contains("foo"), qt.IsFalse)
	c.Assert(m.Contains("foo"), qt.IsTrue, qt.Commentf("Remove on a persistent Map must not alter the receiver"))

	_, _, ok = m2.Remove("foo")
	c.Assert(ok, qt.IsFalse)

	m3, val, ok := m2.Remove("fooooo")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, "baz")
	c.Assert(m3.Size(), qt.Equals, 0)
}

func TestMapRemoveManyThenRebuild(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]()
	for i := 0; i < 500; i++ {
		m = m.Put(strconv.Itoa(i), i)
	}
	for i := 0; i < 250; i++ {
		var ok bool
		m, _, ok = m.Remove(strconv.Itoa(i))
		c.Assert(ok, qt.IsTrue)
	}
	for i := 0; i < 500; i++ {
		m = m.Put(strconv.Itoa(i), i)
	}
	c.Assert(m.Size(), qt.Equals, 500)
	for i := 0; i < 500; i++ {
		val, ok := m.Lookup(strconv.Itoa(i))
		c.Assert(ok, qt.IsTrue)
		c.Assert(val, qt.Equals, i)
	}
}

func TestMapHashCollisions(t *testing.T) {
	c := qt.New(t)
	// A constant hash function forces every key into the same collision
	// leaf at maxDepth, exercising leaf put/remove/lookup exclusively.
	m := NewWithFuncs[string, int](func(a, b string) bool { return a == b }, func(string) uint32 { return 0 })
	for i := 0; i < 10; i++ {
		m = m.Put(strconv.Itoa(i), i)
	}
	for i := 0; i < 10; i++ {
		val, ok := m.Lookup(strconv.Itoa(i))
		c.Assert(ok, qt.IsTrue)
		c.Assert(val, qt.Equals, i)
	}
	_, ok := m.Lookup("11")
	c.Assert(ok, qt.IsFalse)

	for i := 0; i < 10; i++ {
		var val int
		m, val, ok = m.Remove(strconv.Itoa(i))
		c.Assert(ok, qt.IsTrue)
		c.Assert(val, qt.Equals, i)
	}
	c.Assert(m.Size(), qt.Equals, 0)
}

func TestNewWithFuncsMixesHash(t *testing.T) {
	c := qt.New(t)
	// A hash with entropy only in the top byte: without the mixer every
	// key would route through fragment 0 at the first several levels.
	raw := func(k uint32) uint32 { return k << 24 }
	m := NewWithFuncs[uint32, int](func(a, b uint32) bool { return a == b }, raw)

	c.Assert(m.hashFn(5), qt.Equals, mix32(raw(5)))

	for i := uint32(0); i < 8; i++ {
		m = m.Put(i, int(i))
	}
	root := m.rootNode()
	c.Assert(bits.OnesCount32(root.dataMap|root.nodeMap) > 1, qt.IsTrue,
		qt.Commentf("mixed hashes must fan out across the root's slots"))
}

func TestMapGetOr(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]().Put("a", 1)
	c.Assert(m.GetOr("a", -1), qt.Equals, 1)
	c.Assert(m.GetOr("missing", -1), qt.Equals, -1)
}

func TestMapPutWith(t *testing.T) {
	c := qt.New(t)
	add := func(old, new int) int { return old + new }

	m := New[string, int]().PutWith("n", 1, add)
	m = m.PutWith("n", 2, add)
	m = m.PutWith("n", 3, add)
	val, ok := m.Lookup("n")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, 6)

	// A merge that keeps the old value must be a no-op returning the
	// receiver itself, not a fresh equal map.
	keepOld := func(old, _ int) int { return old }
	m2 := m.PutWith("n", 99, keepOld)
	c.Assert(m2, qt.Equals, m)
}

func TestMapUpdate(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]()
	inc := func(old int, had bool) int {
		if !had {
			return 1
		}
		return old + 1
	}
	m = m.Update("count", inc)
	m = m.Update("count", inc)
	m = m.Update("count", inc)
	val, ok := m.Lookup("count")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, 3)
}

func TestMapForEachStopsEarly(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]()
	for i := 0; i < 20; i++ {
		m = m.Put(strconv.Itoa(i), i)
	}
	seen := 0
	m.ForEach(func(string, int) bool {
		seen++
		return seen < 5
	})
	c.Assert(seen, qt.Equals, 5)
}

func TestMapAllKeysValues(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]()
	want := map[string]int{}
	for i := 0; i < 50; i++ {
		k := strconv.Itoa(i)
		m = m.Put(k, i)
		want[k] = i
	}

	got := map[string]int{}
	for k, v := range m.All() {
		got[k] = v
	}
	c.Assert(got, qt.DeepEquals, want)

	keySet := map[string]bool{}
	for k := range m.Keys() {
		keySet[k] = true
	}
	c.Assert(len(keySet), qt.Equals, len(want))

	sum := 0
	for v := range m.Values() {
		sum += v
	}
	wantSum := 0
	for _, v := range want {
		wantSum += v
	}
	c.Assert(sum, qt.Equals, wantSum)
}

func TestMapIterator(t *testing.T) {
	c := qt.New(t)
	m := New[string, int]()
	for i := 0; i < 30; i++ {
		m = m.Put(strconv.Itoa(i), i)
	}
	seen := map[string]int{}
	it := m.Iterator()
	for it.Next() {
		seen[it.Key()] = it.Value()
	}
	c.Assert(len(seen), qt.Equals, 30)
}

func TestMapLinearAndForked(t *testing.T) {
	c := qt.New(t)
	base := New[string, int]().Put("a", 1).Put("b", 2)

	trans := base.Linear()
	trans = trans.Put("c", 3)
	trans = trans.Put("d", 4)

	c.Assert(base.Size(), qt.Equals, 2, qt.Commentf("editing a transient view must not affect the persistent base"))

	persisted := trans.Forked()
	c.Assert(persisted.Size(), qt.Equals, 4)
	val, ok := persisted.Lookup("c")
	c.Assert(ok, qt.IsTrue)
	c.Assert(val, qt.Equals, 3)
}

func TestMapCloneTransient(t *testing.T) {
	c := qt.New(t)
	base := New[string, int]().Put("a", 1).Linear()
	clone := base.Clone()

	base = base.Put("b", 2)
	clone = clone.Put("c", 3)

	c.Assert(base.Contains("c"), qt.IsFalse, qt.Commentf("two transient clones must not see each other's edits"))
	c.Assert(clone.Contains("b"), qt.IsFalse)
}

func TestMapCloneTransientOwnedStructure(t *testing.T) {
	c := qt.New(t)
	// Build transiently first so the shared nodes are owned by the
	// receiver's editor at the moment of the Clone; neither handle may
	// edit them in place afterwards.
	m := New[int, int]().Linear()
	for i := 0; i < 200; i++ {
		m = m.Put(i, i)
	}
	clone := m.Clone()

	m = m.Put(0, 999)
	v, ok := clone.Lookup(0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 0, qt.Commentf("mutating the original transient must not reach structure shared with its clone"))

	clone = clone.Put(1, 888)
	v, _ = m.Lookup(1)
	c.Assert(v, qt.Equals, 1)
}

func TestMapEqual(t *testing.T) {
	c := qt.New(t)
	a := New[string, int]()
	b := New[string, int]()
	for i := 0; i < 40; i++ {
		a = a.Put(strconv.Itoa(i), i)
		b = b.Put(strconv.Itoa(i), i)
	}
	c.Assert(a.Equal(b, func(x, y int) bool { return x == y }), qt.IsTrue)

	b = b.Put("0", 999)
	c.Assert(a.Equal(b, func(x, y int) bool { return x == y }), qt.IsFalse)
}
