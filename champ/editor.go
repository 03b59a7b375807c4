package champ

// editor is an identity-only ownership token. Two tokens are equal iff
// they are the same object; the zero value is never issued, so a nil
// editor unambiguously means "no owner" (the node is shared/persistent).
//
// This is the same heap-allocated-sentinel trick the ctrie package used
// for its generation marker: the struct carries no meaningful content, only
// identity, which is exactly the property an ownership tag needs. It has a
// field because two distinct zero-size allocations may share an address.
type editor struct{ _ bool }

func newEditor() *editor {
	return &editor{}
}

// ownedBy reports whether ed may mutate a node/leaf tagged with owner
// in place. A nil ed (persistent caller) never owns anything.
func ownedBy(owner, ed *editor) bool {
	return ed != nil && owner == ed
}
