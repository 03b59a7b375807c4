// Package gatomic provides generic wrappers around sync/atomic's pointer
// operations, typed over champ's node/root pointers instead of
// unsafe.Pointer, so a Map's root can be published and read across
// goroutines per the standard publication guarantee (spec.md §5) without
// every call site doing its own unsafe.Pointer casting.
package gatomic

import (
	"sync/atomic"
	"unsafe"
)

// LoadPointer atomically loads *addr.
func LoadPointer[T any](addr **T) *T {
	return (*T)(atomic.LoadPointer((*unsafe.Pointer)(unsafe.Pointer(addr))))
}

// StorePointer atomically stores val into *addr.
func StorePointer[T any](addr **T, val *T) {
	atomic.StorePointer((*unsafe.Pointer)(unsafe.Pointer(addr)), unsafe.Pointer(val))
}
