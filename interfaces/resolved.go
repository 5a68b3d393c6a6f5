package interfaces

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Resolved holds either a present registry value or the absent marker.
// The registry stores the zero value for names that were never registered,
// so a zero value is always reported as absent.
type Resolved[T comparable] struct {
	value   T
	present bool
}

// ResolvedAddress is the result of an address or owner lookup.
type ResolvedAddress = Resolved[common.Address]

// ResolvedHash is the result of a bytes32 data lookup.
type ResolvedHash = Resolved[common.Hash]

// ResolvedName is the result of a reverse lookup.
type ResolvedName = Resolved[string]

// Present wraps v as a registry hit. A zero v yields the absent marker.
func Present[T comparable](v T) Resolved[T] {
	var zero T
	if v == zero {
		return Resolved[T]{}
	}
	return Resolved[T]{value: v, present: true}
}

// Absent returns the marker for a name with no registry entry.
func Absent[T comparable]() Resolved[T] {
	return Resolved[T]{}
}

// Value returns the resolved value and whether it is present.
func (r Resolved[T]) Value() (T, bool) {
	return r.value, r.present
}

// IsAbsent reports whether the registry had no entry.
func (r Resolved[T]) IsAbsent() bool {
	return !r.present
}

// String returns the value's string form, or "absent".
func (r Resolved[T]) String() string {
	if !r.present {
		return "absent"
	}
	return fmt.Sprint(r.value)
}
