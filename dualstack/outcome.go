package dualstack

import (
	"io"

	"dualnet/sock"
)

// Outcome holds the per-family results of a dial.  A successful dial
// always has at least one slot populated.
type Outcome[T any] struct {
	V4, V6       T
	HasV4, HasV6 bool
}

// Some4 returns an Outcome with only the IPv4 slot set.
func Some4[T any](v T) Outcome[T] { return Outcome[T]{V4: v, HasV4: true} }

// Some6 returns an Outcome with only the IPv6 slot set.
func Some6[T any](v T) Outcome[T] { return Outcome[T]{V6: v, HasV6: true} }

// First returns the IPv4 value if present, else the IPv6 value.
func (o Outcome[T]) First() (T, sock.Family, bool) {
	switch {
	case o.HasV4:
		return o.V4, sock.IPv4, true
	case o.HasV6:
		return o.V6, sock.IPv6, true
	}
	var zero T
	return zero, 0, false
}

// Len returns the number of populated slots.
func (o Outcome[T]) Len() int {
	n := 0
	if o.HasV4 {
		n++
	}
	if o.HasV6 {
		n++
	}
	return n
}

// Combine merges two per-family results.  Both succeeded: both slots.
// One succeeded: that slot, and the other error is dropped.  Both
// failed: the IPv4 error.
func Combine[T any](v4 T, err4 error, v6 T, err6 error) (Outcome[T], error) {
	switch {
	case err4 == nil && err6 == nil:
		return Outcome[T]{V4: v4, V6: v6, HasV4: true, HasV6: true}, nil
	case err4 == nil:
		return Some4(v4), nil
	case err6 == nil:
		return Some6(v6), nil
	}
	return Outcome[T]{}, err4
}

// CloseAll closes every populated slot and returns the first error.
func CloseAll[T io.Closer](o Outcome[T]) error {
	var first error
	if o.HasV4 {
		first = o.V4.Close()
	}
	if o.HasV6 {
		if err := o.V6.Close(); first == nil {
			first = err
		}
	}
	return first
}
