package model

import (
	"errors"
	"fmt"
)

// MaxDomainSize bounds how many values a single domain may enumerate.
const MaxDomainSize = 10000

var (
	// ErrInvalidRange is returned when a range's lower bound exceeds its upper bound.
	ErrInvalidRange = errors.New("invalid value range")

	// ErrDomainTooLarge is returned when adding values would exceed MaxDomainSize.
	ErrDomainTooLarge = errors.New("value domain too large")
)

// Domain is an ordered set of admissible values. Order is significant: the
// population generator draws values in sequence, so intersections keep the
// receiver's order and duplicates are ignored.
type Domain struct {
	values []Value
	index  map[Value]struct{}
}

// NewDomain creates a domain holding vals in order.
func NewDomain(vals ...Value) *Domain {
	d := &Domain{index: make(map[Value]struct{}, len(vals))}
	for _, v := range vals {
		d.Add(v)
	}
	return d
}

// Add appends v unless it is already present. Reports whether v was added.
func (d *Domain) Add(v Value) bool {
	if d.index == nil {
		d.index = make(map[Value]struct{})
	}
	if _, ok := d.index[v]; ok {
		return false
	}
	d.index[v] = struct{}{}
	d.values = append(d.values, v)
	return true
}

// AddRange appends every integer in the closed interval [lo, hi].
func (d *Domain) AddRange(lo, hi int64) error {
	if lo > hi {
		return fmt.Errorf("%w: %d..%d", ErrInvalidRange, lo, hi)
	}
	if hi-lo+1+int64(d.Len()) > MaxDomainSize {
		return fmt.Errorf("%w: %d..%d exceeds %d values", ErrDomainTooLarge, lo, hi, MaxDomainSize)
	}
	for i := lo; i <= hi; i++ {
		d.Add(IntValue(i))
	}
	return nil
}

// Len returns the number of values.
func (d *Domain) Len() int {
	if d == nil {
		return 0
	}
	return len(d.values)
}

// Values returns a copy of the values in order.
func (d *Domain) Values() []Value {
	if d == nil {
		return nil
	}
	out := make([]Value, len(d.values))
	copy(out, d.values)
	return out
}

// Contains reports whether v is admitted.
func (d *Domain) Contains(v Value) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[v]
	return ok
}

// Clone returns an independent copy.
func (d *Domain) Clone() *Domain {
	if d == nil {
		return nil
	}
	return NewDomain(d.values...)
}

// Intersect returns the values of d also in other, in d's order.
func (d *Domain) Intersect(other *Domain) *Domain {
	out := NewDomain()
	for _, v := range d.Values() {
		if other.Contains(v) {
			out.Add(v)
		}
	}
	return out
}

// Difference returns the values of d not in other, in d's order.
func (d *Domain) Difference(other *Domain) *Domain {
	out := NewDomain()
	for _, v := range d.Values() {
		if !other.Contains(v) {
			out.Add(v)
		}
	}
	return out
}

// PreferFirst returns d reordered so the values shared with first come
// first (in first's order), followed by the remaining values of d in d's
// order.
func (d *Domain) PreferFirst(first *Domain) *Domain {
	out := NewDomain()
	for _, v := range first.Values() {
		if d.Contains(v) {
			out.Add(v)
		}
	}
	for _, v := range d.Values() {
		out.Add(v)
	}
	return out
}

// Equal reports whether both domains hold the same values in the same order.
func (d *Domain) Equal(other *Domain) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i, v := range d.Values() {
		if other.values[i] != v {
			return false
		}
	}
	return true
}

// String renders the domain as {a, b, c}.
func (d *Domain) String() string {
	s := "{"
	for i, v := range d.Values() {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s + "}"
}
