// defines the data structures shared by the cache, corpus and fetch packages
package models

import "sort"

// --- Label Structures ---

// Label is an opaque classification identifier. Its canonical order is the
// byte-wise order of the string.
type Label string

// LabelSet is an unordered set of labels.
type LabelSet map[Label]struct{}

// NewLabelSet creates a set holding the given labels.
func NewLabelSet(labels ...Label) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Add inserts a label into the set.
func (s LabelSet) Add(l Label) {
	s[l] = struct{}{}
}

// Has reports whether the label is in the set.
func (s LabelSet) Has(l Label) bool {
	_, ok := s[l]
	return ok
}

// Sorted returns the labels in canonical order.
func (s LabelSet) Sorted() []Label {
	out := make([]Label, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	SortLabels(out)
	return out
}

// Clone returns an independent copy of the set.
func (s LabelSet) Clone() LabelSet {
	out := make(LabelSet, len(s))
	for l := range s {
		out[l] = struct{}{}
	}
	return out
}

// SortLabels sorts labels in canonical order, in place.
func SortLabels(labels []Label) {
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
}

// --- Payload Structures ---

// Array is a dense float32 tensor in row-major order.
// An array without elements is the "empty" array, used as the negative
// cache marker.
type Array struct {
	Shape []int     `msgpack:"shape"`
	Data  []float32 `msgpack:"data"`
}

// EmptyArray returns the empty array.
func EmptyArray() Array {
	return Array{}
}

// IsEmpty reports whether the array holds no elements.
func (a Array) IsEmpty() bool {
	return len(a.Data) == 0
}

// Len returns the number of elements implied by the shape.
func (a Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Equal reports whether two arrays have the same shape and elements.
func (a Array) Equal(b Array) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() == b.IsEmpty()
	}
	if len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// --- Sample Structures ---

// Sample pairs a fetched payload with its one-hot label vector.
type Sample struct {
	Item     string
	Features Array
	Labels   []float32
}
