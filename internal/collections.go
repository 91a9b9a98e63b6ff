package internal

import (
	"cmp"
	"slices"
)

// Set is a generic data structure that represents a collection of unique items.
// It uses a map internally for O(1) operations.
type Set[T comparable] struct {
	items map[T]struct{}
}

// NewSet creates and returns a new Set holding the given items.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{
		items: make(map[T]struct{}, len(items)),
	}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts an item into the set. If the item already exists, it has no effect.
func (s *Set[T]) Add(item T) {
	s.items[item] = struct{}{}
}

// Contains checks if an item exists in the set.
func (s *Set[T]) Contains(item T) bool {
	_, exists := s.items[item]
	return exists
}

// Size returns the number of items in the set.
func (s *Set[T]) Size() int {
	return len(s.items)
}

// OrderedSet keeps unique items in first-insertion order.
type OrderedSet[T comparable] struct {
	seen  map[T]struct{}
	items []T
}

func NewOrderedSet[T comparable](items ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{seen: make(map[T]struct{}, len(items))}
	s.Add(items...)
	return s
}

// Add appends items not seen before.
func (s *OrderedSet[T]) Add(items ...T) {
	for _, item := range items {
		if _, ok := s.seen[item]; ok {
			continue
		}
		s.seen[item] = struct{}{}
		s.items = append(s.items, item)
	}
}

func (s *OrderedSet[T]) Contains(item T) bool {
	_, ok := s.seen[item]
	return ok
}

func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Slice returns a copy of the items in insertion order. It never returns nil.
func (s *OrderedSet[T]) Slice() []T {
	return append(make([]T, 0, len(s.items)), s.items...)
}

// uniqueInOrder drops duplicates while keeping the first occurrence.
func uniqueInOrder[T comparable](items []T) []T {
	return NewOrderedSet(items...).Slice()
}

// sortedUnique returns the distinct items in ascending order. It never returns nil.
func sortedUnique[T cmp.Ordered](items []T) []T {
	out := make([]T, 0, len(items))
	out = append(out, items...)
	slices.Sort(out)
	return slices.Compact(out)
}

// MapKeys extracts all keys from a map and returns them as a slice.
// The order of keys is non-deterministic due to map iteration.
func MapKeys[K comparable, V any](m map[K]V) []K {
	if m == nil {
		return []K{}
	}
	keys := make([]K, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}
