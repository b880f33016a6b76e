package graph

import "slices"

// IdMap is an associative container mapping integer ids to elements.
// Ids are kept sorted in a slice parallel to the elements so lookups are
// O(log n) binary searches and insertions/erasures are O(n) shifts.
// Iteration is always in ascending id order regardless of insertion order.
type IdMap[T any] struct {
	ids   []int
	elems []T
}

// Insert adds elem under id. If id is already present the map is left untouched
// and inserted is false. idx is the position of id in ascending order.
func (m *IdMap[T]) Insert(id int, elem T) (idx int, inserted bool) {
	idx, found := slices.BinarySearch(m.ids, id)
	if found {
		return idx, false
	}
	m.ids = slices.Insert(m.ids, idx, id)
	m.elems = slices.Insert(m.elems, idx, elem)
	return idx, true
}

// Erase removes id and returns 1, or 0 if id was absent.
func (m *IdMap[T]) Erase(id int) int {
	idx, found := slices.BinarySearch(m.ids, id)
	if !found {
		return 0
	}
	m.ids = slices.Delete(m.ids, idx, idx+1)
	m.elems = slices.Delete(m.elems, idx, idx+1)
	return 1
}

// Find returns the position of id in ascending order.
func (m *IdMap[T]) Find(id int) (idx int, ok bool) {
	return slices.BinarySearch(m.ids, id)
}

func (m *IdMap[T]) Contains(id int) bool {
	_, ok := slices.BinarySearch(m.ids, id)
	return ok
}

// Get returns a copy of the element stored under id.
func (m *IdMap[T]) Get(id int) (elem T, ok bool) {
	idx, ok := slices.BinarySearch(m.ids, id)
	if ok {
		elem = m.elems[idx]
	}
	return elem, ok
}

// Ptr returns a pointer to the element stored under id or nil if absent.
// The pointer is invalidated by the next Insert or Erase.
func (m *IdMap[T]) Ptr(id int) *T {
	idx, ok := slices.BinarySearch(m.ids, id)
	if !ok {
		return nil
	}
	return &m.elems[idx]
}

func (m *IdMap[T]) Len() int { return len(m.ids) }

// IDs returns the stored ids in ascending order. The slice must not be modified.
func (m *IdMap[T]) IDs() []int { return m.ids }

// Elements returns the stored elements in ascending id order. The slice must not be resized.
func (m *IdMap[T]) Elements() []T { return m.elems }
