// Package omap implements the ordered entry container shared by the
// archive types.
//
// Entries are keyed by a format-specific hash and carry an optional
// normalized name. Iteration order is a hard wire contract: TES4
// containers keep entries sorted ascending by their packed numeric hash,
// while TES3 and FO4 containers preserve insertion order. Equal hashes
// tie-break by insertion order in both modes.
package omap

import "sort"

// Entry is one hash-keyed slot of a Map.
type Entry[H comparable, V any] struct {
	Hash  H
	Name  string
	Value V
}

// Map is an ordered associative container keyed by hash.
type Map[H comparable, V any] struct {
	// numeric orders entries ascending when non-nil; nil preserves
	// insertion order.
	numeric func(H) uint64
	entries []Entry[H, V]
	index   map[H]int
}

// NewInsertionOrdered returns a map that iterates in insertion order.
func NewInsertionOrdered[H comparable, V any]() *Map[H, V] {
	return &Map[H, V]{index: make(map[H]int)}
}

// NewSorted returns a map that iterates ascending by numeric(hash).
func NewSorted[H comparable, V any](numeric func(H) uint64) *Map[H, V] {
	return &Map[H, V]{numeric: numeric, index: make(map[H]int)}
}

// Len returns the number of entries.
func (m *Map[H, V]) Len() int {
	return len(m.entries)
}

// At returns the entry at position i in iteration order.
func (m *Map[H, V]) At(i int) *Entry[H, V] {
	return &m.entries[i]
}

// Get returns the entry keyed by hash, or nil if absent.
func (m *Map[H, V]) Get(hash H) *Entry[H, V] {
	i, ok := m.index[hash]
	if !ok {
		return nil
	}

	return &m.entries[i]
}

// Insert adds or replaces the entry keyed by hash and reports whether an
// entry existed. Replacement keeps the original position; when the new
// name is empty the existing name is retained, so re-inserting by bare
// hash never erases a known name.
func (m *Map[H, V]) Insert(hash H, name string, value V) bool {
	if i, ok := m.index[hash]; ok {
		e := &m.entries[i]
		e.Value = value
		if name != "" {
			e.Name = name
		}

		return true
	}

	pos := len(m.entries)
	if m.numeric != nil {
		key := m.numeric(hash)
		pos = sort.Search(len(m.entries), func(i int) bool {
			return m.numeric(m.entries[i].Hash) > key
		})
	}

	m.entries = append(m.entries, Entry[H, V]{})
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = Entry[H, V]{Hash: hash, Name: name, Value: value}

	for h, i := range m.index {
		if i >= pos {
			m.index[h] = i + 1
		}
	}
	m.index[hash] = pos

	return false
}

// Delete removes the entry keyed by hash and reports whether it existed.
func (m *Map[H, V]) Delete(hash H) bool {
	pos, ok := m.index[hash]
	if !ok {
		return false
	}

	m.entries = append(m.entries[:pos], m.entries[pos+1:]...)
	delete(m.index, hash)
	for h, i := range m.index {
		if i > pos {
			m.index[h] = i - 1
		}
	}

	return true
}

// Clear removes all entries.
func (m *Map[H, V]) Clear() {
	m.entries = m.entries[:0]
	clear(m.index)
}
