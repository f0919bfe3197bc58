// Package multimap provides an insertion-ordered map of keys to value lists.
package multimap

// Map associates each key with the values added for it, preserving the order
// keys were first seen and the order values were added.
type Map[K comparable, V any] struct {
	keys   []K
	values map[K][]V
}

// New returns an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{values: make(map[K][]V)}
}

// Add appends values under key.
func (m *Map[K, V]) Add(key K, values ...V) {
	if m.values == nil {
		m.values = make(map[K][]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], values...)
}

// Get returns the values stored for key.
func (m *Map[K, V]) Get(key K) []V {
	if m == nil {
		return nil
	}
	return m.values[key]
}

// Has reports whether key was ever added.
func (m *Map[K, V]) Has(key K) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Keys returns keys in first-insertion order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return append([]K(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone copies the map; value slices are copied, values are not.
func (m *Map[K, V]) Clone() *Map[K, V] {
	clone := New[K, V]()
	if m == nil {
		return clone
	}
	for _, key := range m.keys {
		clone.Add(key, m.values[key]...)
	}
	return clone
}
