package frontmatter

import "slices"

// Metadata is an ordered key-value map. Keys are unique and keep the order
// in which they were first set.
type Metadata struct {
	keys   []string
	values map[string]Value
}

// New returns an empty Metadata.
func New() *Metadata {
	return &Metadata{values: make(map[string]Value)}
}

// Set stores v under key. A new key is appended; an existing key keeps its position.
func (m *Metadata) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key if present.
func (m *Metadata) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Strings returns the value under key as a list of strings. A missing key
// yields nil.
func (m *Metadata) Strings(key string) []string {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	return v.Items()
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	out := New()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		v := m.values[k]
		v.items = slices.Clone(v.items)
		out.Set(k, v)
	}
	return out
}

// Equal reports whether m and o hold the same keys, in the same order, with equal values.
func (m *Metadata) Equal(o *Metadata) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for i, k := range m.keys {
		if o.keys[i] != k {
			return false
		}
		if !m.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}
