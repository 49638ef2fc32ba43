// Package infomap implements the small tagged container used throughout
// the ML service core for configuration, event payloads, and catalog
// rows: a string -> (value, destroy?) mapping with type discrimination.
package infomap

import (
	"sync"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// Kind discriminates the three map variants. The discriminant is
// immutable after creation and is read without a lock.
type Kind int

const (
	Option Kind = iota
	Information
	InformationList
)

func (k Kind) String() string {
	switch k {
	case Option:
		return "option"
	case Information:
		return "information"
	case InformationList:
		return "information-list"
	default:
		return "unknown"
	}
}

// DestroyFunc releases a value when it is replaced or the map is torn down.
type DestroyFunc func(value interface{})

type entry struct {
	value   interface{}
	destroy DestroyFunc
}

// Map is an Option or Information container: an ordered-by-insertion,
// string-keyed mapping with per-value destructors.
type Map struct {
	kind Kind // immutable after New*; read without a lock by design.

	mu      sync.Mutex
	order   []string
	entries map[string]entry
}

// NewOption returns an empty Option map.
func NewOption() *Map { return newMap(Option) }

// NewInformation returns an empty Information map.
func NewInformation() *Map { return newMap(Information) }

func newMap(kind Kind) *Map {
	return &Map{kind: kind, entries: make(map[string]entry)}
}

// Kind returns the map's discriminant.
func (m *Map) Kind() Kind { return m.kind }

// CheckKind validates that m is non-nil and carries the expected kind -
// the runtime check the source performs via its magic-word discriminant.
func CheckKind(m *Map, want Kind) error {
	if m == nil {
		return mlerrors.New(mlerrors.InvalidParameter, "infomap.CheckKind", "map is nil")
	}
	if m.kind != want {
		return mlerrors.New(mlerrors.InvalidParameter, "infomap.CheckKind", "map has unexpected discriminant")
	}
	return nil
}

// Set stores value under key, replacing and destroying any prior value
// first (P2: last write wins, prior destructor runs exactly once).
func (m *Map) Set(key string, value interface{}, destroy DestroyFunc) error {
	if key == "" {
		return mlerrors.New(mlerrors.InvalidParameter, "infomap.Set", "key must not be empty")
	}
	m.mu.Lock()
	prior, existed := m.entries[key]
	m.entries[key] = entry{value: value, destroy: destroy}
	if !existed {
		m.order = append(m.order, key)
	}
	m.mu.Unlock()

	if existed && prior.destroy != nil {
		prior.destroy(prior.value)
	}
	return nil
}

// Get returns the value stored at key.
func (m *Map) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Delete removes key, running its destructor if set.
func (m *Map) Delete(key string) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok {
		delete(m.entries, key)
		for i, k := range m.order {
			if k == key {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()

	if ok && e.destroy != nil {
		e.destroy(e.value)
	}
}

// Destroy runs every value's destructor, in unspecified order, and
// empties the map.
func (m *Map) Destroy() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]entry)
	m.order = nil
	m.mu.Unlock()

	for _, e := range entries {
		if e.destroy != nil {
			e.destroy(e.value)
		}
	}
}

// List is an ordered, fixed-length sequence of Information maps.
type List struct {
	items []*Map
}

// NewList returns a List of length n, each slot an empty Information map.
// n must be positive.
func NewList(n int) (*List, error) {
	if n <= 0 {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "infomap.NewList", "length must be positive")
	}
	items := make([]*Map, n)
	for i := range items {
		items[i] = NewInformation()
	}
	return &List{items: items}, nil
}

// Length returns the list's fixed length.
func (l *List) Length() int { return len(l.items) }

// Get returns the Information map at index i.
func (l *List) Get(i int) (*Map, error) {
	if i < 0 || i >= len(l.items) {
		return nil, mlerrors.New(mlerrors.InvalidParameter, "infomap.List.Get", "index out of range")
	}
	return l.items[i], nil
}

// Destroy tears down every item in the list.
func (l *List) Destroy() {
	for _, m := range l.items {
		m.Destroy()
	}
}
