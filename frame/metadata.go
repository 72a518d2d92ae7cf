package frame

import "sync/atomic"

// Metadata is a reference-counted property dictionary attached to a Frame,
// carrying the key/value pairs negotiated by a READY command (§6) or
// derived from the transport (Peer-Address, User-Id, ...). Grounded on the
// thread-safe refcounted map pattern bgpfix's caps.Caps uses for BGP
// capability sets, sized down here since READY dictionaries are small and
// short-lived, so a plain map with an atomic refcount is enough.
type Metadata struct {
	props map[string]string
	refs  atomic.Int32
}

// NewMetadata returns empty Metadata with one reference.
func NewMetadata() *Metadata {
	m := &Metadata{props: make(map[string]string)}
	m.refs.Store(1)
	return m
}

// Get returns the value for key, or "" with ok=false if absent.
func (m *Metadata) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.props[key]
	return v, ok
}

// Set stores key=value.
func (m *Metadata) Set(key, value string) {
	if m == nil {
		return
	}
	m.props[key] = value
}

// Each iterates all properties in unspecified order.
func (m *Metadata) Each(fn func(key, value string)) {
	if m == nil {
		return
	}
	for k, v := range m.props {
		fn(k, v)
	}
}

// clone bumps the refcount and returns m itself (shared, not copied) unless
// m is nil.
func (m *Metadata) clone() *Metadata {
	if m == nil {
		return nil
	}
	m.refs.Add(1)
	return m
}

// Release drops a reference; once the count reaches zero the caller may
// discard the map. There is no finalizer: Go's GC reclaims it regardless,
// the refcount exists only to mirror the SHARED-frame ownership contract
// from §3 for code that wants to pool/reuse Metadata explicitly.
func (m *Metadata) Release() int32 {
	if m == nil {
		return 0
	}
	return m.refs.Add(-1)
}
