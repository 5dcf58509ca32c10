package pnwkit

import (
	"sort"
	"sync"

	syncmap "github.com/SaveTheRbtz/generic-sync-map-go"
)

// Object is an ordered, concurrency-safe mapping from string key to Value.
// It backs both GraphQL field arguments and response/event payloads, so it
// must tolerate being read from one goroutine while another inserts into
// it (a Field's Arguments can be shared across concurrent resolutions).
//
// Value storage itself is a syncmap.MapOf so concurrent Get/Set never
// race; insertion order (needed only for GraphQL literal rendering) is
// tracked separately under a plain mutex, since ordering is a rendering
// concern, not a storage concern.
type Object struct {
	values syncmap.MapOf[string, Value]
	mu     sync.Mutex
	order  []string
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{}
}

// ObjectFromMap builds an Object from a plain Go map. Since Go map
// iteration order is randomized, the resulting Object's rendering order is
// the (arbitrary but stable-once-built) order keys were visited; callers
// that need a specific order should build with repeated Set calls instead.
func ObjectFromMap(m map[string]Value) *Object {
	o := NewObject()
	for k, v := range m {
		o.Set(k, v)
	}
	return o
}

// Set inserts or overwrites key with v. The first Set for a given key
// fixes its rendering position; later overwrites do not move it.
func (o *Object) Set(key string, v Value) {
	if _, loaded := o.values.Load(key); !loaded {
		o.mu.Lock()
		if _, loaded := o.values.Load(key); !loaded {
			o.order = append(o.order, key)
		}
		o.values.Store(key, v)
		o.mu.Unlock()
		return
	}
	o.values.Store(key, v)
}

// Get returns the value stored under key, if any.
func (o *Object) Get(key string) (Value, bool) {
	return o.values.Load(key)
}

// Delete removes key, if present.
func (o *Object) Delete(key string) {
	if _, loaded := o.values.Load(key); loaded {
		o.values.Delete(key)
		o.mu.Lock()
		for i, k := range o.order {
			if k == key {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
		o.mu.Unlock()
	}
}

// Len reports the number of keys currently stored.
func (o *Object) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.order)
}

// Keys returns a snapshot of keys in insertion order.
func (o *Object) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Range visits every key/value pair in insertion order, stopping early if
// f returns false.
func (o *Object) Range(f func(key string, v Value) bool) {
	for _, k := range o.Keys() {
		v, ok := o.values.Load(k)
		if !ok {
			continue
		}
		if !f(k, v) {
			return
		}
	}
}

// Equal reports whether o and other have the same key set with
// per-key-equal values; rendering order is not part of equality.
func (o *Object) Equal(other *Object) bool {
	if other == nil {
		return false
	}
	if o.Len() != other.Len() {
		return false
	}
	equal := true
	o.Range(func(k string, v Value) bool {
		ov, ok := other.Get(k)
		if !ok || !v.Equal(ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// sortedKeys returns the keys in sorted order, irrespective of insertion
// order.
func (o *Object) sortedKeys() []string {
	keys := o.Keys()
	sort.Strings(keys)
	return keys
}
