// Package param implements Container and Evaluator: an ordered
// key->value store with attribute-style access, concat/slice/update
// operators, and a deferred-evaluation expression language over its
// own values.
//
// An ordered name->value store guarded by a sync.RWMutex, keeping a
// key slice beside the map to preserve insertion order, which a plain
// map cannot do on its own.
package param

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/ovitrac/pizza3go/internal/value"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidKey and ErrMissingKey are the two construction/lookup
// failure kinds names ("Fail at call site").
type ErrInvalidKey struct{ Key string }

func (e *ErrInvalidKey) Error() string { return fmt.Sprintf("invalid key %q: not a valid identifier", e.Key) }

type ErrMissingKey struct{ Key string }

func (e *ErrMissingKey) Error() string { return fmt.Sprintf("missing key %q", e.Key) }

// Container is an ordered, string-keyed value store.
type Container struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]value.Value
}

// New builds an empty Container.
func New() *Container {
	return &Container{values: make(map[string]value.Value)}
}

// FromMap builds a Container from a mapping, in the iteration order
// Go gives map keys — callers that care about order should build with
// repeated Set calls instead.
func FromMap(m map[string]value.Value) *Container {
	c := New()
	for k, v := range m {
		_ = c.Set(k, v)
	}
	return c
}

// IsValidKey reports whether key is a legal Container identifier.
func IsValidKey(key string) bool { return identRe.MatchString(key) }

// Set assigns a value to key, appending key to insertion order the
// first time it is used. Assigning value.Nil{} is also accepted as
// the deletion sentinel.
func (c *Container) Set(key string, v value.Value) error {
	if !IsValidKey(key) {
		return &ErrInvalidKey{Key: key}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := v.(value.Nil); ok {
		c.deleteLocked(key)
		return nil
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
	return nil
}

// Get returns the value stored at key.
func (c *Container) Get(key string) (value.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	if !ok {
		return nil, &ErrMissingKey{Key: key}
	}
	return v, nil
}

// Delete removes key (a no-op if absent).
func (c *Container) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

func (c *Container) deleteLocked(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of keys.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// At returns the value at a positional index; negative indices count
// from the end.
func (c *Container) At(i int) (value.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.keys)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("index %d out of range (length %d)", i, n)
	}
	return c.values[c.keys[i]], nil
}

// Select builds a sub-Container from a list of positional indices or
// keys.
func (c *Container) Select(spec []any) (*Container, error) {
	c.mu.RLock()
	keys := append([]string(nil), c.keys...)
	vals := make(map[string]value.Value, len(c.values))
	for k, v := range c.values {
		vals[k] = v
	}
	c.mu.RUnlock()

	out := New()
	for _, s := range spec {
		switch t := s.(type) {
		case int:
			idx := t
			if idx < 0 {
				idx += len(keys)
			}
			if idx < 0 || idx >= len(keys) {
				return nil, fmt.Errorf("index %d out of range (length %d)", t, len(keys))
			}
			k := keys[idx]
			if err := out.Set(k, vals[k]); err != nil {
				return nil, err
			}
		case string:
			v, ok := vals[t]
			if !ok {
				return nil, &ErrMissingKey{Key: t}
			}
			if err := out.Set(t, v); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("select spec element must be an int or string, got %T", s)
		}
	}
	return out, nil
}

// Slice returns the sub-Container for keys[start:stop], Python-slice
// style (negative indices count from the end).
func (c *Container) Slice(start, stop int) (*Container, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.keys)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	if start > stop {
		start = stop
	}
	out := New()
	for _, k := range c.keys[start:stop] {
		if err := out.Set(k, c.values[k]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Concat implements `A ⊕ B`: right-wins merge, order = keys(A)
// followed by the new keys of B.
func (c *Container) Concat(other *Container) *Container {
	out := New()
	c.mu.RLock()
	for _, k := range c.keys {
		_ = out.Set(k, c.values[k])
	}
	c.mu.RUnlock()
	other.mu.RLock()
	for _, k := range other.keys {
		_ = out.Set(k, other.values[k])
	}
	other.mu.RUnlock()
	return out
}

// Update implements `A ⊕= B` in place.
func (c *Container) Update(other *Container) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	for _, k := range other.keys {
		_ = c.Set(k, other.values[k])
	}
}

// Clone returns a shallow, independent copy (values are treated as
// immutable once assigned).
func (c *Container) Clone() *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := New()
	for _, k := range c.keys {
		out.keys = append(out.keys, k)
		out.values[k] = c.values[k]
	}
	return out
}

// Equal reports whether two Containers have the same keys, in the
// same order, with structurally equal values (used by round-trip
// tests property 10).
func (c *Container) Equal(other *Container) bool {
	c.mu.RLock()
	other.mu.RLock()
	defer c.mu.RUnlock()
	defer other.mu.RUnlock()
	if len(c.keys) != len(other.keys) {
		return false
	}
	for i, k := range c.keys {
		if other.keys[i] != k {
			return false
		}
		if !value.Equal(c.values[k], other.values[k]) {
			return false
		}
	}
	return true
}
