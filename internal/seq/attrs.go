// internal/seq/attrs.go
package seq

import "iter"

// Reserved attribute keys. All other keys are opaque.
const (
	KeyFullName = "full_name"       // free-text description
	KeyFamily   = "family"          // internal only, never written
	KeyIdentity = "align_ident_slv" // identity score used by the writer's filter
)

// Attributes is an insertion-ordered map of attribute values.
// Re-setting a key keeps its original position.
type Attributes struct {
	keys []string
	vals map[string]Value
}

func NewAttributes() *Attributes {
	return &Attributes{vals: make(map[string]Value)}
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

func (a *Attributes) Get(key string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	v, ok := a.vals[key]
	return v, ok
}

func (a *Attributes) Set(key string, v Value) {
	if a.vals == nil {
		a.vals = make(map[string]Value)
	}
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = v
}

func (a *Attributes) Delete(key string) {
	if _, ok := a.vals[key]; !ok {
		return
	}
	delete(a.vals, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// All iterates key/value pairs in insertion order.
func (a *Attributes) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if a == nil {
			return
		}
		for _, k := range a.keys {
			if !yield(k, a.vals[k]) {
				return
			}
		}
	}
}

// Render returns the rendered value for key, or "" if it is missing.
func (a *Attributes) Render(key string) string {
	v, ok := a.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}
