// pkg/report/document.go
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrUnrepresentable is returned by Set for values that cannot be written
// into a JSON document.
var ErrUnrepresentable = errors.New("report: value cannot be represented")

// Document is an ordered, mutable JSON object. Keys keep the position of
// their first write; a later Set on the same key replaces the value in place.
//
// A Document is not safe for concurrent use.
type Document struct {
	keys []string
	vals map[string]any
}

// New returns an empty document.
func New() *Document {
	return &Document{vals: make(map[string]any)}
}

// Set writes value under key (last writer wins). Nested documents and the
// slice types listed in the package doc are accepted; anything else, and
// non-finite floats, yields ErrUnrepresentable and leaves d unchanged.
func (d *Document) Set(key string, value any) error {
	if err := check(value); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	d.put(key, value)
	return nil
}

// Object returns the nested document stored under key, creating it (and
// replacing any non-object value) when needed.
func (d *Document) Object(key string) *Document {
	if v, ok := d.vals[key]; ok {
		if sub, ok := v.(*Document); ok && sub != nil {
			return sub
		}
	}
	sub := New()
	d.put(key, sub)
	return sub
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// Delete removes key; it is a no-op when key is absent.
func (d *Document) Delete(key string) {
	if _, ok := d.vals[key]; !ok {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len reports the number of top-level fields.
func (d *Document) Len() int { return len(d.keys) }

// Map converts d into plain maps and slices, recursively. Handy for
// comparing two documents field by field.
func (d *Document) Map() map[string]any {
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		out[k] = plain(d.vals[k])
	}
	return out
}

// MarshalJSON encodes the document with keys in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.vals[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Document) put(key string, value any) {
	if d.vals == nil {
		d.vals = make(map[string]any)
	}
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = value
}

func check(v any) error {
	switch x := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		[]string, []int, []int64, []uint64:
		return nil
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case []float64:
		for _, f := range x {
			if err := finite(f); err != nil {
				return err
			}
		}
		return nil
	case *Document:
		if x == nil {
			return fmt.Errorf("%w: nil document", ErrUnrepresentable)
		}
		return nil
	case []any:
		for i, e := range x {
			if err := check(e); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnrepresentable, v)
	}
}

func finite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrUnrepresentable, f)
	}
	return nil
}

func plain(v any) any {
	switch x := v.(type) {
	case *Document:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}
