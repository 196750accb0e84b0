// Package relaxedjson is a tolerant JSON parser for the bodies models emit
// inside tool-call markup. It accepts single-quoted strings, unquoted
// object keys, trailing commas, and the Python literals True/False/None,
// in addition to standard JSON. Parsed objects preserve the key order they
// were written in, so that re-serialising a partially-parsed document during
// streaming produces a byte sequence that only ever grows by appending —
// the property the StreamParser's progressive-delta emission depends on.
package relaxedjson

// Object is an insertion-order-preserving JSON object. Parse and
// ParseValue return *Object wherever the source text contains a JSON
// object; Stringify walks Keys() in order so canonical serialisation
// mirrors the order values first appeared in the source.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: map[string]interface{}{}}
}

// Set assigns a value to key, appending key to the insertion order the
// first time it is seen and overwriting the value (in place) on repeats.
func (o *Object) Set(key string, value interface{}) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// ToMap returns a plain map[string]interface{} copy, recursively converting
// nested *Object values as well. Use this at the boundary to hand the
// parsed value to schema.Coerce or to a caller that doesn't care about
// key order.
func (o *Object) ToMap() map[string]interface{} {
	if o == nil {
		return nil
	}
	out := make(map[string]interface{}, len(o.keys))
	for _, k := range o.keys {
		out[k] = toPlain(o.values[k])
	}
	return out
}

func toPlain(v interface{}) interface{} {
	switch val := v.(type) {
	case *Object:
		return val.ToMap()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = toPlain(e)
		}
		return out
	default:
		return v
	}
}
