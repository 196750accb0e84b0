// Package schema provides a read-only projection over a JSON-Schema-like
// shape descriptor. It never validates data (that is left to the host
// application); it only describes shape so that parsers in this module can
// coerce tolerant-parsed values (strings, arrays-of-one, etc.) into the
// types a tool's input schema declares.
package schema

import "fmt"

// Kind is the subset of JSON Schema "type" values a View understands.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindAny     Kind = ""
)

// View is an immutable projection over a raw JSON-Schema-like map. It is
// built once from a tool's declared input schema and consulted many times
// during coercion; it never mutates the source map.
type View struct {
	raw      map[string]interface{}
	kind     Kind
	required map[string]bool
}

// New builds a View from a raw shape descriptor. A nil or malformed raw map
// yields a permissive KindAny view — callers are never required to declare a
// schema for a tool that takes no structured input.
func New(raw map[string]interface{}) *View {
	v := &View{raw: raw, required: map[string]bool{}}
	if raw == nil {
		return v
	}
	if t, ok := raw["type"].(string); ok {
		v.kind = Kind(t)
	}
	switch req := raw["required"].(type) {
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				v.required[s] = true
			}
		}
	case []string:
		for _, s := range req {
			v.required[s] = true
		}
	}
	return v
}

// Kind returns the schema's declared type, or KindAny if none/unknown.
func (v *View) Kind() Kind {
	if v == nil {
		return KindAny
	}
	return v.kind
}

// IsObject reports whether this view describes an object shape.
func (v *View) IsObject() bool { return v.Kind() == KindObject }

// IsArray reports whether this view describes an array shape.
func (v *View) IsArray() bool { return v.Kind() == KindArray }

// Required reports whether the named property is in the object's
// required set.
func (v *View) Required(name string) bool {
	if v == nil {
		return false
	}
	return v.required[name]
}

// Property returns the View for a named property of an object shape, or nil
// if the property is undeclared (in which case callers should treat the
// value permissively).
func (v *View) Property(name string) *View {
	if v == nil || v.raw == nil {
		return nil
	}
	props, ok := v.raw["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	child, ok := props[name].(map[string]interface{})
	if !ok {
		return nil
	}
	return New(child)
}

// PropertyNames returns the declared property names of an object shape. The
// names are collected by iterating the "properties" map, so their order is
// not defined and can differ between calls.
func (v *View) PropertyNames() []string {
	if v == nil || v.raw == nil {
		return nil
	}
	props, ok := v.raw["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	return names
}

// Items returns the View describing the element shape of an array, for
// schemas that declare a single homogeneous "items" shape. Returns nil for
// tuple-shaped arrays (use PrefixItems) or undeclared item shapes.
func (v *View) Items() *View {
	if v == nil || v.raw == nil {
		return nil
	}
	items, ok := v.raw["items"].(map[string]interface{})
	if !ok {
		return nil
	}
	return New(items)
}

// PrefixItems returns the per-position Views of a tuple-shaped array
// ("prefixItems" in JSON Schema draft 2020-12), or nil if the array is not
// tuple-shaped.
func (v *View) PrefixItems() []*View {
	if v == nil || v.raw == nil {
		return nil
	}
	raw, ok := v.raw["prefixItems"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]*View, 0, len(raw))
	for _, item := range raw {
		m, _ := item.(map[string]interface{})
		out = append(out, New(m))
	}
	return out
}

// Raw returns the underlying shape descriptor, unmodified. Used by
// SurfaceProtocol.formatTools implementations that need to render the full
// JSON Schema to the model.
func (v *View) Raw() map[string]interface{} {
	if v == nil {
		return nil
	}
	return v.raw
}

// Description returns the schema's "description" field, if any.
func (v *View) Description() string {
	if v == nil || v.raw == nil {
		return ""
	}
	if d, ok := v.raw["description"].(string); ok {
		return d
	}
	return ""
}

func (v *View) String() string {
	if v == nil {
		return "<nil schema>"
	}
	return fmt.Sprintf("schema.View{kind:%s}", v.kind)
}
