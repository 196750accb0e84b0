package schema

import "strconv"

// DedupStrategy controls how repeated scalar children of a shell-style array
// property are collapsed. RelaxedXml hands every repeated child element to
// Coerce as a plain []interface{}; when the declared shape is an array of
// scalars the source text may have repeated the same element because the
// model mistook it for a flag/argument list (the "shell-schema" case in
// spec.md §8 scenario 6).
type DedupStrategy int

const (
	// DedupNone leaves duplicate scalar entries untouched.
	DedupNone DedupStrategy = iota
	// DedupLastWins keeps only the last occurrence of each distinct scalar
	// value, preserving the order of last occurrence. This is the default
	// per spec.md §9 Open Question (a).
	DedupLastWins
	// DedupFirstWins keeps only the first occurrence of each distinct
	// scalar value, preserving the order of first occurrence.
	DedupFirstWins
)

// CoerceOptions configures Coerce.
type CoerceOptions struct {
	// Dedup controls collapsing of duplicate scalar array entries. The zero
	// value is DedupNone; DefaultCoerceOptions sets DedupLastWins.
	Dedup DedupStrategy
}

// DefaultCoerceOptions returns the default coercion behavior.
func DefaultCoerceOptions() CoerceOptions {
	return CoerceOptions{Dedup: DedupLastWins}
}

// Coerce reshapes a raw tolerant-parsed value (as produced by RelaxedXml or
// RelaxedJson) against the shape declared by view. It never fails: when a
// value cannot be coerced to the declared shape it is returned unchanged so
// that a best-effort tool call can still be emitted.
//
// Coerce performs, in order:
//   - object: recurse into each declared property found in the value map.
//   - array: if the raw value is a bare scalar/object (the common case when
//     an LLM emits a single repeated child as one element rather than a
//     list), wrap it in a one-element slice; if it is already a slice,
//     recurse into each element against Items()/PrefixItems() and apply the
//     configured dedup strategy when the element shape is a scalar.
//   - scalar (string/number/integer/boolean): parse textual values (XML and
//     shell-style bodies hand everything back as strings) into the declared
//     primitive type; leave already-typed values (from RelaxedJson) as is.
func Coerce(value interface{}, view *View, opts CoerceOptions) interface{} {
	if view == nil {
		return value
	}
	switch view.Kind() {
	case KindObject:
		return coerceObject(value, view, opts)
	case KindArray:
		return coerceArray(value, view, opts)
	case KindString:
		return coerceString(value)
	case KindNumber:
		return coerceNumber(value, false)
	case KindInteger:
		return coerceNumber(value, true)
	case KindBoolean:
		return coerceBoolean(value)
	default:
		return value
	}
}

func coerceObject(value interface{}, view *View, opts CoerceOptions) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	out := make(map[string]interface{}, len(m))
	for k, raw := range m {
		prop := view.Property(k)
		if prop == nil {
			out[k] = raw
			continue
		}
		out[k] = Coerce(raw, prop, opts)
	}
	return out
}

func coerceArray(value interface{}, view *View, opts CoerceOptions) interface{} {
	var elems []interface{}
	if slice, ok := value.([]interface{}); ok {
		elems = slice
	} else {
		elems = []interface{}{value}
	}

	prefix := view.PrefixItems()
	itemView := view.Items()

	out := make([]interface{}, 0, len(elems))
	for i, e := range elems {
		var ev *View
		if prefix != nil && i < len(prefix) {
			ev = prefix[i]
		} else {
			ev = itemView
		}
		out = append(out, Coerce(e, ev, opts))
	}

	if itemView != nil && isScalarKind(itemView.Kind()) {
		out = dedupScalars(out, opts.dedupOrDefault())
	}
	return out
}

func (o CoerceOptions) dedupOrDefault() DedupStrategy {
	return o.Dedup
}

func isScalarKind(k Kind) bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean:
		return true
	default:
		return false
	}
}

func dedupScalars(values []interface{}, strategy DedupStrategy) []interface{} {
	if strategy == DedupNone || len(values) < 2 {
		return values
	}

	switch strategy {
	case DedupLastWins:
		seen := make(map[interface{}]bool, len(values))
		order := make([]interface{}, 0, len(values))
		for i := len(values) - 1; i >= 0; i-- {
			if seen[values[i]] {
				continue
			}
			seen[values[i]] = true
			order = append(order, values[i])
		}
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
		return order
	case DedupFirstWins:
		seen := make(map[interface{}]bool, len(values))
		order := make([]interface{}, 0, len(values))
		for _, v := range values {
			if seen[v] {
				continue
			}
			seen[v] = true
			order = append(order, v)
		}
		return order
	default:
		return values
	}
}

func coerceString(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return value
	}
}

func coerceNumber(value interface{}, integer bool) interface{} {
	switch v := value.(type) {
	case float64:
		if integer {
			return int64(v)
		}
		return v
	case string:
		if integer {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return int64(f)
			}
			return value
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return value
	default:
		return value
	}
}

func coerceBoolean(value interface{}) interface{} {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch v {
		case "true", "True", "TRUE":
			return true
		case "false", "False", "FALSE":
			return false
		}
		return value
	default:
		return value
	}
}
