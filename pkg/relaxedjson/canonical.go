package relaxedjson

import (
	"sort"
	"strconv"
	"strings"
)

// Stringify renders value as canonical JSON. Objects parsed by this package
// (*Object) are serialised in insertion order, so re-stringifying a growing
// partially-parsed document only ever appends bytes — the property the
// streaming tool-input-delta emitter relies on. Plain map[string]interface{}
// values (e.g. built directly by a caller, not via Parse) are serialised
// with sorted keys since they carry no order of their own.
func Stringify(value interface{}) string {
	var b strings.Builder
	writeValue(&b, value)
	return b.String()
}

func writeValue(b *strings.Builder, value interface{}) {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case *Object:
		writeObject(b, v)
	case map[string]interface{}:
		writePlainMap(b, v)
	case []interface{}:
		writeArray(b, v)
	case string:
		writeString(b, v)
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case float64:
		writeFloat(b, v)
	case float32:
		writeFloat(b, float64(v))
	case int:
		b.WriteString(strconv.Itoa(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	default:
		b.WriteString("null")
	}
}

func writeObject(b *strings.Builder, o *Object) {
	b.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(b, k)
		b.WriteByte(':')
		v, _ := o.Get(k)
		writeValue(b, v)
	}
	b.WriteByte('}')
}

func writePlainMap(b *strings.Builder, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(b, k)
		b.WriteByte(':')
		writeValue(b, m[k])
	}
	b.WriteByte('}')
}

func writeArray(b *strings.Builder, arr []interface{}) {
	b.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		writeValue(b, v)
	}
	b.WriteByte(']')
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				const hex = "0123456789abcdef"
				b.WriteByte('0')
				b.WriteByte('0')
				b.WriteByte(hex[(r>>4)&0xf])
				b.WriteByte(hex[r&0xf])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

func writeFloat(b *strings.Builder, f float64) {
	if f == float64(int64(f)) {
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
