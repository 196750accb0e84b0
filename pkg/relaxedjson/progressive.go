package relaxedjson

// This file supports the JsonTagged SurfaceProtocol's progressive
// tool-input-delta emitter (spec.md §4.6): it needs to know, without a full
// parse, when a particular object key's value has arrived completely in an
// ever-growing buffer, and where that value starts and ends.

// FindKeyValueStart scans s for a top-level occurrence of key as a quoted
// object key followed by a colon, honouring string/escape state so that a
// key name appearing inside an unrelated string value is not mistaken for a
// real key. Keys inside nested objects or arrays are skipped; bare
// (unquoted) keys are not recognised. It returns the byte offset of the
// first non-space character of the value, or ok=false if the key has not
// appeared (yet).
func FindKeyValueStart(s string, key string) (int, bool) {
	n := len(s)
	i := 0
	depth := 0
	var quote byte
	for i < n {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '"' || c == '\'' {
			start := i
			strVal, end, ok := scanQuotedLiteral(s, i)
			if !ok {
				return 0, false
			}
			if strVal == key && depth <= 1 {
				j := end
				for j < n && isSpace(s[j]) {
					j++
				}
				if j < n && s[j] == ':' {
					j++
					for j < n && isSpace(s[j]) {
						j++
					}
					return j, true
				}
			}
			i = end
			_ = start
			continue
		}
		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		i++
	}
	return 0, false
}

func scanQuotedLiteral(s string, start int) (string, int, bool) {
	quote := s[start]
	j := start + 1
	n := len(s)
	var runes []byte
	for j < n {
		c := s[j]
		if c == '\\' && j+1 < n {
			runes = append(runes, c, s[j+1])
			j += 2
			continue
		}
		if c == quote {
			return string(unescapeSimple(runes)), j + 1, true
		}
		runes = append(runes, c)
		j++
	}
	return "", n, false
}

func unescapeSimple(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) {
			switch b[i+1] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, b[i+1])
			}
			i++
			continue
		}
		out = append(out, b[i])
	}
	return out
}

// ScanValueSpan scans a single JSON-like value starting at s[start] (after
// skipping leading whitespace) and returns the exclusive end offset of the
// value and whether the value is complete. Strings/objects/arrays are
// complete when their closing delimiter is found; bare literals/numbers are
// only considered complete when followed by an explicit terminator
// (',', '}', ']', or whitespace) within s, since a trailing run of digits at
// the very end of a streaming buffer might still grow on the next chunk.
func ScanValueSpan(s string, start int) (int, bool) {
	n := len(s)
	i := start
	for i < n && isSpace(s[i]) {
		i++
	}
	if i >= n {
		return i, false
	}

	switch s[i] {
	case '"', '\'':
		_, end, ok := scanQuotedLiteral(s, i)
		return end, ok
	case '{', '[':
		return scanBalanced(s, i)
	default:
		j := i
		for j < n {
			c := s[j]
			if c == ',' || c == '}' || c == ']' || isSpace(c) {
				return j, true
			}
			j++
		}
		return n, false
	}
}

func scanBalanced(s string, start int) (int, bool) {
	n := len(s)
	var stack []byte
	var quote byte
	j := start
	for j < n {
		c := s[j]
		if quote != 0 {
			if c == '\\' {
				j += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			j++
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return j + 1, true
			}
		}
		j++
	}
	return n, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
