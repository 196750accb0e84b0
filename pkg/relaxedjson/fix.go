package relaxedjson

import "strings"

// FixUnterminated repairs a truncated tolerant-JSON fragment by closing any
// open string and any open braces/brackets, so that a streaming body that
// was cut mid-value can still be parsed. It mirrors the stack-based repair
// the teacher SDK's jsonparser.FixJSON performs for strict JSON, extended to
// track single-quoted strings as well as double-quoted ones.
func FixUnterminated(text string) string {
	if text == "" {
		return ""
	}

	var openStack []byte
	var quote byte // 0 when not in a string, else '"' or '\''
	escaped := false
	lastValidIndex := -1

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			lastValidIndex = i
			continue
		}

		if quote != 0 {
			if c == '\\' {
				escaped = true
				lastValidIndex = i
				continue
			}
			if c == quote {
				quote = 0
			}
			lastValidIndex = i
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
			lastValidIndex = i
		case '{', '[':
			openStack = append(openStack, c)
			lastValidIndex = i
		case '}':
			if len(openStack) > 0 && openStack[len(openStack)-1] == '{' {
				openStack = openStack[:len(openStack)-1]
				lastValidIndex = i
			}
		case ']':
			if len(openStack) > 0 && openStack[len(openStack)-1] == '[' {
				openStack = openStack[:len(openStack)-1]
				lastValidIndex = i
			}
		case ',', ':', ' ', '\t', '\n', '\r',
			'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
			'-', '.', 'e', 'E', '+',
			't', 'r', 'u', 'f', 'a', 'l', 's', 'n', 'T', 'F', 'N':
			lastValidIndex = i
		}
	}

	if lastValidIndex < 0 {
		return ""
	}

	result := text[:lastValidIndex+1]

	if quote != 0 {
		result += string(quote)
	}
	result = completeLiterals(result)

	for i := len(openStack) - 1; i >= 0; i-- {
		if openStack[i] == '{' {
			result += "}"
		} else {
			result += "]"
		}
	}

	return result
}

// completeLiterals completes a truncated boolean/null literal (including
// the Python spellings) trailing the fragment, e.g. `{"ok":tr` -> `{"ok":true`.
func completeLiterals(s string) string {
	i := len(s) - 1
	for i >= 0 && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i--
	}
	if i < 0 {
		return s
	}

	start := i
	for start > 0 && isIdentByte(s[start-1]) {
		start--
	}
	if start == i+1 {
		return s
	}
	partial := s[start : i+1]

	candidates := []string{"true", "True", "false", "False", "null", "None"}
	for _, full := range candidates {
		if strings.HasPrefix(full, partial) && partial != full {
			return s[:start] + full
		}
	}
	return s
}
