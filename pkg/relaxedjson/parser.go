package relaxedjson

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse parses a complete tolerant-JSON document and returns the decoded
// value (nil, bool, float64, string, []interface{}, or *Object).
func Parse(text string) (interface{}, error) {
	p := &parser{src: text}
	p.skipSpaceAndCommas()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("relaxedjson: trailing data at offset %d", p.pos)
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// skipSpaceAndCommas additionally skips a single stray leading comma, which
// arises from over-eager repair elsewhere in the pipeline.
func (p *parser) skipSpaceAndCommas() {
	p.skipSpace()
	if p.peek() == ',' {
		p.pos++
		p.skipSpace()
	}
}

func (p *parser) parseValue() (interface{}, error) {
	p.skipSpace()
	if p.eof() {
		return nil, fmt.Errorf("relaxedjson: unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		return p.parseString()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseLiteralOrBareKey()
	}
}

func (p *parser) parseObject() (interface{}, error) {
	p.pos++ // consume '{'
	obj := NewObject()
	p.skipSpace()
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return obj, nil
		}
		if p.eof() {
			return nil, fmt.Errorf("relaxedjson: unterminated object")
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, fmt.Errorf("relaxedjson: expected ':' after key %q at offset %d", key, p.pos)
		}
		p.pos++
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' { // trailing comma
				p.pos++
				return obj, nil
			}
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, fmt.Errorf("relaxedjson: expected ',' or '}' at offset %d", p.pos)
		}
	}
}

func (p *parser) parseKey() (string, error) {
	p.skipSpace()
	if p.peek() == '"' || p.peek() == '\'' {
		v, err := p.parseString()
		if err != nil {
			return "", err
		}
		return v.(string), nil
	}
	// Unquoted key: identifier-ish run of characters up to ':' or space.
	start := p.pos
	for !p.eof() {
		c := rune(p.src[p.pos])
		if c == ':' || unicode.IsSpace(c) {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("relaxedjson: expected object key at offset %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseArray() (interface{}, error) {
	p.pos++ // consume '['
	var items []interface{}
	p.skipSpace()
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			if items == nil {
				items = []interface{}{}
			}
			return items, nil
		}
		if p.eof() {
			return nil, fmt.Errorf("relaxedjson: unterminated array")
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == ']' { // trailing comma
				p.pos++
				return items, nil
			}
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("relaxedjson: expected ',' or ']' at offset %d", p.pos)
		}
	}
}

func (p *parser) parseString() (interface{}, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return nil, fmt.Errorf("relaxedjson: unterminated string")
		}
		c := p.src[p.pos]
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.eof() {
				return nil, fmt.Errorf("relaxedjson: unterminated escape")
			}
			esc := p.src[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\', '/':
				b.WriteByte(esc)
			case 'u':
				if p.pos+4 < len(p.src) {
					code, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
					if err == nil {
						b.WriteRune(rune(code))
						p.pos += 4
					} else {
						b.WriteByte(esc)
					}
				} else {
					b.WriteByte(esc)
				}
			default:
				b.WriteByte(esc)
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
}

func (p *parser) parseNumber() (interface{}, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.eof() && isNumberByte(p.src[p.pos]) {
		p.pos++
	}
	text := p.src[start:p.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("relaxedjson: invalid number %q", text)
	}
	return f, nil
}

func isNumberByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
		return true
	default:
		return false
	}
}

// parseLiteralOrBareKey parses true/false/null and the Python spellings
// True/False/None.
func (p *parser) parseLiteralOrBareKey() (interface{}, error) {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	switch word {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	case "null", "None", "NULL", "nil":
		return nil, nil
	case "":
		return nil, fmt.Errorf("relaxedjson: unexpected character %q at offset %d", p.peek(), p.pos)
	default:
		return nil, fmt.Errorf("relaxedjson: unrecognised literal %q at offset %d", word, start)
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
