// Package relaxedxml is a tolerant parser for the small, element-per-argument
// XML shape the Xml and YamlInXml SurfaceProtocol variants use for tool-call
// bodies: a flat or shallow-nested run of sibling elements, one per
// argument, optionally repeated (shell-schema-style arrays). It never
// attempts to be a general XML parser — no attributes, namespaces, or
// processing instructions — only what a tool-call body needs.
//
// Its repair posture mirrors pkg/relaxedjson: track what is structurally
// open, and when the input runs out, close it implicitly instead of
// failing, so a still-streaming body can be progressively reparsed (§4.6).
package relaxedxml

import (
	"fmt"
	"strings"
)

// Options configures a parse.
type Options struct {
	// Repair enables implicit-close recovery for unbalanced input
	// (truncated mid-stream bodies) instead of returning an error.
	Repair bool

	// NoChildNodes lists element names whose content is always literal
	// text, so a bare "<" inside them is not mistaken for a nested tag.
	NoChildNodes map[string]bool
}

// Parse parses body (the content between a tool call's opening and closing
// tag) into a map from child element name to value. A value is a string for
// a leaf element, a map[string]interface{} for a nested element, or a
// []interface{} when the same element name repeats at the same level.
func Parse(body string, opts Options) (map[string]interface{}, error) {
	p := &parser{src: body, opts: opts}
	result, _, err := p.parseChildren("")
	if err != nil && !opts.Repair {
		return nil, err
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	return result, nil
}

type parser struct {
	src  string
	pos  int
	opts Options
}

// parseChildren consumes sibling elements and interleaved text until the
// closing tag for parentName is found (or, in repair mode, until input runs
// out). It returns the child-element map and, separately, any directly
// contained text (used when an element has no child elements at all, i.e.
// is a leaf whose value is that text).
func (p *parser) parseChildren(parentName string) (map[string]interface{}, string, error) {
	var result map[string]interface{}
	var text strings.Builder

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c != '<' {
			text.WriteByte(c)
			p.pos++
			continue
		}

		if p.pos+1 < len(p.src) && p.src[p.pos+1] == '/' {
			closerStart := p.pos
			name, ok := p.readCloseTagName()
			if !ok {
				if !p.opts.Repair {
					return result, text.String(), fmt.Errorf("relaxedxml: malformed closing tag at offset %d", p.pos)
				}
				// Truncated closer (e.g. "</tool_") at end of input:
				// stop here, body is done.
				return result, text.String(), nil
			}
			if name == parentName {
				return result, text.String(), nil
			}
			if !p.opts.Repair {
				return result, text.String(), fmt.Errorf("relaxedxml: unexpected closing tag </%s>, want </%s>", name, parentName)
			}
			// Stray closer for an ancestor: unconsume it and let the
			// ancestor frame see it as the end of this element.
			p.pos = closerStart
			return result, text.String(), nil
		}

		name, selfClosing, ok := p.readOpenTag()
		if !ok {
			if !p.opts.Repair {
				return result, text.String(), fmt.Errorf("relaxedxml: malformed tag at offset %d", p.pos)
			}
			text.WriteByte(c)
			p.pos++
			continue
		}

		var value interface{}
		switch {
		case selfClosing:
			value = ""
		case p.opts.NoChildNodes[name]:
			value = p.readLiteralUntilClose(name)
		default:
			nested, leafText, err := p.parseChildren(name)
			if err != nil {
				return result, text.String(), err
			}
			if len(nested) == 0 {
				value = leafText
			} else {
				value = nested
			}
		}
		if result == nil {
			result = make(map[string]interface{})
		}
		appendChild(result, name, value)
	}

	if parentName != "" && !p.opts.Repair {
		return result, text.String(), fmt.Errorf("relaxedxml: unterminated element <%s>", parentName)
	}
	return result, text.String(), nil
}

func appendChild(into map[string]interface{}, name string, value interface{}) {
	existing, ok := into[name]
	if !ok {
		into[name] = value
		return
	}
	if list, ok := existing.([]interface{}); ok {
		into[name] = append(list, value)
		return
	}
	into[name] = []interface{}{existing, value}
}

// readOpenTag consumes "<name>" or "<name/>" starting at '<' and returns the
// tag name, whether it was self-closing, and whether it looked like a tag
// at all.
func (p *parser) readOpenTag() (name string, selfClosing bool, ok bool) {
	start := p.pos
	i := start + 1
	n := len(p.src)
	if i >= n || !isNameStart(p.src[i]) {
		return "", false, false
	}
	j := i
	for j < n && isNameByte(p.src[j]) {
		j++
	}
	name = p.src[i:j]
	k := j
	for k < n && isSpaceByte(p.src[k]) {
		k++
	}
	if k < n && p.src[k] == '/' && k+1 < n && p.src[k+1] == '>' {
		p.pos = k + 2
		return name, true, true
	}
	if k < n && p.src[k] == '>' {
		p.pos = k + 1
		return name, false, true
	}
	return "", false, false
}

func (p *parser) readCloseTagName() (string, bool) {
	i := p.pos + 2
	n := len(p.src)
	if i >= n || !isNameStart(p.src[i]) {
		return "", false
	}
	j := i
	for j < n && isNameByte(p.src[j]) {
		j++
	}
	name := p.src[i:j]
	k := j
	for k < n && isSpaceByte(p.src[k]) {
		k++
	}
	if k < n && p.src[k] == '>' {
		p.pos = k + 1
		return name, true
	}
	return "", false
}

// readLiteralUntilClose reads raw text up to (not including) the matching
// "</name>", treating everything in between as literal even if it contains
// "<" (used for NoChildNodes elements).
func (p *parser) readLiteralUntilClose(name string) string {
	closer := "</" + name + ">"
	idx := strings.Index(p.src[p.pos:], closer)
	if idx < 0 {
		text := p.src[p.pos:]
		p.pos = len(p.src)
		return text
	}
	text := p.src[p.pos : p.pos+idx]
	p.pos += idx + len(closer)
	return text
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
