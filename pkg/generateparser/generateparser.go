// Package generateparser implements the non-streaming complete-text parse
// (spec §4.3): given an entire generated text up front, locate every tool
// call occurrence and split the text into an ordered sequence of text and
// tool-call intervals, without going through the streaming state machine.
package generateparser

import (
	"regexp"
	"sort"
	"strings"
)

// Interval is a located tool-call occurrence within a text: the byte range
// [TagStart, End) spans the opening tag through the matching close (or
// through the self-closing tag itself), and Body is the raw content between
// the opening and closing tags (empty for a self-closing tag).
type Interval struct {
	TagStart int
	TagEnd   int
	End      int
	ToolName string
	Body     string
}

// ScanXMLCalls finds every non-overlapping tool-call occurrence for the
// declared tool names in text (§4.3): for each opening-tag occurrence,
// the matching close is found by depth tracking that counts only
// same-name tags; nested structural tags inside the body do not affect
// depth. Occurrences without a matching close are skipped. Results are
// sorted by start position, ties broken by declaration order (the order
// names appears in).
func ScanXMLCalls(text string, names []string) []Interval {
	var found []Interval
	offset := 0
	for offset <= len(text) {
		tagStart, tagEnd, toolName, selfClosing, nameIdx, ok := findEarliestOpener(text[offset:], names)
		if !ok {
			break
		}
		tagStart += offset
		tagEnd += offset

		if selfClosing {
			found = append(found, Interval{TagStart: tagStart, TagEnd: tagEnd, End: tagEnd, ToolName: toolName, Body: ""})
			offset = tagEnd
			_ = nameIdx
			continue
		}

		bodyEnd, closerEnd, ok := findMatchingCloser(text[tagEnd:], toolName)
		if !ok {
			// No matching close for this occurrence: skip it and resume
			// scanning just past the opener so later occurrences are still
			// found.
			offset = tagEnd
			continue
		}
		found = append(found, Interval{
			TagStart: tagStart,
			TagEnd:   tagEnd,
			End:      tagEnd + closerEnd,
			ToolName: toolName,
			Body:     text[tagEnd : tagEnd+bodyEnd],
		})
		offset = tagEnd + closerEnd
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].TagStart != found[j].TagStart {
			return found[i].TagStart < found[j].TagStart
		}
		return indexOf(names, found[i].ToolName) < indexOf(names, found[j].ToolName)
	})
	return found
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return len(names)
}

func findEarliestOpener(buffer string, names []string) (tagStart, tagEnd int, toolName string, selfClosing bool, nameIdx int, found bool) {
	bestIdx := -1
	for i, name := range names {
		open := "<" + name + ">"
		if idx := strings.Index(buffer, open); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
			bestIdx, tagStart, tagEnd, toolName, selfClosing, nameIdx = idx, idx, idx+len(open), name, false, i
		}
		if idx, end, ok := selfCloseIndex(buffer, name); ok && (bestIdx == -1 || idx < bestIdx) {
			bestIdx, tagStart, tagEnd, toolName, selfClosing, nameIdx = idx, idx, end, name, true, i
		}
	}
	return tagStart, tagEnd, toolName, selfClosing, nameIdx, bestIdx >= 0
}

// selfCloseIndex returns the earliest "<name" occurrence in buffer followed,
// after optional whitespace, by "/>" — a self-closing tag tolerating a space
// before the slash ("<name />").
func selfCloseIndex(buffer, name string) (start, end int, found bool) {
	prefix := "<" + name
	pos := 0
	for {
		idx := strings.Index(buffer[pos:], prefix)
		if idx < 0 {
			return 0, 0, false
		}
		idx += pos
		rest := buffer[idx+len(prefix):]
		j := 0
		for j < len(rest) && isXMLSpace(rest[j]) {
			j++
		}
		if strings.HasPrefix(rest[j:], "/>") {
			return idx, idx + len(prefix) + j + 2, true
		}
		pos = idx + 1
	}
}

func selfCloseIndexFrom(buffer, name string, from int) (start, end int, found bool) {
	if from >= len(buffer) {
		return 0, 0, false
	}
	s, e, ok := selfCloseIndex(buffer[from:], name)
	if !ok {
		return 0, 0, false
	}
	return s + from, e + from, true
}

func isXMLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func findMatchingCloser(buffer string, toolName string) (bodyEnd, closerEnd int, found bool) {
	open := "<" + toolName + ">"
	closeTag := "</" + toolName + ">"
	depth := 1
	pos := 0
	const inf = 1 << 30
	idxFrom := func(s, sub string, from int) int {
		if from >= len(s) {
			return -1
		}
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return -1
		}
		return i + from
	}
	for {
		oi := idxFrom(buffer, open, pos)
		si, siEnd, siOk := selfCloseIndexFrom(buffer, toolName, pos)
		ci := idxFrom(buffer, closeTag, pos)
		best := inf
		if oi >= 0 && oi < best {
			best = oi
		}
		if siOk && si < best {
			best = si
		}
		if ci >= 0 && ci < best {
			best = ci
		}
		if best == inf {
			return 0, 0, false
		}
		switch {
		case ci >= 0 && ci == best:
			depth--
			if depth == 0 {
				return ci, ci + len(closeTag), true
			}
			pos = ci + len(closeTag)
		case siOk && si == best:
			pos = siEnd
		case oi >= 0 && oi == best:
			depth++
			pos = oi + len(open)
		}
	}
}

// lineTagRe matches a line that is just an identifier (a candidate tool
// name), optionally trailing a ":", for the line-prefixed fallback.
var lineTagRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z0-9_.\-]+):?[ \t]*\r?\n`)

// LinePrefixedFallback implements the Xml variant's line-prefixed fallback
// (§4.3): when no ordinary tool call is found, accept a shape where the
// tool name appears alone on a line (optionally with a trailing colon)
// followed immediately by an XML body starting with "<". The body extends
// to the balanced close of that body's own outer element, tracked by depth
// using the outer element's name; one line break right after it is
// consumed with the interval.
func LinePrefixedFallback(text string, names []string) (Interval, bool) {
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}
	for _, m := range lineTagRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if !nameSet[name] {
			continue
		}
		bodyStart := m[1]
		openEnd := strings.IndexByte(text[bodyStart:], '>')
		if bodyStart >= len(text) || text[bodyStart] != '<' || openEnd < 0 {
			continue
		}
		inner := bodyStart + openEnd + 1
		_, closerEnd, ok := findMatchingCloser(text[inner:], text[bodyStart+1:inner-1])
		if !ok {
			continue
		}
		end := inner + closerEnd
		if end < len(text) && text[end] == '\n' {
			end++
		}
		return Interval{
			TagStart: m[0],
			TagEnd:   bodyStart,
			End:      end,
			ToolName: name,
			Body:     text[bodyStart : inner+closerEnd],
		}, true
	}
	return Interval{}, false
}

// selfClosingRootOpenRe matches only the first line of the
// self-closing-root-repair shape "<TOOL\n<key>value</key>\n/>": a "<NAME"
// left unclosed at the end of its line. RepairSelfClosingRoot then looks
// for the bare "/>" that stands in place of "</TOOL>".
var selfClosingRootOpenRe = regexp.MustCompile(`<([A-Za-z0-9_.\-]+)\s*\n`)

// RepairSelfClosingRoot implements the Xml variant's self-closing root
// repair (§4.3): an input of the shape "<TOOL\n<key>value</key>\n/>" is
// rewritten so the root is properly opened and closed, letting the
// ordinary scan find it.
func RepairSelfClosingRoot(text string, names []string) (string, bool) {
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}
	for _, m := range selfClosingRootOpenRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if !nameSet[name] {
			continue
		}
		rest := text[m[1]:]
		closeIdx := strings.Index(rest, "/>")
		if closeIdx < 0 {
			continue
		}
		body := rest[:closeIdx]
		rewritten := text[:m[0]] + "<" + name + ">" + body + "</" + name + ">" + rest[closeIdx+2:]
		return rewritten, true
	}
	return text, false
}

// ScanDelimited finds every non-overlapping occurrence of a literal
// start/end delimiter pair (§4.3: "a single non-greedy scan for literal
// start/end delimiters", JsonTagged / MixedJsonXml variants).
func ScanDelimited(text string, start, end string) []Interval {
	var found []Interval
	pos := 0
	for {
		startIdx := strings.Index(text[pos:], start)
		if startIdx < 0 {
			break
		}
		startIdx += pos
		bodyStart := startIdx + len(start)
		endIdx := strings.Index(text[bodyStart:], end)
		if endIdx < 0 {
			break
		}
		endIdx += bodyStart
		found = append(found, Interval{
			TagStart: startIdx,
			TagEnd:   bodyStart,
			End:      endIdx + len(end),
			Body:     text[bodyStart:endIdx],
		})
		pos = endIdx + len(end)
	}
	return found
}
