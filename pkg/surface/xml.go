package surface

import (
	"fmt"
	"strings"

	"github.com/kestrel-ai/toolbridge/pkg/generateparser"
	"github.com/kestrel-ai/toolbridge/pkg/idgen"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/relaxedjson"
	"github.com/kestrel-ai/toolbridge/pkg/relaxedxml"
	"github.com/kestrel-ai/toolbridge/pkg/schema"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

// xmlVariant is the Xml SurfaceProtocol variant (§4.1): a tool call is an
// XML element whose tag name equals a declared tool name, body parsed by
// RelaxedXml with repair=true and schema-directed coercion.
type xmlVariant struct {
	tools map[string]types.ToolDefinition
	names []string
}

// NewXml constructs the Xml variant over the declared tools.
func NewXml(tools []types.ToolDefinition) (Protocol, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	return &xmlVariant{tools: byName, names: names}, nil
}

func (x *xmlVariant) Name() string { return "xml" }

func (x *xmlVariant) FormatTools(tools []types.ToolDefinition, templateFn ToolSystemPromptTemplate) string {
	if templateFn != nil {
		return templateFn(tools)
	}
	var b strings.Builder
	b.WriteString("You can call the following tools. To call one, emit an XML element whose tag is the tool name, with one child element per argument:\n\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "<%s>\n", t.Name)
		if t.InputSchema != nil {
			for _, p := range t.InputSchema.PropertyNames() {
				fmt.Fprintf(&b, "  <%s>...</%s>\n", p, p)
			}
		}
		fmt.Fprintf(&b, "</%s>\n", t.Name)
		if t.Description != "" {
			fmt.Fprintf(&b, "  (%s)\n", t.Description)
		}
	}
	return b.String()
}

func (x *xmlVariant) FormatToolCall(tc types.ToolCall) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s>", tc.ToolName)
	value, err := relaxedjson.Parse(tc.Input)
	if err == nil {
		writeXMLValue(&b, value)
	}
	fmt.Fprintf(&b, "</%s>", tc.ToolName)
	return b.String()
}

func writeXMLValue(b *strings.Builder, value interface{}) {
	obj, ok := value.(*relaxedjson.Object)
	if !ok {
		return
	}
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		if nested, ok := v.(*relaxedjson.Object); ok {
			fmt.Fprintf(b, "<%s>", k)
			writeXMLValue(b, nested)
			fmt.Fprintf(b, "</%s>", k)
			continue
		}
		if list, ok := v.([]interface{}); ok {
			for _, item := range list {
				fmt.Fprintf(b, "<%s>%v</%s>", k, item, k)
			}
			continue
		}
		fmt.Fprintf(b, "<%s>%v</%s>", k, v, k)
	}
}

func (x *xmlVariant) ParseGeneratedText(text string, tools []types.ToolDefinition, opts *streamparser.ParseOptions) ([]types.ContentPart, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &xmlLanguage{tools: byName, names: names, opts: opts}

	intervals := generateparser.ScanXMLCalls(text, names)
	if len(intervals) == 0 {
		if rewritten, ok := generateparser.RepairSelfClosingRoot(text, names); ok {
			if repaired := generateparser.ScanXMLCalls(rewritten, names); len(repaired) > 0 {
				text, intervals = rewritten, repaired
			}
		}
	}
	if len(intervals) == 0 {
		if interval, ok := generateparser.LinePrefixedFallback(text, names); ok {
			intervals = []generateparser.Interval{interval}
		}
	}

	return assembleGenerateParserContent(text, intervals, lang.FinalizeBody, opts)
}

func (x *xmlVariant) CreateStreamParser(tools []types.ToolDefinition, opts *streamparser.ParseOptions) (*streamparser.Parser, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &xmlLanguage{tools: byName, names: names, opts: opts}
	return streamparser.New(lang, idgen.NewUUIDGenerator(), opts), nil
}

func (x *xmlVariant) ExtractToolCallSegments(text string, tools []types.ToolDefinition) ([]string, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &xmlLanguage{tools: byName, names: names}
	var segments []string
	buf := text
	offset := 0
	for {
		tagStart, tagEnd, toolName, selfClosing, found := lang.FindOpener(buf[offset:])
		if !found {
			break
		}
		tagStart += offset
		tagEnd += offset
		if selfClosing {
			segments = append(segments, text[tagStart:tagEnd])
			offset = tagEnd
			continue
		}
		bodyEnd, closerEnd, found := lang.FindCloser(text[tagEnd:], toolName)
		if !found {
			break
		}
		segments = append(segments, text[tagStart:tagEnd+closerEnd])
		_ = bodyEnd
		offset = tagEnd + closerEnd
	}
	return segments, nil
}

// xmlLanguage adapts xmlVariant to streamparser.TagLanguage.
type xmlLanguage struct {
	tools map[string]types.ToolDefinition
	names []string
	opts  *streamparser.ParseOptions
}

func (l *xmlLanguage) FindOpener(buffer string) (tagStart, tagEnd int, toolName string, selfClosing bool, found bool) {
	bestIdx := -1
	for _, name := range l.names {
		open := "<" + name + ">"
		if idx := strings.Index(buffer, open); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
			bestIdx, tagStart, tagEnd, toolName, selfClosing = idx, idx, idx+len(open), name, false
		}
		if idx, end, ok := selfCloseIndex(buffer, name); ok && (bestIdx == -1 || idx < bestIdx) {
			bestIdx, tagStart, tagEnd, toolName, selfClosing = idx, idx, end, name, true
		}
	}
	return tagStart, tagEnd, toolName, selfClosing, bestIdx >= 0
}

// selfCloseIndex returns the earliest "<name" occurrence in buffer that is
// followed, after optional whitespace, by "/>" — i.e. a self-closing tag
// tolerating a space before the slash ("<name />").
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

func (l *xmlLanguage) FindCloser(buffer string, toolName string) (bodyEnd, closerEnd int, found bool) {
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

func (l *xmlLanguage) SafePrefixLen(buffer string) int {
	markers := make([]string, 0, len(l.names)*2)
	for _, name := range l.names {
		markers = append(markers, "<"+name+">", "<"+name+"/>")
	}
	safe := safePrefixLen(buffer, markers)
	// A trailing "<name" followed only by whitespace (and perhaps "/") can
	// still complete as the "<name />" form that FindOpener accepts.
	for _, name := range l.names {
		idx := strings.LastIndex(buffer, "<"+name)
		if idx < 0 || idx >= safe {
			continue
		}
		if rest := strings.TrimLeft(buffer[idx+1+len(name):], " \t\r\n"); rest == "" || rest == "/" {
			safe = idx
		}
	}
	return safe
}

func (l *xmlLanguage) FinalizeBody(toolName string, body string) (resolvedName string, canonicalInput string, err error) {
	raw, perr := relaxedxml.Parse(body, l.xmlOpts())
	if perr != nil {
		return "", "", fmt.Errorf("xml: %w", perr)
	}
	coerced := l.coerce(toolName, raw)
	return toolName, relaxedjson.Stringify(coerced), nil
}

// Progressive only ever reports the tool name early: the canonical input is
// a fresh re-serialisation of the whole body on every call, so its closing
// punctuation shifts as a string value or sibling element grows ("<q>cat"
// to "<q>cats" moves where the serialised quote and brace land), and no
// snapshot is a textual prefix of the next. Emitting those as progressive
// deltas would violate delta-concatenation; the full canonical input is
// instead delivered as one shot, by FinalizeBody, once the closing tag
// actually arrives.
func (l *xmlLanguage) Progressive(toolName string, body string) (resolvedName string, nameReady bool, canonicalInput string, argsReady bool) {
	return toolName, true, "", false
}

func (l *xmlLanguage) PartialCloserSuffixLen(body string, toolName string) int {
	return partialSuffixLen(body, "</"+toolName+">")
}

func (l *xmlLanguage) xmlOpts() relaxedxml.Options {
	o := relaxedxml.Options{}
	if l.opts != nil {
		o.Repair = l.opts.Repair
		o.NoChildNodes = l.opts.NoChildNodes
	}
	return o
}

func (l *xmlLanguage) coerce(toolName string, raw map[string]interface{}) interface{} {
	tool, ok := l.tools[toolName]
	dedup := schema.DefaultCoerceOptions()
	if !ok || tool.InputSchema == nil {
		return raw
	}
	return schema.Coerce(raw, tool.InputSchema, dedup)
}
