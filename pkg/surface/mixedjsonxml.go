package surface

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kestrel-ai/toolbridge/pkg/generateparser"
	"github.com/kestrel-ai/toolbridge/pkg/idgen"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/relaxedjson"
	"github.com/kestrel-ai/toolbridge/pkg/schema"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

const (
	mixedStartDelim = "<tool_call>"
	mixedEndDelim   = "</tool_call>"
)

var (
	functionOpenRe  = regexp.MustCompile(`<function=([A-Za-z0-9_.\-]+)>`)
	parameterOpenRe = regexp.MustCompile(`<parameter=([A-Za-z0-9_.\-]+)>`)
)

// mixedJSONXML is the MixedJsonXml (Qwen3Coder-style) SurfaceProtocol
// variant (§4.1): a bespoke tag grammar,
// <tool_call><function=NAME><parameter=KEY>VALUE</parameter></function></tool_call>,
// wrapped in the same literal start/end delimiters as JsonTagged.
type mixedJSONXML struct {
	tools map[string]types.ToolDefinition
}

// NewMixedJsonXml constructs the MixedJsonXml variant over the declared
// tools.
func NewMixedJsonXml(tools []types.ToolDefinition) (Protocol, error) {
	byName, _, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	return &mixedJSONXML{tools: byName}, nil
}

func (m *mixedJSONXML) Name() string { return "mixed-json-xml" }

func (m *mixedJSONXML) FormatTools(tools []types.ToolDefinition, templateFn ToolSystemPromptTemplate) string {
	if templateFn != nil {
		return templateFn(tools)
	}
	var b strings.Builder
	b.WriteString("You can call the following tools. To call one, emit:\n")
	b.WriteString(mixedStartDelim + "<function=NAME><parameter=KEY>VALUE</parameter>...</function>" + mixedEndDelim)
	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		if t.InputSchema != nil {
			for _, p := range t.InputSchema.PropertyNames() {
				fmt.Fprintf(&b, "    parameter %s\n", p)
			}
		}
	}
	return b.String()
}

func (m *mixedJSONXML) FormatToolCall(tc types.ToolCall) string {
	var b strings.Builder
	b.WriteString(mixedStartDelim)
	fmt.Fprintf(&b, "<function=%s>", tc.ToolName)
	value, err := relaxedjson.Parse(tc.Input)
	if err == nil {
		if obj, ok := value.(*relaxedjson.Object); ok {
			for _, k := range obj.Keys() {
				v, _ := obj.Get(k)
				fmt.Fprintf(&b, "<parameter=%s>%v</parameter>", k, v)
			}
		}
	}
	b.WriteString("</function>")
	b.WriteString(mixedEndDelim)
	return b.String()
}

func (m *mixedJSONXML) ParseGeneratedText(text string, tools []types.ToolDefinition, opts *streamparser.ParseOptions) ([]types.ContentPart, error) {
	byName, _, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &mixedJSONXMLLanguage{tools: byName}
	intervals := generateparser.ScanDelimited(text, mixedStartDelim, mixedEndDelim)
	return assembleGenerateParserContent(text, intervals, lang.FinalizeBody, opts)
}

func (m *mixedJSONXML) CreateStreamParser(tools []types.ToolDefinition, opts *streamparser.ParseOptions) (*streamparser.Parser, error) {
	byName, _, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &mixedJSONXMLLanguage{tools: byName}
	return streamparser.New(lang, idgen.NewUUIDGenerator(), opts), nil
}

func (m *mixedJSONXML) ExtractToolCallSegments(text string, tools []types.ToolDefinition) ([]string, error) {
	var segments []string
	pos := 0
	for {
		startIdx := strings.Index(text[pos:], mixedStartDelim)
		if startIdx < 0 {
			break
		}
		startIdx += pos
		bodyStart := startIdx + len(mixedStartDelim)
		endIdx := strings.Index(text[bodyStart:], mixedEndDelim)
		if endIdx < 0 {
			break
		}
		endIdx += bodyStart
		segments = append(segments, text[startIdx:endIdx+len(mixedEndDelim)])
		pos = endIdx + len(mixedEndDelim)
	}
	return segments, nil
}

// mixedJSONXMLLanguage adapts mixedJSONXML to streamparser.TagLanguage. The
// outer delimiters behave exactly like JsonTagged's; only the body grammar
// differs.
type mixedJSONXMLLanguage struct {
	tools map[string]types.ToolDefinition
}

func (l *mixedJSONXMLLanguage) FindOpener(buffer string) (tagStart, tagEnd int, toolName string, selfClosing bool, found bool) {
	idx := strings.Index(buffer, mixedStartDelim)
	if idx < 0 {
		return 0, 0, "", false, false
	}
	return idx, idx + len(mixedStartDelim), "", false, true
}

func (l *mixedJSONXMLLanguage) FindCloser(buffer string, toolName string) (bodyEnd, closerEnd int, found bool) {
	idx := strings.Index(buffer, mixedEndDelim)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(mixedEndDelim), true
}

func (l *mixedJSONXMLLanguage) SafePrefixLen(buffer string) int {
	return safePrefixLen(buffer, []string{mixedStartDelim})
}

func (l *mixedJSONXMLLanguage) FinalizeBody(toolName string, body string) (resolvedName string, canonicalInput string, err error) {
	name, args, ok := parseMixedBody(body)
	if !ok {
		return "", "", fmt.Errorf("mixed-json-xml: body does not match <function=NAME><parameter=KEY>VALUE</parameter>...</function>")
	}
	coerced := l.coerce(name, args)
	return name, relaxedjson.Stringify(coerced), nil
}

func (l *mixedJSONXMLLanguage) Progressive(toolName string, body string) (resolvedName string, nameReady bool, canonicalInput string, argsReady bool) {
	if m := functionOpenRe.FindStringSubmatch(body); m != nil {
		resolvedName = m[1]
		nameReady = true
	}
	name, args, ok := parseMixedBody(body)
	if !ok {
		return resolvedName, nameReady, "", false
	}
	coerced := l.coerce(name, args)
	return resolvedName, nameReady, relaxedjson.Stringify(coerced), true
}

func (l *mixedJSONXMLLanguage) PartialCloserSuffixLen(body string, toolName string) int {
	return partialSuffixLen(body, "</function>")
}

func (l *mixedJSONXMLLanguage) coerce(toolName string, raw map[string]interface{}) interface{} {
	tool, ok := l.tools[toolName]
	if !ok || tool.InputSchema == nil {
		return raw
	}
	return schema.Coerce(raw, tool.InputSchema, schema.DefaultCoerceOptions())
}

// parseMixedBody extracts the function name and parameter map from a
// <function=NAME><parameter=KEY>VALUE</parameter>...</function> body.
func parseMixedBody(body string) (name string, args map[string]interface{}, ok bool) {
	fm := functionOpenRe.FindStringSubmatchIndex(body)
	if fm == nil {
		return "", nil, false
	}
	name = body[fm[2]:fm[3]]
	rest := body[fm[1]:]
	closeIdx := strings.Index(rest, "</function>")
	if closeIdx < 0 {
		return "", nil, false
	}
	inner := rest[:closeIdx]

	args = make(map[string]interface{})
	matches := parameterOpenRe.FindAllStringSubmatchIndex(inner, -1)
	for i, m := range matches {
		key := inner[m[2]:m[3]]
		valStart := m[1]
		valEnd := len(inner)
		if i+1 < len(matches) {
			valEnd = matches[i+1][0]
		}
		segment := inner[valStart:valEnd]
		closeTag := "</parameter>"
		if idx := strings.Index(segment, closeTag); idx >= 0 {
			segment = segment[:idx]
		}
		appendChild(args, key, segment)
	}
	return name, args, true
}

func appendChild(into map[string]interface{}, key string, value interface{}) {
	existing, ok := into[key]
	if !ok {
		into[key] = value
		return
	}
	if list, ok := existing.([]interface{}); ok {
		into[key] = append(list, value)
		return
	}
	into[key] = []interface{}{existing, value}
}
