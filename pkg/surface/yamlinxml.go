package surface

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/kestrel-ai/toolbridge/pkg/generateparser"
	"github.com/kestrel-ai/toolbridge/pkg/idgen"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/relaxedjson"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

// yamlInXML is the YamlInXml SurfaceProtocol variant (§4.1): like Xml, the
// tool name is the element tag, but the element wraps a YAML mapping
// instead of nested XML elements.
type yamlInXML struct {
	tools map[string]types.ToolDefinition
	names []string
}

// NewYamlInXml constructs the YamlInXml variant over the declared tools.
func NewYamlInXml(tools []types.ToolDefinition) (Protocol, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	return &yamlInXML{tools: byName, names: names}, nil
}

func (y *yamlInXML) Name() string { return "yaml-in-xml" }

func (y *yamlInXML) FormatTools(tools []types.ToolDefinition, templateFn ToolSystemPromptTemplate) string {
	if templateFn != nil {
		return templateFn(tools)
	}
	var b strings.Builder
	b.WriteString("You can call the following tools. To call one, emit an XML element whose tag is the tool name, wrapping a YAML mapping of its arguments:\n\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "<%s>\n", t.Name)
		if t.InputSchema != nil {
			for _, p := range t.InputSchema.PropertyNames() {
				fmt.Fprintf(&b, "  %s: ...\n", p)
			}
		}
		fmt.Fprintf(&b, "</%s>\n", t.Name)
	}
	return b.String()
}

func (y *yamlInXML) FormatToolCall(tc types.ToolCall) string {
	value, err := relaxedjson.Parse(tc.Input)
	if err != nil {
		return fmt.Sprintf("<%s></%s>", tc.ToolName, tc.ToolName)
	}
	yamlBytes, merr := yaml.Marshal(toPlainValue(value))
	if merr != nil {
		return fmt.Sprintf("<%s></%s>", tc.ToolName, tc.ToolName)
	}
	return fmt.Sprintf("<%s>\n%s</%s>", tc.ToolName, string(yamlBytes), tc.ToolName)
}

func toPlainValue(value interface{}) interface{} {
	if obj, ok := value.(*relaxedjson.Object); ok {
		return obj.ToMap()
	}
	return value
}

func (y *yamlInXML) ParseGeneratedText(text string, tools []types.ToolDefinition, opts *streamparser.ParseOptions) ([]types.ContentPart, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &yamlInXMLLanguage{xmlLanguage: xmlLanguage{tools: byName, names: names, opts: opts}}

	intervals := generateparser.ScanXMLCalls(text, names)
	if len(intervals) == 0 {
		if interval, ok := generateparser.LinePrefixedFallback(text, names); ok {
			intervals = []generateparser.Interval{interval}
		}
	}

	return assembleGenerateParserContent(text, intervals, lang.FinalizeBody, opts)
}

func (y *yamlInXML) CreateStreamParser(tools []types.ToolDefinition, opts *streamparser.ParseOptions) (*streamparser.Parser, error) {
	byName, names, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &yamlInXMLLanguage{xmlLanguage: xmlLanguage{tools: byName, names: names, opts: opts}}
	return streamparser.New(lang, idgen.NewUUIDGenerator(), opts), nil
}

func (y *yamlInXML) ExtractToolCallSegments(text string, tools []types.ToolDefinition) ([]string, error) {
	x := &xmlVariant{tools: y.tools, names: y.names}
	return x.ExtractToolCallSegments(text, tools)
}

// yamlInXMLLanguage reuses xmlLanguage's tag recognition (element name ==
// tool name) but parses the body as YAML rather than nested XML.
type yamlInXMLLanguage struct {
	xmlLanguage
}

func (l *yamlInXMLLanguage) FinalizeBody(toolName string, body string) (resolvedName string, canonicalInput string, err error) {
	data, ok := parseYAMLMapping(dedent(body))
	if !ok {
		return "", "", fmt.Errorf("yaml-in-xml: body is not a YAML mapping")
	}
	coerced := l.coerce(toolName, data)
	return toolName, relaxedjson.Stringify(coerced), nil
}

// Progressive defers to FinalizeBody for the same reason xmlLanguage's does:
// a re-serialised YAML-derived snapshot is not a textual prefix of the next
// one as the body grows, so only the tool name is reported early.
func (l *yamlInXMLLanguage) Progressive(toolName string, body string) (resolvedName string, nameReady bool, canonicalInput string, argsReady bool) {
	return toolName, true, "", false
}

// parseYAMLMapping parses body as YAML, then runs the result through
// mapstructure (with weak typing) to land it in a plain map[string]interface{}
// ahead of schema-directed coercion, rejecting shapes that are not a mapping
// (a null or sequence root, for instance) rather than a one.
func parseYAMLMapping(body string) (map[string]interface{}, bool) {
	if strings.TrimSpace(body) == "" {
		return nil, false
	}
	var raw interface{}
	if err := yaml.Unmarshal([]byte(body), &raw); err != nil || raw == nil {
		return nil, false
	}

	data := make(map[string]interface{})
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &data,
	})
	if err != nil || decoder.Decode(raw) != nil {
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

// dedent removes the common leading whitespace from every non-blank line,
// the "indentation normalisation" §4.1 requires for a YamlInXml body
// captured from inside an XML element.
func dedent(body string) string {
	lines := strings.Split(body, "\n")
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return body
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}
