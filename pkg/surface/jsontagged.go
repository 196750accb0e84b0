package surface

import (
	"fmt"
	"strings"

	"github.com/kestrel-ai/toolbridge/pkg/generateparser"
	"github.com/kestrel-ai/toolbridge/pkg/idgen"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/relaxedjson"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

// JsonTaggedOptions configures the JsonTagged variant's delimiters (§4.1:
// "Delimiters are configurable (e.g. Markdown fences)").
type JsonTaggedOptions struct {
	StartDelimiter string
	EndDelimiter   string
}

// DefaultJsonTaggedOptions returns the canonical "<tool_call>"/"</tool_call>"
// delimiter pair.
func DefaultJsonTaggedOptions() JsonTaggedOptions {
	return JsonTaggedOptions{StartDelimiter: "<tool_call>", EndDelimiter: "</tool_call>"}
}

// MarkdownFenceJsonTaggedOptions uses a fenced-code-block delimiter pair
// (```tool_call ... ```), a shape some models are more reliably fine-tuned
// to emit than a bespoke XML-like tag (supplemented in SPEC_FULL §11).
func MarkdownFenceJsonTaggedOptions() JsonTaggedOptions {
	return JsonTaggedOptions{StartDelimiter: "```tool_call\n", EndDelimiter: "\n```"}
}

// jsonTagged is the JsonTagged SurfaceProtocol variant (§4.1): a tool call
// is a literal start delimiter, a `{name, arguments}` JSON document decoded
// by RelaxedJson, and a literal end delimiter.
type jsonTagged struct {
	opts  JsonTaggedOptions
	tools map[string]types.ToolDefinition
}

// NewJsonTagged constructs the JsonTagged variant over the declared tools.
func NewJsonTagged(tools []types.ToolDefinition, opts JsonTaggedOptions) (Protocol, error) {
	byName, _, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	if opts.StartDelimiter == "" {
		opts = DefaultJsonTaggedOptions()
	}
	return &jsonTagged{opts: opts, tools: byName}, nil
}

func (j *jsonTagged) Name() string { return "json-tagged" }

func (j *jsonTagged) FormatTools(tools []types.ToolDefinition, templateFn ToolSystemPromptTemplate) string {
	if templateFn != nil {
		return templateFn(tools)
	}
	var b strings.Builder
	b.WriteString("You can call the following tools. To call one, emit exactly:\n")
	b.WriteString(j.opts.StartDelimiter)
	b.WriteString(`{"name": "<tool name>", "arguments": { ... }}`)
	b.WriteString(j.opts.EndDelimiter)
	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	return b.String()
}

func (j *jsonTagged) FormatToolCall(tc types.ToolCall) string {
	var b strings.Builder
	b.WriteString(j.opts.StartDelimiter)
	fmt.Fprintf(&b, `{"name": %s, "arguments": %s}`, relaxedjson.Stringify(tc.ToolName), tc.Input)
	b.WriteString(j.opts.EndDelimiter)
	return b.String()
}

func (j *jsonTagged) ParseGeneratedText(text string, tools []types.ToolDefinition, opts *streamparser.ParseOptions) ([]types.ContentPart, error) {
	byName, _, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &jsonTaggedLanguage{opts: j.opts, tools: byName}
	intervals := generateparser.ScanDelimited(text, j.opts.StartDelimiter, j.opts.EndDelimiter)
	return assembleGenerateParserContent(text, intervals, lang.FinalizeBody, opts)
}

func (j *jsonTagged) CreateStreamParser(tools []types.ToolDefinition, opts *streamparser.ParseOptions) (*streamparser.Parser, error) {
	byName, _, err := validateTools(tools)
	if err != nil {
		return nil, err
	}
	lang := &jsonTaggedLanguage{opts: j.opts, tools: byName}
	return streamparser.New(lang, idgen.NewUUIDGenerator(), opts), nil
}

func (j *jsonTagged) ExtractToolCallSegments(text string, tools []types.ToolDefinition) ([]string, error) {
	var segments []string
	pos := 0
	for {
		startIdx := strings.Index(text[pos:], j.opts.StartDelimiter)
		if startIdx < 0 {
			break
		}
		startIdx += pos
		bodyStart := startIdx + len(j.opts.StartDelimiter)
		endIdx := strings.Index(text[bodyStart:], j.opts.EndDelimiter)
		if endIdx < 0 {
			break
		}
		endIdx += bodyStart
		segments = append(segments, text[startIdx:endIdx+len(j.opts.EndDelimiter)])
		pos = endIdx + len(j.opts.EndDelimiter)
	}
	return segments, nil
}

// jsonTaggedLanguage adapts jsonTagged to streamparser.TagLanguage.
type jsonTaggedLanguage struct {
	opts  JsonTaggedOptions
	tools map[string]types.ToolDefinition
}

func (l *jsonTaggedLanguage) FindOpener(buffer string) (tagStart, tagEnd int, toolName string, selfClosing bool, found bool) {
	idx := strings.Index(buffer, l.opts.StartDelimiter)
	if idx < 0 {
		return 0, 0, "", false, false
	}
	return idx, idx + len(l.opts.StartDelimiter), "", false, true
}

func (l *jsonTaggedLanguage) FindCloser(buffer string, toolName string) (bodyEnd, closerEnd int, found bool) {
	idx := strings.Index(buffer, l.opts.EndDelimiter)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(l.opts.EndDelimiter), true
}

func (l *jsonTaggedLanguage) SafePrefixLen(buffer string) int {
	return safePrefixLen(buffer, []string{l.opts.StartDelimiter})
}

func (l *jsonTaggedLanguage) FinalizeBody(toolName string, body string) (resolvedName string, canonicalInput string, err error) {
	value, perr := relaxedjson.Parse(body)
	if perr != nil {
		res := relaxedjson.ParsePartial(body)
		if res.State != relaxedjson.ParseStateRepaired && res.State != relaxedjson.ParseStateSuccessful {
			return "", "", fmt.Errorf("jsontagged: %w", perr)
		}
		value = res.Value
	}
	obj, ok := value.(*relaxedjson.Object)
	if !ok {
		return "", "", fmt.Errorf("jsontagged: tool call body is not a JSON object")
	}
	nameVal, _ := obj.Get("name")
	name, _ := nameVal.(string)
	if name == "" {
		return "", "", fmt.Errorf("jsontagged: tool call body is missing a string \"name\"")
	}
	argsVal, hasArgs := obj.Get("arguments")
	if !hasArgs || argsVal == nil {
		argsVal = relaxedjson.NewObject()
	}
	return name, relaxedjson.Stringify(argsVal), nil
}

func (l *jsonTaggedLanguage) Progressive(toolName string, body string) (resolvedName string, nameReady bool, canonicalInput string, argsReady bool) {
	if nameStart, ok := relaxedjson.FindKeyValueStart(body, "name"); ok {
		if end, complete := relaxedjson.ScanValueSpan(body, nameStart); complete {
			if v, err := relaxedjson.Parse(body[nameStart:end]); err == nil {
				if s, ok := v.(string); ok && s != "" {
					resolvedName = s
					nameReady = true
				}
			}
		}
	}

	if argStart, ok := relaxedjson.FindKeyValueStart(body, "arguments"); ok {
		if end, complete := relaxedjson.ScanValueSpan(body, argStart); complete {
			if v, err := relaxedjson.Parse(body[argStart:end]); err == nil {
				if v == nil {
					v = relaxedjson.NewObject()
				}
				canonicalInput = relaxedjson.Stringify(v)
				argsReady = true
			}
		}
	}
	return resolvedName, nameReady, canonicalInput, argsReady
}

func (l *jsonTaggedLanguage) PartialCloserSuffixLen(body string, toolName string) int {
	return partialSuffixLen(body, l.opts.EndDelimiter)
}
