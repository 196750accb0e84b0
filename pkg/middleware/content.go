package middleware

import "github.com/kestrel-ai/toolbridge/pkg/provider/types"

// resultText concatenates every TextContent part of a GenerateResult, in
// order, the way the teacher's flat Text field used to read.
func resultText(result *types.GenerateResult) string {
	var text string
	for _, part := range result.Content {
		if tc, ok := part.(types.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

// withResultText returns a copy of result with every existing TextContent
// part replaced by a single TextContent at the front carrying newText. Other
// content parts (tool calls, reasoning, unknown) are preserved in order.
func withResultText(result *types.GenerateResult, newText string) *types.GenerateResult {
	rest := make([]types.ContentPart, 0, len(result.Content)+1)
	for _, part := range result.Content {
		if _, ok := part.(types.TextContent); ok {
			continue
		}
		rest = append(rest, part)
	}

	content := rest
	if newText != "" {
		content = append([]types.ContentPart{types.TextContent{Text: newText}}, rest...)
	}

	updated := *result
	updated.Content = content
	return &updated
}

// withParsedContent returns a copy of result with every existing TextContent
// part removed and parsed prepended in its place. parsed is the mixed
// text/tool-call sequence a SurfaceProtocol's ParseGeneratedText produces;
// other content parts (reasoning, unknown) from an earlier middleware stage
// are preserved after it.
func withParsedContent(result *types.GenerateResult, parsed []types.ContentPart) *types.GenerateResult {
	rest := make([]types.ContentPart, 0, len(result.Content))
	for _, part := range result.Content {
		if _, ok := part.(types.TextContent); ok {
			continue
		}
		rest = append(rest, part)
	}

	content := make([]types.ContentPart, 0, len(parsed)+len(rest))
	content = append(content, parsed...)
	content = append(content, rest...)

	updated := *result
	updated.Content = content
	return &updated
}
