package surface

import (
	"strings"

	"github.com/kestrel-ai/toolbridge/pkg/generateparser"
	"github.com/kestrel-ai/toolbridge/pkg/idgen"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

// safePrefixLen implements §4.2's partial-tag look-ahead rule: the earliest
// index i at which buffer[i:] is a non-empty prefix of any marker in
// markers marks the start of the held region. Callers only invoke this
// once no marker has been found in full, so no full match is possible
// here.
func safePrefixLen(buffer string, markers []string) int {
	for i := 0; i < len(buffer); i++ {
		remaining := buffer[i:]
		for _, m := range markers {
			if m == "" {
				continue
			}
			limit := len(remaining)
			if len(m) < limit {
				limit = len(m)
			}
			if remaining[:limit] == m[:limit] {
				return i
			}
		}
	}
	return len(buffer)
}

// partialSuffixLen returns the length of the longest proper, non-empty
// suffix of body that is also a prefix of closer — i.e. how much of a
// closer's opening bytes body ends with without actually containing the
// whole closer. Used by §4.7 end-of-stream reconciliation to strip a
// trailing partial closer (e.g. "</tool_") and retry the parse.
func partialSuffixLen(body string, closer string) int {
	maxLen := len(closer) - 1
	if maxLen > len(body) {
		maxLen = len(body)
	}
	for l := maxLen; l > 0; l-- {
		if strings.HasSuffix(body, closer[:l]) {
			return l
		}
	}
	return 0
}

// finalizeFunc parses an interval's raw body into the canonical
// {resolvedName, canonicalInput} pair a language's FinalizeBody produces.
type finalizeFunc func(toolName string, body string) (resolvedName string, canonicalInput string, err error)

// assembleGenerateParserContent turns a sorted, non-overlapping set of
// generateparser.Interval occurrences into the ordered []types.ContentPart
// sequence ParseGeneratedText returns (§4.3): text between and around
// intervals becomes TextContent, each interval's body is finalised via fn
// and becomes ToolCallContent, and a finalisation failure is reported
// through opts.OnError and either suppressed or surfaced as text per
// opts.EmitRawToolCallTextOnError (mirroring §4.5 step 4).
func assembleGenerateParserContent(text string, intervals []generateparser.Interval, fn finalizeFunc, opts *streamparser.ParseOptions) ([]types.ContentPart, error) {
	var out []types.ContentPart
	ids := idgen.NewUUIDGenerator()
	pos := 0
	emitText := func(s string) {
		if s != "" {
			out = append(out, types.TextContent{Text: s})
		}
	}
	for _, iv := range intervals {
		emitText(text[pos:iv.TagStart])
		resolvedName, canonicalInput, err := fn(iv.ToolName, iv.Body)
		if err != nil {
			reportGenerateParserError(opts, iv, err)
			if opts != nil && opts.EmitRawToolCallTextOnError {
				emitText(text[iv.TagStart:iv.End])
			}
		} else {
			out = append(out, types.ToolCallContent{ID: ids.Next(), ToolName: resolvedName, Input: canonicalInput})
		}
		pos = iv.End
	}
	emitText(text[pos:])
	return out, nil
}

func reportGenerateParserError(opts *streamparser.ParseOptions, iv generateparser.Interval, err error) {
	if opts == nil || opts.OnError == nil {
		return
	}
	opts.OnError(err.Error(), streamparser.ErrorMeta{ToolCall: iv.ToolName, Error: err})
}
