package streamparser

import (
	"strings"

	"github.com/kestrel-ai/toolbridge/pkg/idgen"
	"github.com/kestrel-ai/toolbridge/pkg/provider"
)

// Parser is the StreamParser engine (§4.4). It is parameterised by a
// TagLanguage (supplied by a pkg/surface variant) and owns its State
// exclusively; nothing else holds a reference to it (§9).
type Parser struct {
	lang TagLanguage
	ids  idgen.Generator
	opts *ParseOptions

	state State
	out   []provider.StreamPart
}

// New constructs a Parser. ids allocates tool-call ids (§9 id discipline);
// opts may be nil, in which case DefaultParseOptions() behaviour applies.
func New(lang TagLanguage, ids idgen.Generator, opts *ParseOptions) *Parser {
	return &Parser{lang: lang, ids: ids, opts: opts}
}

// Push feeds one upstream StreamPart and returns the downstream parts it
// produces (possibly empty, possibly several).
func (p *Parser) Push(part provider.StreamPart) []provider.StreamPart {
	p.out = p.out[:0]

	switch part.Kind {
	case provider.PartKindTextDelta:
		p.state.buffer += part.Delta
		p.drive()
	case provider.PartKindFinish:
		p.reconcileFinish(part)
	default:
		// "first flush safely; then pass through" (§4.4): an interleaved
		// non-text part must not prematurely finalise an open tool call,
		// so only Outside buffered text is flushed.
		if p.state.mode == ModeOutside {
			p.flushSafePrefix()
		}
		p.out = append(p.out, part)
	}

	return p.drain()
}

// Flush signals the downstream pipe is closing, equivalent to Finish
// handling for any still-open tool call or text block (§4.4).
func (p *Parser) Flush() []provider.StreamPart {
	p.out = p.out[:0]
	p.reconcileFinish(provider.StreamPart{Kind: provider.PartKindFinish})
	return p.drain()
}

func (p *Parser) drain() []provider.StreamPart {
	out := make([]provider.StreamPart, len(p.out))
	copy(out, p.out)
	return out
}

func (p *Parser) emit(part provider.StreamPart) {
	p.out = append(p.out, part)
}

// drive runs the Outside/Inside loop (§4.4 step "Then loop") until neither
// branch can make further progress with the currently buffered bytes.
func (p *Parser) drive() {
	for {
		switch p.state.mode {
		case ModeOutside:
			if !p.driveOutside() {
				return
			}
		case ModeInsideTool:
			if !p.driveInside() {
				return
			}
		}
	}
}

// driveOutside processes one Outside step. Returns true if the loop should
// continue (state changed and more buffer may remain to process).
func (p *Parser) driveOutside() bool {
	buf := p.state.buffer
	tagStart, tagEnd, toolName, selfClosing, found := p.lang.FindOpener(buf)
	if !found {
		p.flushSafePrefix()
		return false
	}

	if tagStart > 0 {
		p.flushText(buf[:tagStart])
	}
	p.closeTextBlock()

	p.state.buffer = buf[tagEnd:]

	if selfClosing {
		p.finalizeCall(toolName, "")
		return true
	}

	p.state.mode = ModeInsideTool
	p.state.insideToolName = toolName
	return true
}

// driveInside processes one Inside(T) step. Returns true if the loop
// should continue.
func (p *Parser) driveInside() bool {
	buf := p.state.buffer
	bodyEnd, closerEnd, found := p.lang.FindCloser(buf, p.state.insideToolName)
	if !found {
		p.emitProgress(buf)
		return false
	}

	body := buf[:bodyEnd]
	p.state.buffer = buf[closerEnd:]
	p.finalizeCall(p.state.insideToolName, body)
	p.state.mode = ModeOutside
	p.state.insideToolName = ""
	return true
}

// flushSafePrefix flushes the longest Outside-mode safe prefix as text,
// holding the rest for the next chunk (§4.2).
func (p *Parser) flushSafePrefix() {
	safe := p.lang.SafePrefixLen(p.state.buffer)
	if safe <= 0 {
		return
	}
	p.flushText(p.state.buffer[:safe])
	p.state.buffer = p.state.buffer[safe:]
}

func (p *Parser) flushText(s string) {
	if s == "" {
		return
	}
	p.openTextBlock()
	p.emit(provider.StreamPart{Kind: provider.PartKindTextDelta, ID: p.state.currentTextID, Delta: s})
}

func (p *Parser) openTextBlock() {
	if p.state.textStartEmitted {
		return
	}
	p.state.currentTextID = p.ids.Next()
	p.state.textStartEmitted = true
	p.emit(provider.StreamPart{Kind: provider.PartKindTextStart, ID: p.state.currentTextID})
}

func (p *Parser) closeTextBlock() {
	if !p.state.textStartEmitted {
		return
	}
	p.emit(provider.StreamPart{Kind: provider.PartKindTextEnd, ID: p.state.currentTextID})
	p.state.textStartEmitted = false
	p.state.currentTextID = ""
}

// emitProgress runs §4.6's progressive tool-input-delta emission against
// the still-growing body.
func (p *Parser) emitProgress(body string) {
	resolvedName, nameReady, canonicalInput, argsReady := p.lang.Progressive(p.state.insideToolName, body)

	if nameReady && p.state.active == nil {
		p.startActiveTool(resolvedName)
	}
	if p.state.active != nil && resolvedName != "" {
		p.state.active.toolName = resolvedName
	}

	if argsReady && p.state.active != nil && p.state.active.startEmitted {
		p.emitDelta(canonicalInput)
	}
}

func (p *Parser) startActiveTool(toolName string) {
	id := p.ids.Next()
	p.state.active = &activeToolInput{id: id, toolName: toolName}
	p.emit(provider.StreamPart{Kind: provider.PartKindToolInputStart, ID: id, ToolName: toolName})
	p.state.active.startEmitted = true
}

// emitDelta emits the suffix of canonicalInput beyond what was already
// emitted, provided it is a strict extension (deltas never retract, §4.6).
func (p *Parser) emitDelta(canonicalInput string) {
	a := p.state.active
	if !strings.HasPrefix(canonicalInput, a.emittedPrefix) {
		return
	}
	tail := canonicalInput[len(a.emittedPrefix):]
	if tail == "" {
		return
	}
	p.emit(provider.StreamPart{Kind: provider.PartKindToolInputDelta, ID: a.id, Delta: tail})
	a.emittedPrefix = canonicalInput
}

// finalizeCall implements §4.5: terminator found (or self-closing body),
// parse the body and emit the final delta/end/tool-call, or the error path.
func (p *Parser) finalizeCall(openedAs string, body string) {
	p.closeTextBlock()

	resolvedName, canonicalInput, err := p.lang.FinalizeBody(openedAs, body)
	if err != nil {
		p.finalizeError(openedAs, body, err)
		return
	}

	if p.state.active == nil {
		p.startActiveTool(resolvedName)
	} else if resolvedName != "" {
		p.state.active.toolName = resolvedName
	}
	a := p.state.active
	p.emitDelta(canonicalInput)
	p.emit(provider.StreamPart{Kind: provider.PartKindToolInputEnd, ID: a.id})
	p.emit(provider.StreamPart{Kind: provider.PartKindToolCall, ID: a.id, ToolName: a.toolName, Input: canonicalInput})
	p.state.active = nil
}

func (p *Parser) finalizeError(toolName, rawSegment string, cause error) {
	p.opts.onError("malformed tool call body", ErrorMeta{ToolCall: rawSegment, Error: cause})

	if p.state.active != nil {
		p.emit(provider.StreamPart{Kind: provider.PartKindToolInputEnd, ID: p.state.active.id})
		p.state.active = nil
	}
	if p.opts.emitRawOnError() {
		p.openTextBlock()
		p.emit(provider.StreamPart{Kind: provider.PartKindTextDelta, ID: p.state.currentTextID, Delta: rawSegment})
		p.closeTextBlock()
	}
}

// reconcileFinish implements §4.7.
func (p *Parser) reconcileFinish(finishPart provider.StreamPart) {
	switch p.state.mode {
	case ModeInsideTool:
		p.reconcileInsideToolFinish()
	case ModeOutside:
		if p.state.buffer != "" {
			p.flushText(p.state.buffer)
			p.state.buffer = ""
		}
	}
	p.closeTextBlock()
	p.emit(finishPart)
}

func (p *Parser) reconcileInsideToolFinish() {
	body := p.state.buffer
	toolName := p.state.insideToolName

	resolvedName, canonicalInput, err := p.lang.FinalizeBody(toolName, body)
	retries := 0
	for err != nil && retries < p.opts.maxReparses() {
		suffixLen := p.lang.PartialCloserSuffixLen(body, toolName)
		if suffixLen == 0 {
			break
		}
		body = body[:len(body)-suffixLen]
		resolvedName, canonicalInput, err = p.lang.FinalizeBody(toolName, body)
		retries++
	}

	if err == nil {
		if p.state.active == nil {
			p.startActiveTool(resolvedName)
		} else if resolvedName != "" {
			p.state.active.toolName = resolvedName
		}
		a := p.state.active
		p.emitDelta(canonicalInput)
		p.emit(provider.StreamPart{Kind: provider.PartKindToolInputEnd, ID: a.id})
		p.emit(provider.StreamPart{Kind: provider.PartKindToolCall, ID: a.id, ToolName: a.toolName, Input: canonicalInput})
		p.state.active = nil
	} else {
		p.finalizeError(toolName, body, err)
	}

	p.state.buffer = ""
	p.state.mode = ModeOutside
	p.state.insideToolName = ""
}
