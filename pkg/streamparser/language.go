package streamparser

// TagLanguage is the capability a SurfaceProtocol variant supplies to drive
// the shared engine: how to recognise opening/closing delimiters on a
// growing buffer, and how to turn a tool-call body into canonical JSON
// input, both for a complete body (FinalizeBody) and for a still-growing
// one (Progressive, §4.6).
type TagLanguage interface {
	// FindOpener scans buffer, in Outside mode, for the earliest
	// recognised opening tag. tagEnd is the offset where the tool body
	// begins (i.e. where Inside mode starts consuming). toolName is the
	// name already known from the opener itself; it is "" when the
	// variant cannot determine the name until the body is parsed
	// (JsonTagged). selfClosing means the call has an empty body and no
	// closer should be awaited.
	FindOpener(buffer string) (tagStart, tagEnd int, toolName string, selfClosing bool, found bool)

	// FindCloser scans buffer, in Inside(toolName) mode, for the
	// terminating closer. bodyEnd is the exclusive end of the tool body;
	// closerEnd is the exclusive end of the consumed closer, where
	// Outside mode resumes.
	FindCloser(buffer string, toolName string) (bodyEnd, closerEnd int, found bool)

	// SafePrefixLen (Outside mode) returns the number of leading bytes of
	// buffer guaranteed not to be a non-empty prefix of any recognised
	// opener (§4.2). The engine flushes that many bytes as text and holds
	// the rest.
	SafePrefixLen(buffer string) int

	// FinalizeBody parses a complete raw body for a tool call opened as
	// toolName (possibly "") into the resolved tool name and canonical
	// JSON arguments (§4.5 step 3). resolvedName lets JsonTagged report
	// the name it only learns from inside the body.
	FinalizeBody(toolName string, body string) (resolvedName string, canonicalInput string, err error)

	// Progressive attempts a best-effort partial parse of a still-growing
	// body (§4.6). nameReady reports whether the tool name is now known;
	// argsReady reports whether canonicalInput reflects a freshly
	// re-parsed, complete top-level arguments value worth diffing against
	// the previously emitted prefix.
	Progressive(toolName string, body string) (resolvedName string, nameReady bool, canonicalInput string, argsReady bool)

	// PartialCloserSuffixLen returns the length of a trailing partial
	// prefix of the closer for toolName found at the end of body, used by
	// end-of-stream reconciliation (§4.7) to retry after truncating it.
	// Returns 0 if body has no such trailing partial closer.
	PartialCloserSuffixLen(body string, toolName string) int
}
