package assistant

import "strings"

// ExtractResult is the outcome of scanning one assistant reply.
type ExtractResult struct {
	HasCommand bool
	Commands   []*Command
	// Message is the user-visible text with command objects removed
	// when any were found, otherwise the original text unchanged.
	Message string
}

// Extract scans raw model output for embedded command objects.
//
// The scan keeps a brace-depth counter over the fence-stripped text.
// Each balanced top-level {...} span is a candidate; candidates that
// fail to parse, or parse to an unrecognized action, are discarded
// silently. When at least one command is found, every balanced span is
// removed from the text and the remainder trimmed.
func Extract(raw string) *ExtractResult {
	stripped := stripFences(raw)

	spans := scanBraceSpans(stripped)
	commands := make([]*Command, 0, len(spans))
	for _, span := range spans {
		if cmd, ok := parseCommand(stripped[span.start:span.end]); ok {
			commands = append(commands, cmd)
		}
	}

	if len(commands) == 0 {
		return &ExtractResult{HasCommand: false, Message: raw}
	}

	var sb strings.Builder
	last := 0
	for _, span := range spans {
		sb.WriteString(stripped[last:span.start])
		last = span.end
	}
	sb.WriteString(stripped[last:])

	return &ExtractResult{
		HasCommand: true,
		Commands:   commands,
		Message:    strings.TrimSpace(sb.String()),
	}
}

type braceSpan struct {
	start, end int // end is exclusive
}

// scanBraceSpans returns every balanced top-level brace span, left to
// right. Unbalanced trailing braces yield no span.
func scanBraceSpans(s string) []braceSpan {
	var spans []braceSpan
	depth := 0
	start := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, braceSpan{start: start, end: i + 1})
				start = -1
			}
		}
	}
	return spans
}

// stripFences removes markdown code-fence delimiter lines, keeping the
// fenced content itself so embedded commands stay scannable.
func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
