package java

import (
	"strings"
	"unicode"
)

// RemoveComments deletes every block and line comment from code and
// prettifies the result.
func (s *Sitter) RemoveComments(code string) (string, error) {
	stripped, err := s.deleteMatches(QueryComment, code)
	if err != nil {
		return "", err
	}
	return s.Prettify(stripped)
}

// Prettify normalizes pruned source: leftover block comments are deleted,
// trailing whitespace is stripped, lines starting with a comment leader
// ("/" or "*") are dropped, runs of blank lines collapse to one and the
// result is trimmed.
func (s *Sitter) Prettify(code string) (string, error) {
	stripped, err := s.deleteMatches(QueryBlockComment, code)
	if err != nil {
		return "", err
	}
	return tidyLines(stripped), nil
}

func (s *Sitter) deleteMatches(pattern, code string) (string, error) {
	result, err := s.engine.ParseString(code)
	if err != nil {
		return "", err
	}
	captures, err := s.engine.CapturesIn(pattern, result.Root(), result.Source)
	if err != nil {
		return "", err
	}
	if captures.Len() == 0 {
		return code, nil
	}
	spans := make([]Span, 0, captures.Len())
	for _, c := range captures {
		spans = append(spans, NodeSpan(c.Node))
	}
	return Splice(result.Source, spans), nil
}

func tidyLines(code string) string {
	lines := strings.Split(code, "\n")
	kept := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		lead := strings.TrimLeftFunc(line, unicode.IsSpace)
		if strings.HasPrefix(lead, "/") || strings.HasPrefix(lead, "*") {
			continue
		}
		blank := line == ""
		if blank && prevBlank {
			continue
		}
		prevBlank = blank
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
