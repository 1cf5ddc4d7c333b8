package java

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Span is a half-open byte range [Start, End) over a source buffer.
type Span struct {
	Start uint32
	End   uint32
}

// NodeSpan returns the byte range covered by node.
func NodeSpan(node *sitter.Node) Span {
	return Span{Start: node.StartByte(), End: node.EndByte()}
}

// Splice returns source with every span removed. Spans may overlap and come
// in any order; they are merged before copying so only retained ranges are
// written. Spans outside the buffer are clamped.
func Splice(source []byte, spans []Span) string {
	if len(spans) == 0 {
		return string(source)
	}

	merged := mergeSpans(spans, uint32(len(source)))

	var b strings.Builder
	b.Grow(len(source))
	var pos uint32
	for _, sp := range merged {
		if sp.Start > pos {
			b.Write(source[pos:sp.Start])
		}
		if sp.End > pos {
			pos = sp.End
		}
	}
	if int(pos) < len(source) {
		b.Write(source[pos:])
	}
	return b.String()
}

func mergeSpans(spans []Span, limit uint32) []Span {
	sorted := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.End > limit {
			sp.End = limit
		}
		if sp.Start >= sp.End {
			continue
		}
		sorted = append(sorted, sp)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var merged []Span
	for _, sp := range sorted {
		if n := len(merged); n > 0 && sp.Start <= merged[n-1].End {
			if sp.End > merged[n-1].End {
				merged[n-1].End = sp.End
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}
