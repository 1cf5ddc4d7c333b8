package output

import (
	"fmt"
	"unicode/utf8"
)

// CharsPerToken is the approximate character-to-token ratio for source code.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(utf8.RuneCountInString(text)) / CharsPerToken
	return int(tokens + 0.5)
}

// FormatTokenCount formats a token count for display. Counts of 1000 or
// more are shown as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}

// Reduction describes how much a slice shrank its input.
type Reduction struct {
	BeforeTokens int     `json:"before_tokens" toon:"before_tokens"`
	AfterTokens  int     `json:"after_tokens" toon:"after_tokens"`
	Percent      float64 `json:"percent" toon:"percent"`
}

// Reduce compares the estimated token counts of before and after.
func Reduce(before, after string) Reduction {
	r := Reduction{
		BeforeTokens: EstimateTokens(before),
		AfterTokens:  EstimateTokens(after),
	}
	if r.BeforeTokens > 0 {
		r.Percent = float64(r.BeforeTokens-r.AfterTokens) / float64(r.BeforeTokens) * 100
	}
	return r
}

func (r Reduction) String() string {
	return fmt.Sprintf("%s -> %s tokens (%.0f%% smaller)",
		FormatTokenCount(r.BeforeTokens), FormatTokenCount(r.AfterTokens), r.Percent)
}
