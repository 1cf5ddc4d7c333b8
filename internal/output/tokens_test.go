package output

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"rounds down", "abcde", 1},
		{"rounds up", "abcdef", 2},
		{"runes not bytes", "ééééééé", 2},
		{"method", "void a() { b(); }", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatTokenCount(t *testing.T) {
	tests := []struct {
		tokens int
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{1260, "1.3k"},
		{128000, "128.0k"},
	}

	for _, tt := range tests {
		if got := FormatTokenCount(tt.tokens); got != tt.want {
			t.Errorf("FormatTokenCount(%d) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestReduce(t *testing.T) {
	before := strings.Repeat("a", 400)
	after := strings.Repeat("a", 100)

	r := Reduce(before, after)
	if r.BeforeTokens != 100 || r.AfterTokens != 25 {
		t.Errorf("Reduce() tokens = %d -> %d", r.BeforeTokens, r.AfterTokens)
	}
	if r.Percent != 75 {
		t.Errorf("Percent = %v, want 75", r.Percent)
	}
	if got := r.String(); got != "100 -> 25 tokens (75% smaller)" {
		t.Errorf("String() = %q", got)
	}

	if empty := Reduce("", ""); empty.Percent != 0 {
		t.Errorf("empty input Percent = %v, want 0", empty.Percent)
	}
}
