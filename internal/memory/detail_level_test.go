package memory

import (
	"strings"
	"testing"
)

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"summary", DetailSummary},
		{"standard", DetailStandard},
		{"full", DetailFull},
		{"", DetailStandard},
		{"invalid", DetailStandard},
		{"SUMMARY", DetailSummary},
		{" Full ", DetailFull},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDetailLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseDetailLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetailLevelValues(t *testing.T) {
	vals := DetailLevelValues()
	if len(vals) != 3 {
		t.Fatalf("got %d values, want 3", len(vals))
	}
	for _, v := range vals {
		if ParseDetailLevel(v) != v {
			t.Errorf("value %q does not round-trip", v)
		}
	}
}

func TestDescribe(t *testing.T) {
	h := Hit{
		Record: Record{
			ID:      "abc",
			Domain:  DomainSolutions,
			Context: "Math",
			Request: "Compute the mean\nsecond line",
			Body:    strings.Repeat("x", 500),
		},
		Score: 1.5,
	}

	summary := Describe(h, DetailSummary)
	if !strings.Contains(summary, "#abc (solutions)") || strings.Contains(summary, "body:") {
		t.Errorf("summary = %q", summary)
	}
	if strings.Contains(summary, "second line") {
		t.Error("summary should only show the first request line")
	}

	standard := Describe(h, DetailStandard)
	if !strings.Contains(standard, strings.Repeat("x", 300)+"...") {
		t.Error("standard should truncate the body to 300 chars")
	}

	full := Describe(h, DetailFull)
	if !strings.Contains(full, strings.Repeat("x", 500)) || strings.Contains(full, "...") {
		t.Error("full should show the whole body")
	}
}

func TestNavigationHint(t *testing.T) {
	tests := []struct {
		name    string
		showing int
		total   int
		hint    string
		want    string
	}{
		{"all fit", 5, 5, "", ""},
		{"zero total", 0, 0, "", ""},
		{"capped", 3, 10, "", "\n📊 Showing 3 of 10."},
		{"capped with hint", 3, 10, "Raise limit.", "\n📊 Showing 3 of 10. Raise limit."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NavigationHint(tt.showing, tt.total, tt.hint); got != tt.want {
				t.Errorf("NavigationHint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("empty text should be 0 tokens")
	}
	if EstimateTokens("ab") != 1 {
		t.Error("short text should be at least 1 token")
	}
	if EstimateTokens(strings.Repeat("a", 400)) != 100 {
		t.Error("400 chars should be 100 tokens")
	}
	if TokenFooter(42) != "\n📏 ~42 tokens" {
		t.Errorf("TokenFooter = %q", TokenFooter(42))
	}
}
