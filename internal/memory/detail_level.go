// detail_level.go controls how much of a record the inspection tools show.
//
//   - summary: id, domain and request only
//   - standard: plus a truncated body
//   - full: the complete body
package memory

import (
	"fmt"
	"strings"
)

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to
// "standard" for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case DetailSummary, DetailFull:
		return v
	default:
		return DetailStandard
	}
}

// standardBodyLen is the body preview length at standard detail.
const standardBodyLen = 300

// Describe renders h at the given detail level.
func Describe(h Hit, level string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s (%s) score=%.3f\n    request: %s", h.ID, h.Domain, h.Score, firstLine(h.Request))
	switch ParseDetailLevel(level) {
	case DetailSummary:
	case DetailFull:
		fmt.Fprintf(&b, "\n    context: %s\n    body: %s", h.Context, h.Body)
	default:
		fmt.Fprintf(&b, "\n    context: %s\n    body: %s", Truncate(h.Context, 120), Truncate(h.Body, standardBodyLen))
	}
	return b.String()
}

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit (showing >= total) or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\n📊 Showing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\n📊 Showing %d of %d.", showing, total)
}

// EstimateTokens approximates the token count of text with the chars/4
// heuristic. Returns 0 for empty strings, at least 1 otherwise.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return max(n/4, 1)
}

// TokenFooter returns a one-line footer with the estimated token count.
func TokenFooter(estimatedTokens int) string {
	return fmt.Sprintf("\n📏 ~%d tokens", estimatedTokens)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
