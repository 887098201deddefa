package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\s*\\n?(.*?)```")

// StripFences returns the body of the first fenced block in s, or s
// trimmed when it has none.
func StripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// ParseStringList extracts a JSON array of strings from model output.
// Non-string scalar items are converted to their text form.
func ParseStringList(s string) ([]string, error) {
	raw, err := extract(StripFences(s), '[', ']')
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		case float64, bool:
			out = append(out, fmt.Sprint(v))
		default:
			return nil, fmt.Errorf("%w: list item %v is not a scalar", ErrMalformedOutput, it)
		}
	}
	return out, nil
}

var intRe = regexp.MustCompile(`-?\d+`)

// ParseIndex reads a single candidate index in [0, n). Output that says
// "none", holds no number, or names an index out of range yields ok=false.
func ParseIndex(s string, n int) (idx int, ok bool) {
	t := strings.ToLower(StripFences(s))
	if t == "" || strings.HasPrefix(t, "none") || t == "null" {
		return 0, false
	}
	m := intRe.FindString(t)
	if m == "" {
		return 0, false
	}
	i, err := strconv.Atoi(m)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// ParseIndexList reads a JSON array of indices. Out-of-range and repeated
// entries are dropped; order is preserved.
func ParseIndexList(s string, n int) ([]int, error) {
	raw, err := extract(StripFences(s), '[', ']')
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	seen := map[int]bool{}
	var out []int
	for _, it := range items {
		var i int
		switch v := it.(type) {
		case float64:
			i = int(v)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: index %q", ErrMalformedOutput, v)
			}
			i = n
		default:
			return nil, fmt.Errorf("%w: index %v", ErrMalformedOutput, it)
		}
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out, nil
}

// ParseObject unmarshals the first JSON object in model output into v.
func ParseObject(s string, v any) error {
	raw, err := extract(StripFences(s), '{', '}')
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// extract returns the span from the first open to the last close byte.
func extract(s string, open, close byte) (string, error) {
	i := strings.IndexByte(s, open)
	j := strings.LastIndexByte(s, close)
	if i < 0 || j < i {
		return "", fmt.Errorf("%w: no %c...%c in %q", ErrMalformedOutput, open, close, truncate(s, 80))
	}
	return s[i : j+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
