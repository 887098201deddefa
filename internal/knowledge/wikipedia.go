package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HendryAvila/solvy/internal/solution"
)

// DefaultEndpoint is the English Wikipedia action API.
const DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

const defaultTimeout = 20 * time.Second

// Wikipedia fetches the plain-text introduction of the best search match.
type Wikipedia struct {
	endpoint  string
	client    *http.Client
	userAgent string
}

// NewWikipedia creates a fetcher for the MediaWiki API at endpoint.
func NewWikipedia(endpoint string, timeout time.Duration) *Wikipedia {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Wikipedia{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: timeout},
		userAgent: "solvy/1 (https://github.com/HendryAvila/solvy)",
	}
}

// Origin implements Fetcher.
func (w *Wikipedia) Origin() string { return solution.OriginWikipedia }

type wikiResponse struct {
	Query struct {
		Pages map[string]struct {
			Index   int    `json:"index"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Fetch implements Fetcher.
func (w *Wikipedia) Fetch(ctx context.Context, query string) (string, error) {
	q := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"generator":   {"search"},
		"gsrsearch":   {query},
		"gsrlimit":    {"1"},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"redirects":   {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("knowledge: wikipedia request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("knowledge: wikipedia: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("knowledge: wikipedia: status %d", resp.StatusCode)
	}

	var body wikiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("knowledge: wikipedia: decode: %w", err)
	}

	// Pages are keyed by page id; the search index orders them.
	best, bestIdx := "", -1
	for _, p := range body.Query.Pages {
		text := strings.TrimSpace(p.Extract)
		if text == "" {
			continue
		}
		if bestIdx < 0 || p.Index < bestIdx {
			best, bestIdx = p.Title+"\n\n"+text, p.Index
		}
	}
	if best == "" {
		return "", ErrNoResult
	}
	return best, nil
}
