package knowledge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HendryAvila/solvy/internal/llm/llmtest"
	"github.com/HendryAvila/solvy/internal/solution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWikiServer returns a MediaWiki stand-in that records the last query
// and replies with body.
func newWikiServer(t *testing.T, status int, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.Query().Get("gsrsearch")
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestWikipedia_Fetch(t *testing.T) {
	var q string
	ts := newWikiServer(t, http.StatusOK, `{"query":{"pages":{
		"2":{"index":2,"title":"Mean","extract":"A mean is an average."},
		"1":{"index":1,"title":"Geometric mean","extract":"The geometric mean is the nth root of the product."}
	}}}`, &q)

	w := NewWikipedia(ts.URL, 0)
	got, err := w.Fetch(context.Background(), "geometric mean")
	require.NoError(t, err)
	assert.Equal(t, "geometric mean", q)
	assert.Equal(t, "Geometric mean\n\nThe geometric mean is the nth root of the product.", got)
	assert.Equal(t, solution.OriginWikipedia, w.Origin())
}

func TestWikipedia_NoPages(t *testing.T) {
	ts := newWikiServer(t, http.StatusOK, `{"batchcomplete":""}`, nil)
	_, err := NewWikipedia(ts.URL, 0).Fetch(context.Background(), "xyzzy")
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestWikipedia_EmptyExtracts(t *testing.T) {
	ts := newWikiServer(t, http.StatusOK, `{"query":{"pages":{"1":{"index":1,"title":"X","extract":"  "}}}}`, nil)
	_, err := NewWikipedia(ts.URL, 0).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestWikipedia_BadStatus(t *testing.T) {
	ts := newWikiServer(t, http.StatusServiceUnavailable, ``, nil)
	_, err := NewWikipedia(ts.URL, 0).Fetch(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestWikipedia_BadJSON(t *testing.T) {
	ts := newWikiServer(t, http.StatusOK, `{not json`, nil)
	_, err := NewWikipedia(ts.URL, 0).Fetch(context.Background(), "x")
	assert.Error(t, err)
}

func TestWikipedia_CanceledContext(t *testing.T) {
	ts := newWikiServer(t, http.StatusOK, `{}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWikipedia(ts.URL, 0).Fetch(ctx, "x")
	assert.Error(t, err)
}

func TestNewWikipedia_Defaults(t *testing.T) {
	w := NewWikipedia("", 0)
	assert.Equal(t, DefaultEndpoint, w.endpoint)
	assert.Equal(t, defaultTimeout, w.client.Timeout)
}

func TestGenerative_Fetch(t *testing.T) {
	c := llmtest.New().On("reference librarian", "  The geometric mean of n numbers is the nth root of their product.  ")
	g := NewGenerative(c)

	got, err := g.Fetch(context.Background(), "geometric mean")
	require.NoError(t, err)
	assert.Equal(t, "The geometric mean of n numbers is the nth root of their product.", got)
	assert.Equal(t, solution.OriginGenerative, g.Origin())

	calls := c.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Request: geometric mean", calls[0].Prompt())
}

func TestGenerative_EmptyOutput(t *testing.T) {
	g := NewGenerative(llmtest.New().On("reference librarian", ""))
	_, err := g.Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoResult)
}
