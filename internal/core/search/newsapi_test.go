package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/snoopa/firehose/internal/core/errors"
)

func newTestNewsAPI(url string) *NewsAPIProvider {
	p := NewNewsAPIProvider(NewsAPIConfig{
		APIKey:         "test-key",
		RequestsPerMin: 6000,
		PageSize:       5,
	})
	p.baseURL = url
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return p
}

func TestNewsAPIProvider_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get(newsAPIAuthHeader))

		q := r.URL.Query()
		assert.Equal(t, "bitcoin", q.Get("q"))
		assert.Equal(t, "2026-02-28T12:00:00Z", q.Get("from"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "5", q.Get("pageSize"))

		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 3,
			"articles": [
				{"source": {"name": "Reuters"}, "title": "Bitcoin tops $100k", "description": "BTC &amp; friends", "url": "https://reuters.example/btc", "publishedAt": "2026-03-01T09:30:00Z"},
				{"source": {"name": "Removed"}, "title": "[Removed]", "url": "https://removed.example"},
				{"source": {"name": "NoURL"}, "title": "No link"}
			]
		}`))
	}))
	defer ts.Close()

	page, err := newTestNewsAPI(ts.URL).Search(context.Background(), Query{Topic: "bitcoin", Freshness: 24 * time.Hour, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Headlines, 1)
	assert.Equal(t, 3, page.Raw)

	got := page.Headlines

	assert.Equal(t, "Bitcoin tops $100k", got[0].Title)
	assert.Equal(t, "BTC & friends", got[0].Snippet)
	assert.Equal(t, "Reuters", got[0].Source)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), got[0].PublishedAt)
}

func TestNewsAPIProvider_Search_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status": "error", "code": "rateLimited", "message": "Too many requests"}`))
	}))
	defer ts.Close()

	page, err := newTestNewsAPI(ts.URL).Search(context.Background(), Query{Topic: "x"})
	assert.Empty(t, page.Headlines)
	assert.ErrorIs(t, err, errs.ErrRateLimited)
}

func TestNewsAPIProvider_Search_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": "error", "code": "parameterInvalid", "message": "The parameter q is invalid."}`))
	}))
	defer ts.Close()

	_, err := newTestNewsAPI(ts.URL).Search(context.Background(), Query{Topic: "x"})
	require.Error(t, err)

	assert.Equal(t, "newsapi api error: The parameter q is invalid. (parameterInvalid)", err.Error())
}

func TestNewsAPIProvider_Search_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer ts.Close()

	_, err := newTestNewsAPI(ts.URL).Search(context.Background(), Query{Topic: "x"})
	assert.ErrorIs(t, err, errNewsAPIError)
}
