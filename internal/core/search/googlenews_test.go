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

const googleNewsFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"bitcoin when:1d" - Google News</title>
<item>
<title>Bitcoin tops $100k for the first time - Reuters</title>
<link>https://news.google.com/rss/articles/abc</link>
<pubDate>Sun, 01 Mar 2026 09:00:00 GMT</pubDate>
<description>&lt;a href="https://news.google.com/rss/articles/abc"&gt;Bitcoin tops $100k for the first time&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;Reuters&lt;/font&gt;</description>
</item>
<item>
<title>Crypto funds see inflows - CoinDesk</title>
<link>https://news.google.com/rss/articles/def</link>
<description>Inflows rose for a third week</description>
</item>
<item>
<title>No link here - Nobody</title>
</item>
</channel>
</rss>`

func TestGoogleNewsProvider_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "bitcoin when:1d", q.Get("q"))
		assert.Equal(t, "en-NG", q.Get("hl"))
		assert.Equal(t, "NG:en", q.Get("ceid"))

		w.Header().Set(headerContentType, "application/rss+xml")
		_, _ = w.Write([]byte(googleNewsFixture))
	}))
	defer ts.Close()

	p := NewGoogleNewsProvider(GoogleNewsConfig{Enabled: true, Language: "en", Country: "NG", RequestsPerMin: 6000})
	p.baseURL = ts.URL

	page, err := p.Search(context.Background(), Query{Topic: "bitcoin", Freshness: 24 * time.Hour})
	require.NoError(t, err)
	require.Len(t, page.Headlines, 2)
	assert.Equal(t, 3, page.Raw)

	got := page.Headlines

	assert.Equal(t, "Bitcoin tops $100k for the first time", got[0].Title)
	assert.Equal(t, "Reuters", got[0].Source)
	assert.Empty(t, got[0].Snippet)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), got[0].PublishedAt)

	assert.Equal(t, "Crypto funds see inflows", got[1].Title)
	assert.Equal(t, "CoinDesk", got[1].Source)
	assert.Equal(t, "Inflows rose for a third week", got[1].Snippet)
	assert.True(t, got[1].PublishedAt.IsZero())
}

func TestGoogleNewsProvider_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	p := NewGoogleNewsProvider(GoogleNewsConfig{Enabled: true, RequestsPerMin: 6000})
	p.baseURL = ts.URL

	_, err := p.Search(context.Background(), Query{Topic: "x"})
	assert.ErrorIs(t, err, errs.ErrUnexpectedStatus)
}

func TestGoogleNewsProvider_Disabled(t *testing.T) {
	p := NewGoogleNewsProvider(GoogleNewsConfig{})

	assert.False(t, p.IsAvailable())

	_, err := p.Search(context.Background(), Query{Topic: "x"})
	assert.ErrorIs(t, err, errProviderDisabled)
}

func TestSplitGoogleNewsTitle(t *testing.T) {
	tests := []struct {
		raw, title, source string
	}{
		{"Headline - Source", "Headline", "Source"},
		{"Up - and - away - BBC News", "Up - and - away", "BBC News"},
		{"No source", "No source", ""},
		{" - Leading", " - Leading", ""},
	}

	for _, tt := range tests {
		title, source := splitGoogleNewsTitle(tt.raw)
		assert.Equal(t, tt.title, title, tt.raw)
		assert.Equal(t, tt.source, source, tt.raw)
	}
}

func TestGoogleNewsWhen(t *testing.T) {
	assert.Equal(t, "when:1d", googleNewsWhen(0))
	assert.Equal(t, "when:6h", googleNewsWhen(6*time.Hour))
	assert.Equal(t, "when:1h", googleNewsWhen(10*time.Minute))
	assert.Equal(t, "when:2d", googleNewsWhen(48*time.Hour))
}
