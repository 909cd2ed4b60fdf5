package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/snoopa/firehose/internal/core/domain"
	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/htmlutils"
)

const (
	googleNewsBaseURL     = "https://news.google.com/rss/search"
	googleNewsDefaultRPM  = 30
	googleNewsTitleSep    = " - "
	googleNewsMaxBodySize = 4 << 20
)

// GoogleNewsConfig holds configuration for the Google News RSS provider.
type GoogleNewsConfig struct {
	Enabled        bool
	Language       string
	Country        string
	RequestsPerMin int
	Timeout        time.Duration
}

// GoogleNewsProvider reads the public Google News search feed. It needs no
// credentials and returns a single page per query.
type GoogleNewsProvider struct {
	baseURL     string
	enabled     bool
	language    string
	country     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	parser      *gofeed.Parser
}

func NewGoogleNewsProvider(cfg GoogleNewsConfig) *GoogleNewsProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = googleNewsDefaultRPM
	}

	return &GoogleNewsProvider{
		baseURL:     googleNewsBaseURL,
		enabled:     cfg.Enabled,
		language:    cfg.Language,
		country:     cfg.Country,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		parser:      gofeed.NewParser(),
	}
}

func (p *GoogleNewsProvider) Name() ProviderName {
	return ProviderGoogleNews
}

func (p *GoogleNewsProvider) IsAvailable() bool {
	return p.enabled
}

// PageSize is zero: the feed has no paging, so every page is the last one.
func (p *GoogleNewsProvider) PageSize() int {
	return 0
}

func (p *GoogleNewsProvider) MaxPages() int {
	return 1
}

func (p *GoogleNewsProvider) Search(ctx context.Context, q Query) (Page, error) {
	if !p.enabled {
		return Page{}, errProviderDisabled
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("google news rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(q), nil)
	if err != nil {
		return Page{}, fmt.Errorf("create google news request: %w", err)
	}

	req.Header.Set(headerUserAgent, userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("google news request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf(errWrapFmtWithCode, errs.ErrUnexpectedStatus, resp.StatusCode)
	}

	feed, err := p.parser.Parse(io.LimitReader(resp.Body, googleNewsMaxBodySize))
	if err != nil {
		return Page{}, fmt.Errorf("parse google news feed: %w", err)
	}

	headlines := make([]domain.Headline, 0, len(feed.Items))

	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		title, source := splitGoogleNewsTitle(htmlutils.StripTags(item.Title))

		h := domain.Headline{
			Title:   title,
			Snippet: htmlutils.StripTags(item.Description),
			Source:  source,
			Link:    item.Link,
			Topic:   q.Topic,
		}

		if item.PublishedParsed != nil {
			h.PublishedAt = item.PublishedParsed.UTC()
		}

		// The description usually repeats "title source"; drop it when it adds nothing.
		if strings.HasPrefix(h.Snippet, title) {
			h.Snippet = ""
		}

		headlines = append(headlines, h)
	}

	return Page{Headlines: headlines, Raw: len(feed.Items)}, nil
}

func (p *GoogleNewsProvider) buildSearchURL(q Query) string {
	params := url.Values{}
	params.Set("q", q.Topic+" "+googleNewsWhen(q.Freshness))

	if p.language != "" && p.country != "" {
		params.Set("hl", p.language+"-"+p.country)
		params.Set("gl", p.country)
		params.Set("ceid", p.country+":"+p.language)
	}

	return p.baseURL + "?" + params.Encode()
}

// splitGoogleNewsTitle separates the "Headline - Publisher" form used by the feed.
func splitGoogleNewsTitle(raw string) (title, source string) {
	idx := strings.LastIndex(raw, googleNewsTitleSep)
	if idx <= 0 {
		return raw, ""
	}

	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+len(googleNewsTitleSep):])
}

func googleNewsWhen(freshness time.Duration) string {
	if freshness <= 0 {
		freshness = defaultFreshness
	}

	if freshness < 24*time.Hour {
		hours := int(freshness.Hours())
		if hours < 1 {
			hours = 1
		}

		return fmt.Sprintf("when:%dh", hours)
	}

	return fmt.Sprintf("when:%dd", int(freshness.Hours()/24))
}
