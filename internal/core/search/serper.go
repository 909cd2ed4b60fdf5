package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/snoopa/firehose/internal/core/domain"
	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/htmlutils"
)

const (
	serperBaseURL         = "https://google.serper.dev/news"
	serperAuthHeader      = "X-API-KEY"
	serperDefaultPageSize = 10
	serperDefaultMaxPages = 3
	serperDefaultRPM      = 300
)

var errSerperError = errors.New("serper api error")

// SerperConfig holds configuration for the Serper news provider.
type SerperConfig struct {
	APIKey         string
	BaseURL        string
	Country        string
	PageSize       int
	MaxPages       int
	RequestsPerMin int
	Timeout        time.Duration
}

// SerperProvider queries the Serper Google News endpoint.
type SerperProvider struct {
	baseURL     string
	apiKey      string
	country     string
	pageSize    int
	maxPages    int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	now         func() time.Time
}

func NewSerperProvider(cfg SerperConfig) *SerperProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = serperDefaultRPM
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = serperBaseURL
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = serperDefaultPageSize
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = serperDefaultMaxPages
	}

	return &SerperProvider{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		country:     cfg.Country,
		pageSize:    pageSize,
		maxPages:    maxPages,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		now:         time.Now,
	}
}

func (p *SerperProvider) Name() ProviderName {
	return ProviderSerper
}

func (p *SerperProvider) IsAvailable() bool {
	return p.apiKey != ""
}

func (p *SerperProvider) PageSize() int {
	return p.pageSize
}

func (p *SerperProvider) MaxPages() int {
	return p.maxPages
}

type serperRequest struct {
	Q    string `json:"q"`
	Num  int    `json:"num"`
	Page int    `json:"page"`
	GL   string `json:"gl,omitempty"`
	TBS  string `json:"tbs,omitempty"`
}

type serperResponse struct {
	News []serperArticle `json:"news"`
}

type serperArticle struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	Source   string `json:"source"`
	ImageURL string `json:"imageUrl"` //nolint:tagliatelle // Serper uses camelCase
}

type serperErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"` //nolint:tagliatelle // Serper uses camelCase
}

// Search fetches one page of news results for the query.
func (p *SerperProvider) Search(ctx context.Context, q Query) (Page, error) {
	if !p.IsAvailable() {
		return Page{}, errProviderDisabled
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("serper rate limit: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	payload, err := json.Marshal(serperRequest{
		Q:    q.Topic,
		Num:  p.pageSize,
		Page: page,
		GL:   p.country,
		TBS:  serperTimeFilter(q.Freshness),
	})
	if err != nil {
		return Page{}, fmt.Errorf("marshal serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Page{}, fmt.Errorf("create serper request: %w", err)
	}

	req.Header.Set(serperAuthHeader, p.apiKey)
	req.Header.Set(headerContentType, contentTypeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("serper request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("read serper response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Page{}, fmt.Errorf("serper: %w", errs.ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		return Page{}, checkSerperError(resp.StatusCode, body)
	}

	return p.parseResponse(body, q.Topic)
}

func (p *SerperProvider) parseResponse(body []byte, topic string) (Page, error) {
	var resp serperResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("parse serper json: %w", err)
	}

	now := p.now()
	headlines := make([]domain.Headline, 0, len(resp.News))

	for _, a := range resp.News {
		if a.Link == "" {
			continue
		}

		headlines = append(headlines, domain.Headline{
			Title:       htmlutils.StripTags(a.Title),
			Snippet:     htmlutils.StripTags(a.Snippet),
			Source:      a.Source,
			Link:        a.Link,
			PublishedAt: parsePublished(a.Date, now),
			Topic:       topic,
		})
	}

	return Page{Headlines: headlines, Raw: len(resp.News)}, nil
}

func checkSerperError(status int, body []byte) error {
	var errResp serperErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("%w (%d): %s", errSerperError, status, errResp.Message)
	}

	if len(bytes.TrimSpace(body)) > 0 {
		return fmt.Errorf("%w (%d): %s", errs.ErrUnexpectedStatus, status, truncateBody(body))
	}

	return fmt.Errorf(errWrapFmtWithCode, errs.ErrUnexpectedStatus, status)
}

// serperTimeFilter maps a freshness window onto Google's qdr time filter.
func serperTimeFilter(freshness time.Duration) string {
	switch {
	case freshness <= 0:
		return "qdr:d"
	case freshness <= time.Hour:
		return "qdr:h"
	case freshness <= 24*time.Hour:
		return "qdr:d"
	case freshness <= 7*24*time.Hour:
		return "qdr:w"
	default:
		return "qdr:m"
	}
}
