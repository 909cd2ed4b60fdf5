package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/snoopa/firehose/internal/core/domain"
	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/htmlutils"
)

const (
	newsAPIBaseURL         = "https://newsapi.org/v2/everything"
	newsAPIDefaultRPM      = 1 // Free tier: 100 requests/day
	newsAPIAuthHeader      = "X-Api-Key"
	newsAPIDefaultPageSize = 20
	newsAPIDefaultMaxPages = 1
)

var (
	errNewsAPIBadStatus = errors.New("newsapi bad status")
	errNewsAPIError     = errors.New("newsapi api error")
)

// NewsAPIProvider implements Source for NewsAPI.
type NewsAPIProvider struct {
	baseURL     string
	apiKey      string
	pageSize    int
	maxPages    int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	now         func() time.Time
}

// NewsAPIConfig holds configuration for the NewsAPI provider.
type NewsAPIConfig struct {
	APIKey         string
	RequestsPerMin int
	PageSize       int
	MaxPages       int
	Timeout        time.Duration
}

// NewNewsAPIProvider creates a new NewsAPI provider instance.
func NewNewsAPIProvider(cfg NewsAPIConfig) *NewsAPIProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = newsAPIDefaultRPM
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = newsAPIDefaultPageSize
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = newsAPIDefaultMaxPages
	}

	return &NewsAPIProvider{
		baseURL:     newsAPIBaseURL,
		apiKey:      cfg.APIKey,
		pageSize:    pageSize,
		maxPages:    maxPages,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		now:         time.Now,
	}
}

// Name returns the provider name.
func (p *NewsAPIProvider) Name() ProviderName {
	return ProviderNewsAPI
}

func (p *NewsAPIProvider) IsAvailable() bool {
	return p.apiKey != ""
}

func (p *NewsAPIProvider) PageSize() int {
	return p.pageSize
}

func (p *NewsAPIProvider) MaxPages() int {
	return p.maxPages
}

// Search performs a search query against NewsAPI.
func (p *NewsAPIProvider) Search(ctx context.Context, q Query) (Page, error) {
	if !p.IsAvailable() {
		return Page{}, errProviderDisabled
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("newsapi rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(q), nil)
	if err != nil {
		return Page{}, fmt.Errorf("create newsapi request: %w", err)
	}

	req.Header.Set(newsAPIAuthHeader, p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("newsapi request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("read newsapi response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Page{}, fmt.Errorf("newsapi: %w", errs.ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		if err := checkNewsAPIError(body); err != nil {
			return Page{}, err
		}

		return Page{}, fmt.Errorf(errWrapFmtWithCode, errs.ErrUnexpectedStatus, resp.StatusCode)
	}

	return p.parseResponse(body, q.Topic)
}

func (p *NewsAPIProvider) buildSearchURL(q Query) string {
	freshness := q.Freshness
	if freshness <= 0 {
		freshness = defaultFreshness
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("q", q.Topic)
	params.Set("from", p.now().Add(-freshness).UTC().Format(time.RFC3339))
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(p.pageSize))
	params.Set("page", strconv.Itoa(page))

	return p.baseURL + "?" + params.Encode()
}

// newsAPIResponse represents the JSON response from NewsAPI.
type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"` //nolint:tagliatelle // NewsAPI uses camelCase
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"` //nolint:tagliatelle // NewsAPI uses camelCase
}

func (p *NewsAPIProvider) parseResponse(body []byte, topic string) (Page, error) {
	if err := checkNewsAPIError(body); err != nil {
		return Page{}, err
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("parse newsapi json: %w", err)
	}

	if resp.Status != "ok" {
		return Page{}, fmt.Errorf("%w: %s", errNewsAPIBadStatus, resp.Status)
	}

	now := p.now()
	headlines := make([]domain.Headline, 0, len(resp.Articles))

	for _, article := range resp.Articles {
		// NewsAPI masks removed articles with this placeholder.
		if article.URL == "" || article.Title == "[Removed]" {
			continue
		}

		headlines = append(headlines, domain.Headline{
			Title:       htmlutils.StripTags(article.Title),
			Snippet:     htmlutils.StripTags(article.Description),
			Source:      article.Source.Name,
			Link:        article.URL,
			PublishedAt: parsePublished(article.PublishedAt, now),
			Topic:       topic,
		})
	}

	return Page{Headlines: headlines, Raw: len(resp.Articles)}, nil
}

type newsAPIErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func checkNewsAPIError(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		// Not JSON, likely an error message or HTML page from NewsAPI
		return fmt.Errorf(fmtErrWrapStr, errNewsAPIError, truncateBody(trimmed))
	}

	var errResp newsAPIErrorResponse
	if err := json.Unmarshal(trimmed, &errResp); err == nil && errResp.Status == "error" {
		return fmt.Errorf("%w: %s (%s)", errNewsAPIError, errResp.Message, errResp.Code)
	}

	return nil
}
