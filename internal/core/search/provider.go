// Package search fetches fresh news headlines for topic queries from an
// ordered set of news sources with fallback and circuit breaking.
package search

import (
	"context"
	"time"

	"github.com/snoopa/firehose/internal/core/domain"
)

type ProviderName string

const (
	ProviderSerper     ProviderName = "serper"
	ProviderNewsAPI    ProviderName = "newsapi"
	ProviderGoogleNews ProviderName = "googlenews"
)

// Query asks a source for one page of headlines about a topic.
type Query struct {
	Topic     string
	Freshness time.Duration
	Page      int
}

// Page is one page of a source's results. Raw counts every entry the source
// returned, including ones dropped as unusable, and decides whether a further
// page exists.
type Page struct {
	Headlines []domain.Headline
	Raw       int
}

// Source is a news headline provider. Search returns a single page; the
// registry walks pages up to MaxPages.
type Source interface {
	Name() ProviderName
	IsAvailable() bool
	Search(ctx context.Context, q Query) (Page, error)
	// PageSize is the number of results a full page holds. A shorter page is the last one.
	PageSize() int
	MaxPages() int
}
