package filters

import (
	"testing"

	"github.com/snoopa/firehose/internal/core/domain"
)

func TestKeywordMatcher_MatchesHeadline(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		headline domain.Headline
		expected bool
	}{
		{
			name:     "title match",
			keywords: []string{"bitcoin"},
			headline: domain.Headline{Title: "Bitcoin tops $100k"},
			expected: true,
		},
		{
			name:     "snippet match",
			keywords: []string{"BTC"},
			headline: domain.Headline{Title: "Crypto rally", Snippet: "btc crossed the mark"},
			expected: true,
		},
		{
			name:     "any keyword is enough",
			keywords: []string{"ethereum", "100k"},
			headline: domain.Headline{Title: "Bitcoin tops $100K"},
			expected: true,
		},
		{
			name:     "substring match",
			keywords: []string{"coin"},
			headline: domain.Headline{Title: "Bitcoin slides"},
			expected: true,
		},
		{
			name:     "unicode folding",
			keywords: []string{"STRASSE"},
			headline: domain.Headline{Title: "Neue Straße eröffnet"},
			expected: true,
		},
		{
			name:     "title and snippet joined with a space",
			keywords: []string{"price surge"},
			headline: domain.Headline{Title: "Fuel price", Snippet: "surge expected"},
			expected: true,
		},
		{
			name:     "no match",
			keywords: []string{"election"},
			headline: domain.Headline{Title: "Bitcoin tops $100k"},
			expected: false,
		},
		{
			name:     "no keywords",
			keywords: nil,
			headline: domain.Headline{Title: "Bitcoin tops $100k"},
			expected: false,
		},
		{
			name:     "blank keywords ignored",
			keywords: []string{"", "   "},
			headline: domain.Headline{Title: "anything at all"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewKeywordMatcher(tt.keywords)
			if got := m.MatchesHeadline(tt.headline); got != tt.expected {
				t.Errorf("MatchesHeadline() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestKeywordMatcher_Empty(t *testing.T) {
	if !NewKeywordMatcher([]string{" "}).Empty() {
		t.Error("expected blank-only keywords to be empty")
	}

	if NewKeywordMatcher([]string{"x"}).Empty() {
		t.Error("expected matcher with a keyword to be non-empty")
	}
}
