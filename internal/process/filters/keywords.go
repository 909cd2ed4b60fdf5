// Package filters implements the keyword prefilter that runs before the
// condition verifier.
package filters

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/snoopa/firehose/internal/core/domain"
)

// KeywordMatcher is a case-folded keyword set for one watch item.
type KeywordMatcher struct {
	keywords []string
	caser    cases.Caser
}

// NewKeywordMatcher folds the keywords once. Blank keywords are dropped.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	caser := cases.Fold()
	folded := make([]string, 0, len(keywords))

	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		folded = append(folded, caser.String(k))
	}

	return &KeywordMatcher{keywords: folded, caser: caser}
}

// Empty reports whether the item has no usable keywords. An empty matcher matches nothing.
func (m *KeywordMatcher) Empty() bool {
	return len(m.keywords) == 0
}

// Matches reports whether any keyword occurs in text.
func (m *KeywordMatcher) Matches(text string) bool {
	if m.Empty() || text == "" {
		return false
	}

	folded := m.caser.String(text)

	for _, k := range m.keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}

	return false
}

// MatchesHeadline tests the headline title and snippet together.
func (m *KeywordMatcher) MatchesHeadline(h domain.Headline) bool {
	return m.Matches(h.Text())
}
