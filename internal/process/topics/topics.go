// Package topics reduces active watch items to the unique search queries a
// run has to issue.
package topics

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/snoopa/firehose/internal/core/domain"
)

// Extract returns the canonical topics of the active items, trimmed and
// duplicate-free, in first-seen order. Duplicates are detected with Unicode
// case folding; the first spelling wins. Items without a topic are skipped.
func Extract(items []domain.WatchItem) []string {
	caser := cases.Fold()
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))

	for _, item := range items {
		if !item.IsActive() {
			continue
		}

		topic := strings.Join(strings.Fields(item.CanonicalTopic), " ")
		if topic == "" {
			continue
		}

		key := caser.String(topic)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, topic)
	}

	return out
}
