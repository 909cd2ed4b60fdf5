package dedup

import (
	"github.com/snoopa/firehose/internal/core/domain"
)

// RunSet is the run-local fingerprint set. Create one per run and drop it
// when the run ends.
type RunSet struct {
	seen map[string]struct{}
}

func NewRunSet() *RunSet {
	return &RunSet{seen: make(map[string]struct{})}
}

// Admit returns true the first time a fingerprint is offered.
func (r *RunSet) Admit(fingerprint string) bool {
	if _, dup := r.seen[fingerprint]; dup {
		return false
	}

	r.seen[fingerprint] = struct{}{}

	return true
}

// Unique fingerprints the headlines, drops links already admitted this run
// and returns the survivors in input order with Fingerprint populated.
func (r *RunSet) Unique(headlines []domain.Headline) []domain.Headline {
	out := make([]domain.Headline, 0, len(headlines))

	for _, h := range headlines {
		if h.Fingerprint == "" {
			h.Fingerprint = Fingerprint(h.Link)
		}

		if !r.Admit(h.Fingerprint) {
			continue
		}

		out = append(out, h)
	}

	return out
}

func (r *RunSet) Len() int {
	return len(r.seen)
}
