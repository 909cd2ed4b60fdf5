// Package dedup keeps a headline from being evaluated twice: once per watch
// item across runs, and once per run across topic queries.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/snoopa/firehose/internal/core/domain"
)

// Fingerprint is the stable identity of a headline: the hex SHA-256 of its
// trimmed link.
func Fingerprint(link string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(link)))

	return hex.EncodeToString(sum[:])
}

// Key builds the composite processed-pair key.
func Key(fingerprint, watchItemID string) string {
	return domain.PairKey(fingerprint, watchItemID)
}
