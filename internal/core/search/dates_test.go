package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePublished(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"", time.Time{}},
		{"2 hours ago", now.Add(-2 * time.Hour)},
		{"1 hour ago", now.Add(-time.Hour)},
		{"45 mins ago", now.Add(-45 * time.Minute)},
		{"3 days ago", now.Add(-72 * time.Hour)},
		{"1 week ago", now.Add(-7 * 24 * time.Hour)},
		{"2026-02-28T08:15:00Z", time.Date(2026, 2, 28, 8, 15, 0, 0, time.UTC)},
		{"Sun, 01 Mar 2026 09:00:00 GMT", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		{"not a date", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parsePublished(tt.raw, now)), "got %v", parsePublished(tt.raw, now))
		})
	}
}
