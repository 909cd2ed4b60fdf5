package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/snoopa/firehose/internal/core/errors"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New("serper", Config{Threshold: 2, ResetAfter: time.Minute}, nil)

	assert.False(t, cb.RecordFailure())
	assert.True(t, cb.CanAttempt())

	assert.True(t, cb.RecordFailure())
	assert.False(t, cb.CanAttempt())

	err := cb.CheckCircuit()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCircuitBreakerOpen)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := New("gemini", Config{Threshold: 2, ResetAfter: time.Minute}, nil)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	assert.True(t, cb.CanAttempt())
}

func TestCircuitBreaker_ClosesAfterResetWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := New("newsapi", Config{Threshold: 1, ResetAfter: time.Minute}, nil)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	now = now.Add(2 * time.Minute)
	assert.False(t, cb.IsOpen())
	assert.NoError(t, cb.CheckCircuit())
}

func TestNew_Defaults(t *testing.T) {
	cb := New("x", Config{}, nil)

	assert.Equal(t, defaultThreshold, cb.threshold)
	assert.Equal(t, defaultResetAfter, cb.resetAfter)
}
