package llm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Budget threshold percentages.
const (
	BudgetThresholdWarning  = 0.8
	BudgetThresholdCritical = 1.0
)

// Budget alert levels.
const (
	BudgetLevelWarning  = "warning"
	BudgetLevelCritical = "critical"
)

// Date format for daily budget reset tracking.
const dateFormatYMD = "2006-01-02"

// BudgetAlert represents an alert triggered by budget thresholds.
type BudgetAlert struct {
	Level       string
	DailyTokens int64
	BudgetLimit int64
	Percentage  float64
	Timestamp   time.Time
}

// BudgetTracker tracks daily verifier token usage and fires one alert per
// threshold per UTC day. It never blocks requests.
type BudgetTracker struct {
	mu            sync.Mutex
	dailyTokens   int64
	dailyLimit    int64
	lastResetDate string
	warningFired  bool
	criticalFired bool
	alertCallback func(alert BudgetAlert)
	now           func() time.Time
	logger        *zerolog.Logger
}

// NewBudgetTracker creates a new budget tracker. A limit of 0 disables alerts.
func NewBudgetTracker(dailyLimit int64, logger *zerolog.Logger) *BudgetTracker {
	return &BudgetTracker{
		dailyLimit:    dailyLimit,
		lastResetDate: time.Now().UTC().Format(dateFormatYMD),
		now:           time.Now,
		logger:        logger,
	}
}

// SetAlertCallback sets the callback function for budget alerts.
func (bt *BudgetTracker) SetAlertCallback(callback func(alert BudgetAlert)) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.alertCallback = callback
}

// RecordTokens adds tokens to the daily count and checks budget thresholds.
func (bt *BudgetTracker) RecordTokens(tokens int) {
	if tokens <= 0 {
		return
	}

	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.resetIfNewDayLocked()

	bt.dailyTokens += int64(tokens)

	if bt.dailyLimit <= 0 {
		return
	}

	percentage := float64(bt.dailyTokens) / float64(bt.dailyLimit)

	if !bt.criticalFired && percentage >= BudgetThresholdCritical {
		bt.criticalFired = true
		bt.warningFired = true
		bt.fireAlert(BudgetLevelCritical, percentage)

		return
	}

	if !bt.warningFired && percentage >= BudgetThresholdWarning {
		bt.warningFired = true
		bt.fireAlert(BudgetLevelWarning, percentage)
	}
}

// GetStatus returns the current budget status.
func (bt *BudgetTracker) GetStatus() (dailyTokens, dailyLimit int64, percentage float64) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.resetIfNewDayLocked()

	if bt.dailyLimit > 0 {
		percentage = float64(bt.dailyTokens) / float64(bt.dailyLimit)
	}

	return bt.dailyTokens, bt.dailyLimit, percentage
}

func (bt *BudgetTracker) fireAlert(level string, percentage float64) {
	alert := BudgetAlert{
		Level:       level,
		DailyTokens: bt.dailyTokens,
		BudgetLimit: bt.dailyLimit,
		Percentage:  percentage,
		Timestamp:   bt.now().UTC(),
	}

	if bt.logger != nil {
		bt.logger.Warn().
			Str("level", level).
			Int64("daily_tokens", bt.dailyTokens).
			Int64("budget_limit", bt.dailyLimit).
			Float64("percentage", percentage).
			Msg("LLM budget threshold reached")
	}

	if bt.alertCallback != nil {
		// Fire callback in goroutine to avoid blocking
		go bt.alertCallback(alert)
	}
}

func (bt *BudgetTracker) resetIfNewDayLocked() {
	today := bt.now().UTC().Format(dateFormatYMD)
	if bt.lastResetDate == today {
		return
	}

	bt.dailyTokens = 0
	bt.warningFired = false
	bt.criticalFired = false
	bt.lastResetDate = today

	if bt.logger != nil {
		bt.logger.Info().Str("date", today).Msg("LLM budget tracker reset for new day")
	}
}
