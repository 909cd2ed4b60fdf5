package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/domain"
	"github.com/snoopa/firehose/internal/core/llm"
	"github.com/snoopa/firehose/internal/platform/htmlutils"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter posts run summaries and budget alerts to an operator chat.
type TelegramReporter struct {
	api    messageSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramReporter(token string, chatID int64, logger *zerolog.Logger) (*TelegramReporter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return newTelegramReporter(api, chatID, logger), nil
}

func newTelegramReporter(api messageSender, chatID int64, logger *zerolog.Logger) *TelegramReporter {
	return &TelegramReporter{
		api:    api,
		chatID: chatID,
		logger: logger,
	}
}

// ReportRun sends the run summary.
func (r *TelegramReporter) ReportRun(_ context.Context, stats domain.RunStats, runErr error) error {
	return r.send(FormatRunReport(stats, runErr))
}

// ReportBudgetAlert is an llm budget alert callback.
func (r *TelegramReporter) ReportBudgetAlert(alert llm.BudgetAlert) {
	text := fmt.Sprintf("<b>Verifier token budget %s</b>\n%d of %d tokens used today (%.0f%%)",
		htmlutils.Escape(alert.Level), alert.DailyTokens, alert.BudgetLimit, alert.Percentage*100)

	if err := r.send(text); err != nil {
		r.logger.Warn().Err(err).Msg("failed to send budget alert")
	}
}

func (r *TelegramReporter) send(text string) error {
	msg := tgbotapi.NewMessage(r.chatID, htmlutils.TruncateForTelegram(text))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram report: %w", err)
	}

	return nil
}

// FormatRunReport renders stats as Telegram HTML.
func FormatRunReport(stats domain.RunStats, runErr error) string {
	var sb strings.Builder

	status := domain.RunStatusSucceeded

	switch {
	case stats.Skipped:
		status = domain.RunStatusSkipped
	case runErr != nil:
		status = domain.RunStatusFailed
	}

	fmt.Fprintf(&sb, "<b>Firehose run %s</b>\n", status)

	if stats.RunID != "" {
		fmt.Fprintf(&sb, "<code>%s</code>\n", htmlutils.Escape(stats.RunID))
	}

	fmt.Fprintf(&sb, "Duration: %s\n", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&sb, "Items: %d, topics: %d\n", stats.ActiveItems, stats.Topics)
	fmt.Fprintf(&sb, "Headlines: %d (%d unique)\n", stats.Headlines, stats.UniqueHeadline)
	fmt.Fprintf(&sb, "Keyword matches: %d\n", stats.KeywordMatches)
	fmt.Fprintf(&sb, "Verified: %d, rejected: %d, errors: %d\n", stats.Verified, stats.Rejected, stats.VerifyErrors)
	fmt.Fprintf(&sb, "Notifications: %d, push failures: %d", stats.Notifications, stats.PushFailures)

	if runErr != nil {
		fmt.Fprintf(&sb, "\nError: %s", htmlutils.Escape(runErr.Error()))
	}

	return sb.String()
}
