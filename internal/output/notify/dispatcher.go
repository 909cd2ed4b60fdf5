// Package notify turns verified hits into persisted alert notifications and
// best-effort device pushes.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/domain"
	"github.com/snoopa/firehose/internal/core/ports"
	"github.com/snoopa/firehose/internal/platform/observability"
	"github.com/snoopa/firehose/internal/platform/worker"
)

// Result summarizes one dispatch.
type Result struct {
	Created      int
	Pushed       int
	PushFailures int
}

type Dispatcher struct {
	repo        ports.NotificationRepository
	sender      ports.PushSender
	concurrency int
	timeout     time.Duration
	logger      *zerolog.Logger
}

// NewDispatcher creates a dispatcher. A nil sender disables pushes.
func NewDispatcher(repo ports.NotificationRepository, sender ports.PushSender, concurrency int, timeout time.Duration, logger *zerolog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultPushConcurrency
	}

	if timeout <= 0 {
		timeout = defaultPushTimeout
	}

	return &Dispatcher{
		repo:        repo,
		sender:      sender,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
	}
}

// BuildNotification renders the alert row for a hit.
func BuildNotification(hit domain.Hit, now time.Time) domain.Notification {
	return domain.Notification{
		ID:          uuid.NewString(),
		UserID:      hit.Item.UserID,
		Type:        domain.NotificationTypeAlert,
		Title:       alertTitlePrefix + hit.Item.Title,
		Message:     hit.Headline.Title,
		WatchItemID: hit.Item.ID,
		CreatedAt:   now,
	}
}

// Dispatch persists one notification per hit with a single insert, loads
// device tokens with a single query and pushes with bounded concurrency.
// Push failures are counted and logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, hits []domain.Hit, now time.Time) (Result, error) {
	var res Result

	if len(hits) == 0 {
		return res, nil
	}

	notifications := make([]domain.Notification, len(hits))
	for i, h := range hits {
		notifications[i] = BuildNotification(h, now)
	}

	if err := d.repo.InsertNotifications(ctx, notifications); err != nil {
		return res, fmt.Errorf("insert notifications: %w", err)
	}

	res.Created = len(notifications)
	observability.NotificationsCreated.Add(float64(res.Created))

	if d.sender == nil {
		return res, nil
	}

	tokens, err := d.loadTokens(ctx, notifications)
	if err != nil {
		d.logger.Warn().Err(err).Msg("skipping pushes, failed to load device tokens")

		return res, nil
	}

	failed := make([]bool, len(notifications))
	sent := make([]bool, len(notifications))

	_ = worker.ForEach(ctx, len(notifications), d.concurrency, func(ctx context.Context, i int) { //nolint:errcheck // cancellation leaves remaining pushes unsent
		n := notifications[i]

		userTokens := tokens[n.UserID]
		if len(userTokens) == 0 {
			observability.PushDeliveries.WithLabelValues(pushStatusNoToken).Inc()
			return
		}

		err := worker.RunWithTimeout(ctx, d.timeout, func(ctx context.Context) error {
			return d.sender.Send(ctx, domain.PushMessage{
				Tokens:      userTokens,
				Title:       n.Title,
				Body:        n.Message,
				WatchItemID: n.WatchItemID,
			})
		})
		if err != nil {
			failed[i] = true

			observability.PushDeliveries.WithLabelValues(pushStatusFailed).Inc()
			d.logger.Warn().Err(err).
				Str(logKeyUserID, n.UserID).
				Str(logKeyWatchItemID, n.WatchItemID).
				Msg("push delivery failed")

			return
		}

		sent[i] = true

		observability.PushDeliveries.WithLabelValues(pushStatusSent).Inc()
	})

	for i := range notifications {
		if failed[i] {
			res.PushFailures++
		}

		if sent[i] {
			res.Pushed++
		}
	}

	return res, nil
}

func (d *Dispatcher) loadTokens(ctx context.Context, notifications []domain.Notification) (map[string][]string, error) {
	seen := make(map[string]struct{}, len(notifications))
	userIDs := make([]string, 0, len(notifications))

	for _, n := range notifications {
		if _, ok := seen[n.UserID]; ok {
			continue
		}

		seen[n.UserID] = struct{}{}
		userIDs = append(userIDs, n.UserID)
	}

	rows, err := d.repo.ListPushTokens(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}

	byUser := make(map[string][]string, len(userIDs))
	for _, t := range rows {
		byUser[t.UserID] = append(byUser[t.UserID], t.Token)
	}

	return byUser, nil
}
