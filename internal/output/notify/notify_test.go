package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snoopa/firehose/internal/core/domain"
	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/core/ports/mocks"
)

func testHit(userID, itemID, title, headline string) domain.Hit {
	return domain.Hit{
		Item:     domain.WatchItem{ID: itemID, UserID: userID, Title: title},
		Headline: domain.Headline{Title: headline, Link: "https://example.com/" + itemID},
	}
}

func TestBuildNotification(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	n := BuildNotification(testHit("u1", "w1", "BTC 100k", "Bitcoin crosses $100,000"), now)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, domain.NotificationTypeAlert, n.Type)
	assert.Equal(t, "Snoopa alert: BTC 100k", n.Title)
	assert.Equal(t, "Bitcoin crosses $100,000", n.Message)
	assert.Equal(t, "w1", n.WatchItemID)
	assert.False(t, n.Seen)
	assert.False(t, n.Read)
}

func TestDispatcher_Dispatch(t *testing.T) {
	logger := zerolog.Nop()
	store := mocks.NewStore()
	store.AddPushToken("u1", "ExponentPushToken[a]")
	store.AddPushToken("u1", "ExponentPushToken[b]")

	sender := mocks.NewPushSender()
	d := NewDispatcher(store, sender, 2, time.Second, &logger)

	res, err := d.Dispatch(context.Background(), []domain.Hit{
		testHit("u1", "w1", "A", "headline a"),
		testHit("u2", "w2", "B", "headline b"),
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Pushed)
	assert.Equal(t, 0, res.PushFailures)
	assert.Len(t, store.Notifications(), 2)
	assert.Equal(t, 1, store.TokenReads)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}, sent[0].Tokens)
	assert.Equal(t, "w1", sent[0].WatchItemID)
}

func TestDispatcher_NoHitsNoWrites(t *testing.T) {
	logger := zerolog.Nop()
	store := mocks.NewStore()
	d := NewDispatcher(store, mocks.NewPushSender(), 2, time.Second, &logger)

	res, err := d.Dispatch(context.Background(), nil, time.Now())
	require.NoError(t, err)

	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, store.TokenReads)
}

func TestDispatcher_PushFailureIsNotFatal(t *testing.T) {
	logger := zerolog.Nop()
	store := mocks.NewStore()
	store.AddPushToken("u1", "tok")

	sender := mocks.NewPushSender()
	sender.SendFn = func(context.Context, domain.PushMessage) error {
		return mocks.ErrPushFailed
	}

	d := NewDispatcher(store, sender, 1, time.Second, &logger)

	res, err := d.Dispatch(context.Background(), []domain.Hit{testHit("u1", "w1", "A", "a")}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.PushFailures)
	assert.Len(t, store.Notifications(), 1)
}

func TestDispatcher_InsertError(t *testing.T) {
	logger := zerolog.Nop()
	store := mocks.NewStore()
	store.InsertNotificationsFn = func(context.Context, []domain.Notification) error {
		return errors.New("db down")
	}

	d := NewDispatcher(store, mocks.NewPushSender(), 1, time.Second, &logger)

	_, err := d.Dispatch(context.Background(), []domain.Hit{testHit("u1", "w1", "A", "a")}, time.Now())
	assert.Error(t, err)
}

func TestExpoSender_Send(t *testing.T) {
	var got expoMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"x"}]}`))
	}))
	defer srv.Close()

	s := NewExpoSender(srv.URL, "secret", time.Second)

	err := s.Send(context.Background(), domain.PushMessage{
		Tokens:      []string{"tok"},
		Title:       "Snoopa alert: A",
		Body:        "headline",
		WatchItemID: "w1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"tok"}, got.To)
	assert.Equal(t, "default", got.Sound)
	assert.Equal(t, "alert", got.Data["type"])
	assert.Equal(t, "w1", got.Data["watch_item_id"])
}

func TestExpoSender_LargeTicketResponse(t *testing.T) {
	tokens := make([]string, 200)
	tickets := make([]string, len(tokens))

	for i := range tokens {
		tokens[i] = fmt.Sprintf("ExponentPushToken[device-%03d]", i)
		tickets[i] = fmt.Sprintf(`{"status":"ok","id":"0b8f6f0e-3c0b-4f7e-9a43-%012d"}`, i)
	}

	body := `{"data":[` + strings.Join(tickets, ",") + `]}`
	require.Greater(t, len(body), maxErrorBodySize)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	err := NewExpoSender(srv.URL, "", time.Second).Send(context.Background(), domain.PushMessage{Tokens: tokens})
	assert.NoError(t, err)
}

func TestExpoSender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantErr: errs.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantErr: errs.ErrUnexpectedStatus},
		{name: "ticket error", status: http.StatusOK, body: `{"data":[{"status":"error","message":"DeviceNotRegistered"}]}`, wantErr: errPushRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewExpoSender(srv.URL, "", time.Second).Send(context.Background(), domain.PushMessage{Tokens: []string{"tok"}})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpoSender_NoTokens(t *testing.T) {
	err := NewExpoSender("http://127.0.0.1:1", "", time.Second).Send(context.Background(), domain.PushMessage{})
	assert.NoError(t, err)
}

type fakeTelegram struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}

	return tgbotapi.Message{}, f.err
}

func TestTelegramReporter_ReportRun(t *testing.T) {
	logger := zerolog.Nop()
	api := &fakeTelegram{}
	r := newTelegramReporter(api, 42, &logger)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stats := domain.RunStats{
		RunID:       "run-1",
		StartedAt:   start,
		FinishedAt:  start.Add(2 * time.Second),
		ActiveItems: 3,
		Verified:    1,
	}

	require.NoError(t, r.ReportRun(context.Background(), stats, errors.New("search <down>")))

	require.Len(t, api.sent, 1)
	msg := api.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "Firehose run failed")
	assert.Contains(t, msg.Text, "search &lt;down&gt;")
}

func TestFormatRunReport_Skipped(t *testing.T) {
	text := FormatRunReport(domain.RunStats{Skipped: true}, nil)

	assert.True(t, strings.HasPrefix(text, "<b>Firehose run skipped</b>"))
}
