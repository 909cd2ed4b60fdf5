package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/snoopa/firehose/internal/core/domain"
	errs "github.com/snoopa/firehose/internal/core/errors"
)

// DefaultExpoURL is the Expo push gateway endpoint.
const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

type expoMessage struct {
	To    []string          `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

type expoTicket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ExpoSender delivers push notifications through the Expo gateway.
type ExpoSender struct {
	url         string
	accessToken string
	httpClient  *http.Client
}

func NewExpoSender(url, accessToken string, timeout time.Duration) *ExpoSender {
	if url == "" {
		url = DefaultExpoURL
	}

	if timeout <= 0 {
		timeout = defaultPushTimeout
	}

	return &ExpoSender{
		url:         url,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Send posts one message addressed to every token. A ticket with a non-ok
// status fails the whole send.
func (s *ExpoSender) Send(ctx context.Context, msg domain.PushMessage) error {
	if len(msg.Tokens) == 0 {
		return nil
	}

	body, err := json.Marshal(expoMessage{
		To:    msg.Tokens,
		Sound: expoSound,
		Title: msg.Title,
		Body:  msg.Body,
		Data: map[string]string{
			expoDataTypeKey: domain.NotificationTypeAlert,
			expoDataItemKey: msg.WatchItemID,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal expo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create expo request: %w", err)
	}

	req.Header.Set(headerContent, mimeJSON)
	req.Header.Set(headerAccept, mimeJSON)

	if s.accessToken != "" {
		req.Header.Set(headerAuth, bearerPrefix+s.accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("expo request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errs.ErrRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)) //nolint:errcheck // body is only used for the error message

		return fmt.Errorf("%w: expo %d: %s", errs.ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read expo response: %w", err)
	}

	return checkExpoTickets(raw)
}

func checkExpoTickets(raw []byte) error {
	var parsed expoResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode expo response: %w", err)
	}

	if len(parsed.Errors) > 0 {
		return fmt.Errorf("%w: %s", errPushRejected, parsed.Errors[0].Message)
	}

	for _, t := range parsed.Data {
		if t.Status != expoStatusOK {
			return fmt.Errorf("%w: %s", errPushRejected, t.Message)
		}
	}

	return nil
}
