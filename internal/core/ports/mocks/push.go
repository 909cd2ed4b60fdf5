package mocks

import (
	"context"
	"sync"

	"github.com/snoopa/firehose/internal/core/domain"
)

// PushSender is a thread-safe in-memory implementation of ports.PushSender.
type PushSender struct {
	mu   sync.Mutex
	sent []domain.PushMessage

	// SendFn allows overriding Send behavior.
	SendFn func(ctx context.Context, msg domain.PushMessage) error
}

// NewPushSender creates a new mock push sender.
func NewPushSender() *PushSender {
	return &PushSender{}
}

// Send records the message.
func (p *PushSender) Send(ctx context.Context, msg domain.PushMessage) error {
	if p.SendFn != nil {
		if err := p.SendFn(ctx, msg); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sent = append(p.sent, msg)

	return nil
}

// Sent returns every delivered message.
func (p *PushSender) Sent() []domain.PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.PushMessage(nil), p.sent...)
}

// Reporter is an in-memory implementation of ports.RunReporter.
type Reporter struct {
	mu      sync.Mutex
	reports []domain.RunStats
}

// NewReporter creates a new mock reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// ReportRun records the stats.
func (r *Reporter) ReportRun(_ context.Context, stats domain.RunStats, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = append(r.reports, stats)

	return nil
}

// Reports returns every reported run.
func (r *Reporter) Reports() []domain.RunStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.RunStats(nil), r.reports...)
}
