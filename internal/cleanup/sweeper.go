// Package cleanup expires payments that never settled.
//
// Settlement runs inside the request that created the payment, so a PENDING
// row older than the timeout only exists when that request died midway. The
// sweeper marks such rows FAILED, which lets RetryPayment pick the order up
// again.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
)

// TimeoutReason is recorded on payments expired by the sweeper.
const TimeoutReason = "Payment timeout"

type Sweeper struct {
	Repo     *repo.GormRepo
	Timeout  time.Duration
	Interval time.Duration
	Events   events.Publisher
	Log      *slog.Logger
	Now      func() time.Time

	mu sync.Mutex
}

func NewSweeper(r *repo.GormRepo, timeout, interval time.Duration, pub events.Publisher, l *slog.Logger) *Sweeper {
	if pub == nil {
		pub = events.Nop{}
	}
	if l == nil {
		l = slog.Default()
	}
	return &Sweeper{
		Repo:     r,
		Timeout:  timeout,
		Interval: interval,
		Events:   pub,
		Log:      l.With("component", "payment_sweeper"),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once per Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.Log.Info("sweeper_started", "interval", s.Interval.String(), "timeout", s.Timeout.String())
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("sweeper_stopped")
			return nil
		case <-t.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.Log.Error("sweep_error", "error", err)
			}
		}
	}
}

// SweepOnce fails every PENDING payment older than Timeout and reports how
// many rows changed. A sweep that finds another one in progress does nothing.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	if !s.mu.TryLock() {
		s.Log.Debug("sweep_skipped", "reason", "previous sweep still running")
		return 0, nil
	}
	defer s.mu.Unlock()

	cutoff := s.Now().Add(-s.Timeout)
	n, err := s.Repo.FailStalePayments(ctx, cutoff, TimeoutReason)
	if err != nil {
		return 0, fmt.Errorf("fail stale payments: %w", err)
	}
	if n > 0 {
		s.Log.Info("sweep_expired_payments", "count", n, "cutoff", cutoff)
		ev := events.Event{
			Type:       "payments_expired",
			Key:        "sweeper",
			OccurredAt: s.Now(),
			Payload:    map[string]any{"count": n, "cutoff": cutoff},
		}
		if err := s.Events.Publish(ctx, events.TopicPayments, ev); err != nil {
			s.Log.Warn("publish_failed", "topic", events.TopicPayments, "type", ev.Type, "error", err)
		}
	}
	return n, nil
}
