package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type countingPublisher struct{ n int }

func (p *countingPublisher) Publish(context.Context, string, events.Event) error {
	p.n++
	return nil
}

func (p *countingPublisher) Close() error { return nil }

func pendingOrder(t *testing.T, r *repo.GormRepo) *models.Order {
	t.Helper()
	u := repotest.User(t, r, "alice")
	o := &models.Order{
		UserID:          u.ID,
		TotalAmount:     decimal.RequireFromString("20.00"),
		Status:          models.OrderPending,
		ShippingAddress: "1 Main St",
		PaymentMethod:   "CREDIT_CARD",
	}
	require.NoError(t, r.CreateOrder(context.Background(), o))
	return o
}

func payment(t *testing.T, r *repo.GormRepo, orderID uint, txID string, at time.Time) *models.Payment {
	t.Helper()
	p := &models.Payment{
		OrderID:       orderID,
		Amount:        decimal.RequireFromString("20.00"),
		Method:        "CREDIT_CARD",
		PaymentDate:   at,
		Status:        models.PaymentPending,
		TransactionID: txID,
	}
	require.NoError(t, r.CreatePayment(context.Background(), p))
	return p
}

func newSweeper(r *repo.GormRepo, pub events.Publisher) *Sweeper {
	s := NewSweeper(r, 5*time.Minute, time.Hour, pub, logging.Discard())
	s.Now = func() time.Time { return now }
	return s
}

func TestSweepOnce_ExpiresOnlyStalePayments(t *testing.T) {
	ctx := context.Background()
	r := repotest.New(t)
	o := pendingOrder(t, r)
	stale := payment(t, r, o.ID, "stale", now.Add(-10*time.Minute))
	fresh := payment(t, r, o.ID, "fresh", now.Add(-time.Minute))

	pub := &countingPublisher{}
	n, err := newSweeper(r, pub).SweepOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, pub.n)

	got, err := r.GetPayment(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, got.Status)
	assert.Equal(t, TimeoutReason, got.FailureReason)

	got, err = r.GetPayment(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.Status)

	n, err = newSweeper(r, pub).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, pub.n, "an empty sweep publishes nothing")
}

func TestSweepOnce_SkipsWhileAnotherSweepRuns(t *testing.T) {
	r := repotest.New(t)
	o := pendingOrder(t, r)
	payment(t, r, o.ID, "stale", now.Add(-10*time.Minute))

	s := newSweeper(r, nil)
	s.mu.Lock()
	n, err := s.SweepOnce(context.Background())
	s.mu.Unlock()

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweep_AllowsRetry(t *testing.T) {
	ctx := context.Background()
	r := repotest.New(t)
	o := pendingOrder(t, r)
	payment(t, r, o.ID, "stale", now.Add(-10*time.Minute))

	payments := service.NewPaymentService(r, config.DefaultPayment(), service.SettlerFunc(func(context.Context, models.Payment) service.Settlement {
		return service.Settlement{Approved: true}
	}), nil)
	payments.Now = func() time.Time { return now }

	_, err := payments.RetryPayment(ctx, o.ID, "CREDIT_CARD")
	require.Error(t, err, "a pending attempt blocks retries")

	_, err = newSweeper(r, nil).SweepOnce(ctx)
	require.NoError(t, err)

	p, err := payments.RetryPayment(ctx, o.ID, "CREDIT_CARD")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, p.Status)

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, got.Status)
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := repotest.New(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	o := pendingOrder(t, r)
	stale := payment(t, r, o.ID, "stale", now.Add(-10*time.Minute))

	s := newSweeper(r, nil)
	s.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := r.GetPayment(context.Background(), stale.ID)
		return err == nil && got.Status == models.PaymentFailed
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
