package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

func decline(reason string) SettlerFunc {
	return func(context.Context, models.Payment) Settlement {
		return Settlement{Reason: reason}
	}
}

func (f *fixture) insertPayment(t *testing.T, orderID uint, status models.PaymentStatus, at time.Time) *models.Payment {
	t.Helper()
	p := &models.Payment{
		OrderID:       orderID,
		Amount:        dec("10"),
		Method:        "CARD",
		PaymentDate:   at,
		Status:        status,
		TransactionID: at.Format(time.RFC3339Nano) + string(status),
	}
	require.NoError(t, f.repo.CreatePayment(f.ctx, p))
	return p
}

func TestProcessPayment_Success(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	p := f.product(t, "lamp", "10.00", 5)
	o := f.placeOrder(t, "alice", p.ID, 2)

	pay, err := f.payments.ProcessPayment(f.ctx, o.ID, "CREDIT_CARD")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentSuccess, pay.Status)
	assert.NotEmpty(t, pay.TransactionID)
	assert.True(t, dec("20.00").Equal(pay.Amount))
	assert.Equal(t, testNow, pay.PaymentDate)
	assert.Empty(t, pay.FailureReason)

	assert.Equal(t, models.OrderPaid, f.orderStatus(t, o.ID))
	assert.Equal(t, 3, f.stock(t, p.ID))

	latest, err := f.payments.GetPaymentByOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, pay.ID, latest.ID)
	assert.Equal(t, models.PaymentSuccess, latest.Status)

	assert.Contains(t, f.pub.Types(), "payment_succeeded")
}

func TestProcessPayment_DeclinedCancelsOrderKeepsStockReserved(t *testing.T) {
	f := newFixture(t)
	f.payments.Settler = decline(DeclinedByBank)
	f.user(t, "alice")
	p := f.product(t, "lamp", "10.00", 5)
	o := f.placeOrder(t, "alice", p.ID, 2)

	pay, err := f.payments.ProcessPayment(f.ctx, o.ID, "CREDIT_CARD")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentFailed, pay.Status)
	assert.Equal(t, DeclinedByBank, pay.FailureReason)
	assert.Equal(t, models.OrderCancelled, f.orderStatus(t, o.ID))
	assert.Equal(t, 3, f.stock(t, p.ID))

	stored, err := f.payments.GetPayment(f.ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.Status)
	assert.Contains(t, f.pub.Types(), "payment_failed")
}

func TestProcessPayment_Rejections(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	cheap := f.product(t, "pen", "1.00", 100)
	pricey := f.product(t, "car", "60000.00", 1)

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.payments.ProcessPayment(f.ctx, 999, "CARD")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("missing method", func(t *testing.T) {
		_, err := f.payments.ProcessPayment(f.ctx, 1, " ")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("over the limit", func(t *testing.T) {
		o := f.placeOrder(t, "alice", pricey.ID, 1)
		_, err := f.payments.ProcessPayment(f.ctx, o.ID, "CARD")
		assert.ErrorIs(t, err, apperr.ErrPayment)
		assert.Equal(t, models.OrderPending, f.orderStatus(t, o.ID))
	})

	t.Run("order not pending", func(t *testing.T) {
		o := f.placeOrder(t, "alice", cheap.ID, 1)
		_, err := f.payments.ProcessPayment(f.ctx, o.ID, "CARD")
		require.NoError(t, err)

		_, err = f.payments.ProcessPayment(f.ctx, o.ID, "CARD")
		assert.ErrorIs(t, err, apperr.ErrPayment)
		assert.Equal(t, "order is not in pending status", apperr.Message(err))
	})
}

func TestProcessPayment_PreviousStillProcessing(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	p := f.product(t, "lamp", "10.00", 5)
	o := f.placeOrder(t, "alice", p.ID, 1)

	f.insertPayment(t, o.ID, models.PaymentPending, testNow.Add(-time.Minute))

	_, err := f.payments.ProcessPayment(f.ctx, o.ID, "CARD")
	require.ErrorIs(t, err, apperr.ErrPayment)
	assert.Equal(t, "previous payment is still processing", apperr.Message(err))

	n, err := f.repo.CountPayments(f.ctx, o.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestProcessPayment_StalePendingDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	p := f.product(t, "lamp", "10.00", 5)
	o := f.placeOrder(t, "alice", p.ID, 1)

	f.insertPayment(t, o.ID, models.PaymentPending, testNow.Add(-10*time.Minute))

	pay, err := f.payments.ProcessPayment(f.ctx, o.ID, "CARD")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, pay.Status)
}

func TestRetryPayment(t *testing.T) {
	t.Run("no previous payment", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "alice")
		p := f.product(t, "lamp", "10.00", 5)
		o := f.placeOrder(t, "alice", p.ID, 1)

		_, err := f.payments.RetryPayment(f.ctx, o.ID, "CARD")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("previous not failed", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "alice")
		p := f.product(t, "lamp", "10.00", 5)
		o := f.placeOrder(t, "alice", p.ID, 1)
		f.insertPayment(t, o.ID, models.PaymentPending, testNow.Add(-time.Minute))

		_, err := f.payments.RetryPayment(f.ctx, o.ID, "CARD")
		require.ErrorIs(t, err, apperr.ErrPayment)
		assert.Equal(t, "previous payment was not failed", apperr.Message(err))
	})

	t.Run("after a timed out attempt", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "alice")
		p := f.product(t, "lamp", "10.00", 5)
		o := f.placeOrder(t, "alice", p.ID, 1)
		f.insertPayment(t, o.ID, models.PaymentFailed, testNow.Add(-10*time.Minute))

		pay, err := f.payments.RetryPayment(f.ctx, o.ID, "CARD")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentSuccess, pay.Status)
		assert.Equal(t, models.OrderPaid, f.orderStatus(t, o.ID))

		history, err := f.payments.ListPaymentsByOrder(f.ctx, o.ID)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("max retries reached", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "alice")
		p := f.product(t, "lamp", "10.00", 5)
		o := f.placeOrder(t, "alice", p.ID, 1)
		for i := 0; i < f.payments.Config.MaxRetries; i++ {
			f.insertPayment(t, o.ID, models.PaymentFailed, testNow.Add(-time.Duration(10+i)*time.Minute))
		}

		_, err := f.payments.RetryPayment(f.ctx, o.ID, "CARD")
		require.ErrorIs(t, err, apperr.ErrPayment)
		assert.Equal(t, "maximum retry attempts exceeded", apperr.Message(err))
		assert.Equal(t, models.OrderPending, f.orderStatus(t, o.ID))
	})
}

func TestGetPayment_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.payments.GetPayment(f.ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.payments.GetPaymentByOrder(f.ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCadenceSettler_DeclinesEveryNth(t *testing.T) {
	t.Parallel()

	s := NewCadenceSettler(3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Settle(context.Background(), models.Payment{}).Approved)
	}
	assert.Equal(t, []bool{true, true, false, true, true, false}, got)

	declined := NewCadenceSettler(1).Settle(context.Background(), models.Payment{})
	assert.False(t, declined.Approved)
	assert.Equal(t, DeclinedByBank, declined.Reason)

	always := NewCadenceSettler(0)
	for i := 0; i < 5; i++ {
		assert.True(t, always.Settle(context.Background(), models.Payment{}).Approved)
	}
}

func TestCadenceSettler_ThroughService(t *testing.T) {
	f := newFixture(t)
	f.payments.Settler = NewCadenceSettler(3)
	f.user(t, "alice")
	p := f.product(t, "pen", "1.00", 100)

	var statuses []models.PaymentStatus
	for i := 0; i < 3; i++ {
		o := f.placeOrder(t, "alice", p.ID, 1)
		pay, err := f.payments.ProcessPayment(f.ctx, o.ID, "CARD")
		require.NoError(t, err)
		statuses = append(statuses, pay.Status)
	}
	assert.Equal(t, []models.PaymentStatus{models.PaymentSuccess, models.PaymentSuccess, models.PaymentFailed}, statuses)
}
