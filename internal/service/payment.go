package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/apperr"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type PaymentService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Settler Settler
	Config  config.PaymentConfig
	Now     func() time.Time
}

func NewPaymentService(r *repo.GormRepo, cfg config.PaymentConfig, settler Settler, pub events.Publisher) *PaymentService {
	if settler == nil {
		settler = NewCadenceSettler(cfg.DeclineEvery)
	}
	return &PaymentService{
		Repo:    r,
		Events:  publisherOrNop(pub),
		Settler: settler,
		Config:  cfg,
		Now:     utcNow,
	}
}

// ProcessPayment settles a new payment for a PENDING order. A declined
// payment is not an error: the returned payment is FAILED and the order is
// cancelled. The reserved stock is not returned on decline.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID uint, method string) (*models.Payment, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, apperr.Validation("payment method is required")
	}

	var (
		p *models.Payment
		o *models.Order
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		p, o, err = s.process(ctx, tx, orderID, method)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterSettle(ctx, p, o)
	return p, nil
}

// RetryPayment settles another attempt after the latest one FAILED while
// the order is still PENDING, up to MaxRetries attempts in total.
func (s *PaymentService) RetryPayment(ctx context.Context, orderID uint, method string) (*models.Payment, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, apperr.Validation("payment method is required")
	}

	var (
		p *models.Payment
		o *models.Order
	)
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		n, err := tx.CountPayments(ctx, orderID)
		if err != nil {
			return fmt.Errorf("count payments for order %d: %w", orderID, err)
		}
		if n == 0 {
			return apperr.NotFound("no previous payment found for order %d", orderID)
		}
		if n >= int64(s.Config.MaxRetries) {
			return apperr.Payment("maximum retry attempts exceeded")
		}

		last, err := tx.LatestPayment(ctx, orderID)
		if err != nil {
			return lookupErr(err, "payment for order", orderID)
		}
		if last.Status != models.PaymentFailed {
			return apperr.Payment("previous payment was not failed")
		}

		p, o, err = s.process(ctx, tx, orderID, method)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterSettle(ctx, p, o)
	return p, nil
}

func (s *PaymentService) process(ctx context.Context, tx *repo.GormRepo, orderID uint, method string) (*models.Payment, *models.Order, error) {
	o, err := tx.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, nil, lookupErr(err, "order", orderID)
	}
	if o.Status != models.OrderPending {
		return nil, nil, apperr.Payment("order is not in pending status")
	}
	if o.TotalAmount.GreaterThan(s.Config.MaxAmount) {
		return nil, nil, apperr.Payment("payment amount exceeds maximum limit of %s", s.Config.MaxAmount.StringFixed(2))
	}

	now := s.Now()
	last, err := tx.LatestPayment(ctx, orderID)
	switch {
	case err == nil:
		if last.Status == models.PaymentPending && now.Sub(last.PaymentDate) < s.Config.Timeout() {
			return nil, nil, apperr.Payment("previous payment is still processing")
		}
	case !repo.IsNotFound(err):
		return nil, nil, fmt.Errorf("load latest payment for order %d: %w", orderID, err)
	}

	p := &models.Payment{
		OrderID:       o.ID,
		Amount:        o.TotalAmount,
		Method:        method,
		PaymentDate:   now,
		Status:        models.PaymentPending,
		TransactionID: uuid.NewString(),
	}
	if err := tx.CreatePayment(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("create payment: %w", err)
	}

	res := s.Settler.Settle(ctx, *p)
	if res.Approved {
		p.Status = models.PaymentSuccess
		if err := moveOrder(ctx, tx, o, models.OrderPaid); err != nil {
			return nil, nil, err
		}
	} else {
		p.Status = models.PaymentFailed
		p.FailureReason = res.Reason
		if p.FailureReason == "" {
			p.FailureReason = DeclinedByBank
		}
		if err := setOrderStatus(ctx, tx, o, models.OrderCancelled); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.SavePayment(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("save payment %d: %w", p.ID, err)
	}
	return p, o, nil
}

func (s *PaymentService) afterSettle(ctx context.Context, p *models.Payment, o *models.Order) {
	l := logging.FromContext(ctx).With("svc", "payment", "order_id", o.ID, "payment_id", p.ID)

	if p.Status == models.PaymentSuccess {
		l.Info("payment_succeeded", "transaction_id", p.TransactionID)
		publish(ctx, s.Events, events.TopicPayments, "payment_succeeded", o.ID, p)
		publish(ctx, s.Events, events.TopicOrders, "order_confirmed", o.ID, map[string]any{"order_id": o.ID, "status": o.Status})
		return
	}

	l.Warn("payment_failed", "reason", p.FailureReason)
	publish(ctx, s.Events, events.TopicPayments, "payment_failed", o.ID, p)
	publish(ctx, s.Events, events.TopicOrders, "order_cancelled", o.ID, map[string]any{"order_id": o.ID, "status": o.Status})
}

func (s *PaymentService) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.Repo.GetPayment(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "payment", id)
	}
	return p, nil
}

// GetPaymentByOrder returns the latest payment of the order.
func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID uint) (*models.Payment, error) {
	p, err := s.Repo.LatestPayment(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "payment for order", orderID)
	}
	return p, nil
}

func (s *PaymentService) ListPaymentsByOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	out, err := s.Repo.ListPayments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments for order %d: %w", orderID, err)
	}
	return out, nil
}
