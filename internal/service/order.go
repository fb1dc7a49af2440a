package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Cache  ProductCache
	Events events.Publisher
	Now    func() time.Time
}

func NewOrderService(r *repo.GormRepo, cache ProductCache, pub events.Publisher) *OrderService {
	return &OrderService{
		Repo:   r,
		Cache:  cacheOrNop(cache),
		Events: publisherOrNop(pub),
		Now:    utcNow,
	}
}

// CreateOrder turns the user's cart into a PENDING order. Stock for every
// line is reserved immediately and the consumed cart lines are removed, all
// in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, username string, req transport.CreateOrderRequest) (*models.Order, error) {
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.ShippingAddress == "" {
		return nil, apperr.Validation("shipping address is required")
	}
	if req.PaymentMethod == "" {
		return nil, apperr.Validation("payment method is required")
	}

	var order *models.Order
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		user, err := userByName(ctx, tx, username)
		if err != nil {
			return err
		}
		lines, err := tx.GetCart(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(lines) == 0 {
			return apperr.BusinessRule("cart is empty")
		}

		ids := make([]uint, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("load cart products: %w", err)
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		lineIDs := make([]uint, 0, len(lines))
		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				return apperr.NotFound("product %d not found", l.ProductID)
			}
			if p.Stock < l.Quantity {
				return apperr.InsufficientStock("insufficient stock for product %s", p.Name)
			}
			if err := tx.AdjustStock(ctx, p.ID, -l.Quantity); err != nil {
				return stockErr(err, p.ID, p.Name)
			}

			items = append(items, models.OrderItem{
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Price:     l.Price,
			})
			total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			lineIDs = append(lineIDs, l.ID)
		}

		order = &models.Order{
			UserID:          user.ID,
			Items:           items,
			TotalAmount:     total,
			Status:          models.OrderPending,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			CreatedAt:       s.Now(),
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.DeleteCartItems(ctx, lineIDs); err != nil {
			return fmt.Errorf("clear cart lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, productIDs(order)...)
	logging.FromContext(ctx).Info("order_created", "svc", "order", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
	publish(ctx, s.Events, events.TopicOrders, "order_created", order.ID, order)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "order", id)
	}
	return o, nil
}

// CheckOwner returns Unauthorized unless the order belongs to username.
func (s *OrderService) CheckOwner(ctx context.Context, username string, o *models.Order) error {
	return checkOrderOwner(ctx, s.Repo, username, o)
}

func checkOrderOwner(ctx context.Context, r *repo.GormRepo, username string, o *models.Order) error {
	user, err := userByName(ctx, r, username)
	if err != nil {
		return err
	}
	if o.UserID != user.ID {
		return apperr.Unauthorized("unauthorized access to order")
	}
	return nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, username string) ([]models.Order, error) {
	user, err := userByName(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}
	orders, err := s.Repo.ListUserOrders(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", username, err)
	}
	return orders, nil
}

func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	total, orders, err := s.Repo.ListOrders(ctx, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("list orders: %w", err)
	}
	return total, orders, nil
}

func (s *OrderService) ConfirmOrder(ctx context.Context, username string, orderID uint) (*models.Order, error) {
	return s.ownerTransition(ctx, username, orderID, models.OrderPaid, func(o *models.Order) error {
		if o.Status != models.OrderPending {
			return apperr.BusinessRule("order cannot be confirmed in status %s", o.Status)
		}
		return nil
	})
}

// CancelOrder cancels a PENDING or PAID order and returns its stock. Funds
// of a PAID order are not reversed.
func (s *OrderService) CancelOrder(ctx context.Context, username string, orderID uint) (*models.Order, error) {
	return s.ownerTransition(ctx, username, orderID, models.OrderCancelled, func(o *models.Order) error {
		if !o.Status.CanTransitionTo(models.OrderCancelled) {
			return apperr.BusinessRule("order cannot be cancelled in status %s", o.Status)
		}
		return nil
	})
}

func (s *OrderService) ownerTransition(ctx context.Context, username string, orderID uint, to models.OrderStatus, guard func(*models.Order) error) (*models.Order, error) {
	var o *models.Order
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		o, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return lookupErr(err, "order", orderID)
		}
		if err := checkOrderOwner(ctx, tx, username, o); err != nil {
			return err
		}
		if err := guard(o); err != nil {
			return err
		}
		return moveOrder(ctx, tx, o, to)
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, o)
	return o, nil
}

// UpdateOrderStatus is the admin override, still bound by the transition
// table.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown order status %q", status)
	}

	var o *models.Order
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		o, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return lookupErr(err, "order", orderID)
		}
		return moveOrder(ctx, tx, o, status)
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, o)
	return o, nil
}

func (s *OrderService) afterTransition(ctx context.Context, o *models.Order) {
	typ := "order_confirmed"
	if o.Status == models.OrderCancelled {
		typ = "order_cancelled"
		s.Cache.Invalidate(ctx, productIDs(o)...)
	}
	logging.FromContext(ctx).Info("order_status_changed", "svc", "order", "order_id", o.ID, "status", o.Status)
	publish(ctx, s.Events, events.TopicOrders, typ, o.ID, map[string]any{"order_id": o.ID, "status": o.Status})
}

// Summarize renders an order with product names and line subtotals.
func (s *OrderService) Summarize(ctx context.Context, o *models.Order) (transport.OrderSummary, error) {
	products, err := s.Repo.GetProductsByIDs(ctx, productIDs(o))
	if err != nil {
		return transport.OrderSummary{}, fmt.Errorf("load order products: %w", err)
	}

	sum := transport.OrderSummary{
		OrderID:         o.ID,
		OrderDate:       o.CreatedAt,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Items:           make([]transport.OrderSummaryItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		sum.Items = append(sum.Items, transport.OrderSummaryItem{
			ProductID:   it.ProductID,
			ProductName: products[it.ProductID].Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal(),
		})
	}
	return sum, nil
}

func (s *OrderService) OrderSummary(ctx context.Context, orderID uint) (transport.OrderSummary, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return transport.OrderSummary{}, err
	}
	return s.Summarize(ctx, o)
}

// moveOrder applies one status transition inside tx. Moving to CANCELLED
// returns every line's quantity to stock.
func moveOrder(ctx context.Context, tx *repo.GormRepo, o *models.Order, to models.OrderStatus) error {
	if err := setOrderStatus(ctx, tx, o, to); err != nil {
		return err
	}
	if to != models.OrderCancelled {
		return nil
	}
	for _, it := range o.Items {
		err := tx.AdjustStock(ctx, it.ProductID, it.Quantity)
		if repo.IsNotFound(err) {
			// product was deleted after the order was placed
			continue
		}
		if err != nil {
			return stockErr(err, it.ProductID, "")
		}
	}
	return nil
}

// setOrderStatus changes the status without touching inventory. The write is
// conditional on the status o was loaded with, so a stale order fails.
func setOrderStatus(ctx context.Context, tx *repo.GormRepo, o *models.Order, to models.OrderStatus) error {
	if !o.Status.CanTransitionTo(to) {
		return apperr.BusinessRule("order cannot move from %s to %s", o.Status, to)
	}
	err := tx.SetOrderStatus(ctx, o.ID, o.Status, to)
	if errors.Is(err, repo.ErrStatusConflict) {
		return apperr.BusinessRule("order %d was modified concurrently", o.ID)
	}
	if err != nil {
		return fmt.Errorf("set order %d status: %w", o.ID, err)
	}
	o.Status = to
	return nil
}

func productIDs(o *models.Order) []uint {
	ids := make([]uint, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	return ids
}
