package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// visibleOrder loads an order the caller may see: their own, or any order
// for admins.
func visibleOrder(ctx context.Context, c echo.Context, svc *service.OrderService, id uint) (*models.Order, error) {
	o, err := svc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if authmw.IsAdmin(c) {
		return o, nil
	}
	if err := svc.CheckOwner(ctx, authmw.Username(c), o); err != nil {
		return nil, err
	}
	return o, nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	o, err := h.Svc.CreateOrder(ctx, authmw.Username(c), req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", o.ID, "total", o.TotalAmount.StringFixed(2))
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	orders, err := h.Svc.ListUserOrders(ctx, authmw.Username(c))
	if err != nil {
		return fail(l, "get_orders_error", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}
	o, err := visibleOrder(ctx, c, h.Svc, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) GetSummary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.summary")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "order_summary_error", err.Error(), err)
	}
	o, err := visibleOrder(ctx, c, h.Svc, id)
	if err != nil {
		return fail(l, "order_summary_error", err)
	}
	sum, err := h.Svc.Summarize(ctx, o)
	if err != nil {
		return fail(l, "order_summary_error", err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *OrderHTTP) ConfirmOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirm")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "confirm_order_error", err.Error(), err)
	}
	o, err := h.Svc.ConfirmOrder(ctx, authmw.Username(c), id)
	if err != nil {
		return fail(l, "confirm_order_error", err)
	}

	l.Info("confirm_order_success", "order_id", id)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_error", err.Error(), err)
	}
	o, err := h.Svc.CancelOrder(ctx, authmw.Username(c), id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	q := pageParams(c)
	total, orders, err := h.Svc.ListOrders(ctx, q.offset, q.limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, newPage(orders, total, q))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_order_status_error", err.Error(), err)
	}
	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order_status_error", "invalid body", err)
	}

	status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	o, err := h.Svc.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return fail(l, "update_order_status_error", err)
	}

	l.Info("update_order_status_success", "order_id", id, "status", o.Status)
	return c.JSON(http.StatusOK, o)
}
