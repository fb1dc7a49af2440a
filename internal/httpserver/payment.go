package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type PaymentHTTP struct {
	Svc    *service.PaymentService
	Orders *service.OrderService
}

type payFunc func(c echo.Context, orderID uint, method string) (*models.Payment, error)

func (h *PaymentHTTP) pay(c echo.Context, handler string, fn payFunc) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)
	event := handler + "_error"

	orderID, err := paramID(c, "orderId")
	if err != nil {
		return badRequest(l, event, err.Error(), err)
	}
	var req transport.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, event, "invalid body", err)
	}
	if _, err := visibleOrder(ctx, c, h.Orders, orderID); err != nil {
		return fail(l, event, err)
	}

	p, err := fn(c, orderID, req.PaymentMethod)
	if err != nil {
		return fail(l, event, err)
	}

	l.Info("payment_settled", "order_id", orderID, "payment_id", p.ID, "status", p.Status)
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}

// ProcessPayment answers 200 for declined payments too; the body carries
// status FAILED and the decline reason.
func (h *PaymentHTTP) ProcessPayment(c echo.Context) error {
	return h.pay(c, "payment.process", func(c echo.Context, orderID uint, method string) (*models.Payment, error) {
		return h.Svc.ProcessPayment(c.Request().Context(), orderID, method)
	})
}

func (h *PaymentHTTP) RetryPayment(c echo.Context) error {
	return h.pay(c, "payment.retry", func(c echo.Context, orderID uint, method string) (*models.Payment, error) {
		return h.Svc.RetryPayment(c.Request().Context(), orderID, method)
	})
}

func (h *PaymentHTTP) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_payment_error", err.Error(), err)
	}
	p, err := h.Svc.GetPayment(ctx, id)
	if err != nil {
		return fail(l, "get_payment_error", err)
	}
	if _, err := visibleOrder(ctx, c, h.Orders, p.OrderID); err != nil {
		return fail(l, "get_payment_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}

func (h *PaymentHTTP) GetOrderPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_by_order")

	orderID, err := paramID(c, "orderId")
	if err != nil {
		return badRequest(l, "get_order_payment_error", err.Error(), err)
	}
	if _, err := visibleOrder(ctx, c, h.Orders, orderID); err != nil {
		return fail(l, "get_order_payment_error", err)
	}
	p, err := h.Svc.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		return fail(l, "get_order_payment_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}

func (h *PaymentHTTP) GetOrderPaymentHistory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.history")

	orderID, err := paramID(c, "orderId")
	if err != nil {
		return badRequest(l, "payment_history_error", err.Error(), err)
	}
	if _, err := visibleOrder(ctx, c, h.Orders, orderID); err != nil {
		return fail(l, "payment_history_error", err)
	}
	payments, err := h.Svc.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return fail(l, "payment_history_error", err)
	}

	out := make([]transport.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, transport.NewPaymentResponse(&payments[i]))
	}
	return c.JSON(http.StatusOK, out)
}
