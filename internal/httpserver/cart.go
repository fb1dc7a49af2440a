package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	cart, err := h.Svc.GetCart(ctx, authmw.Username(c))
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}

	item, err := h.Svc.AddToCart(ctx, authmw.Username(c), req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_cart_item_error", err.Error(), err)
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_item_error", "invalid body", err)
	}

	item, err := h.Svc.UpdateQuantity(ctx, authmw.Username(c), id, req.Quantity)
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "remove_cart_item_error", err.Error(), err)
	}
	if err := h.Svc.RemoveFromCart(ctx, authmw.Username(c), id); err != nil {
		return fail(l, "remove_cart_item_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.ClearCart(ctx, authmw.Username(c)); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
