package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cleanup"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminHTTP struct {
	Users   *service.UserService
	Sweeper *cleanup.Sweeper
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	q := pageParams(c)
	total, users, err := h.Users.ListUsers(ctx, q.offset, q.limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, newPage(users, total, q))
}

func (h *AdminHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_user")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_user_error", err.Error(), err)
	}
	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_user_error", "invalid body", err)
	}

	u, err := h.Users.UpdateUser(ctx, id, req)
	if err != nil {
		return fail(l, "update_user_error", err)
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_user_error", err.Error(), err)
	}
	if err := h.Users.DeleteUser(ctx, id); err != nil {
		return fail(l, "delete_user_error", err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

// SweepPayments runs one cleanup sweep on demand.
func (h *AdminHTTP) SweepPayments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.sweep_payments")

	n, err := h.Sweeper.SweepOnce(ctx)
	if err != nil {
		return fail(l, "sweep_payments_error", err)
	}

	l.Info("sweep_payments_success", "expired", n)
	return c.JSON(http.StatusOK, transport.SweepResponse{Expired: n})
}
