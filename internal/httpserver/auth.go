package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const accessCookie = "accessToken"

type AuthHTTP struct {
	Svc          *service.UserService
	SecureCookie bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "username", u.Username)
	return c.JSON(http.StatusCreated, u)
}

// Login returns the access token in the body and also sets it as an
// HttpOnly cookie for browser clients.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	tok, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     accessCookie,
		Value:    tok.AccessToken,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	l.Info("login_success", "username", req.Username)
	return c.JSON(http.StatusOK, tok)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     accessCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}
