package authmw

import (
	"net/http"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	CtxUsername = "username"
	CtxRole     = "role"

	ctxToken = "access_token"
)

// RequireAuth accepts an HS256 access token from the Authorization bearer
// header or the accessToken cookie and puts the subject and role into the
// echo context.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    ctxToken,
		TokenLookup:   "header:Authorization:Bearer ,cookie:accessToken",
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		SuccessHandler: func(c echo.Context) {
			tkn, ok := c.Get(ctxToken).(*jwt.Token)
			if !ok {
				return
			}
			if claims, ok := tkn.Claims.(*tokens.AccessClaims); ok {
				c.Set(CtxUsername, claims.Subject)
				c.Set(CtxRole, claims.Role)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
		},
	})
}

func RequireRole(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(tokens.RoleAdmin)
}

func Username(c echo.Context) string {
	v, _ := c.Get(CtxUsername).(string)
	return v
}

func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(CtxRole).(string)
	return v == tokens.RoleAdmin
}
