package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serve(req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(Middleware(DefaultConfig()))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/x", ok)
	e.POST("/x", ok)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "jwt"})
	return req
}

func TestMiddleware(t *testing.T) {
	t.Run("bearer clients pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer jwt")
		assert.Equal(t, http.StatusOK, serve(withSession(req)).Code)
	})

	t.Run("anonymous requests pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		assert.Equal(t, http.StatusOK, serve(req).Code)
	})

	t.Run("safe method hands out a token", func(t *testing.T) {
		rec := serve(withSession(httptest.NewRequest(http.MethodGet, "/x", nil)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
	})

	t.Run("cookie post without token", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPost, "http://example.com/x", nil))
		req.Header.Set("Origin", "http://example.com")
		assert.Equal(t, http.StatusForbidden, serve(req).Code)
	})

	t.Run("cookie post with matching token", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPost, "http://example.com/x", nil))
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
		req.Header.Set("X-CSRF-Token", "tok")
		req.Header.Set("Origin", "http://example.com")
		assert.Equal(t, http.StatusOK, serve(req).Code)
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPost, "http://example.com/x", nil))
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
		req.Header.Set("X-CSRF-Token", "tok")
		req.Header.Set("Origin", "http://evil.test")
		assert.Equal(t, http.StatusForbidden, serve(req).Code)
	})
}
