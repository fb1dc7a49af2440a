package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrBusinessRule, apperr.ErrInsufficientStock, apperr.ErrPayment, apperr.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs a failed call and turns err into the HTTP error the client sees.
func fail(l *slog.Logger, event string, err error) error {
	status := StatusOf(err)
	msg := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// ErrorHandler renders every error as {"error": msg}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := StatusOf(err), apperr.Message(err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.ErrorResponse{Error: msg})
}

func paramID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return uint(v), nil
}

type pageQuery struct {
	page, size    int
	offset, limit int
}

func pageParams(c echo.Context) pageQuery {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return pageQuery{page: page, size: limit, offset: offset, limit: limit}
}

func newPage[T any](items []T, total int64, q pageQuery) transport.Page[T] {
	if items == nil {
		items = []T{}
	}
	return transport.Page[T]{Items: items, Total: total, Page: q.page, Size: q.size}
}
