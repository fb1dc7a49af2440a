package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func reviewList(items []models.Review) []models.Review {
	if items == nil {
		return []models.Review{}
	}
	return items
}

func (h *ReviewHTTP) ProductReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.by_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_reviews_error", err.Error(), err)
	}
	items, err := h.Svc.ProductReviews(ctx, id)
	if err != nil {
		return fail(l, "product_reviews_error", err)
	}
	return c.JSON(http.StatusOK, reviewList(items))
}

func (h *ReviewHTTP) MyReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.mine")

	items, err := h.Svc.UserReviews(ctx, authmw.Username(c))
	if err != nil {
		return fail(l, "my_reviews_error", err)
	}
	return c.JSON(http.StatusOK, reviewList(items))
}

func (h *ReviewHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.add")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "add_review_error", err.Error(), err)
	}
	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_review_error", "invalid body", err)
	}

	rv, err := h.Svc.AddReview(ctx, authmw.Username(c), id, req)
	if err != nil {
		return fail(l, "add_review_error", err)
	}
	return c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHTTP) UpdateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.update")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_review_error", err.Error(), err)
	}
	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_review_error", "invalid body", err)
	}

	rv, err := h.Svc.UpdateReview(ctx, authmw.Username(c), id, req)
	if err != nil {
		return fail(l, "update_review_error", err)
	}
	return c.JSON(http.StatusOK, rv)
}

func (h *ReviewHTTP) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_review_error", err.Error(), err)
	}
	if err := h.Svc.DeleteReview(ctx, authmw.Username(c), id); err != nil {
		return fail(l, "delete_review_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
