package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_error", err.Error(), err)
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	q := pageParams(c)
	f := repo.ProductFilter{
		Category: c.QueryParam("category"),
		SortBy:   c.QueryParam("sort"),
		Desc:     strings.EqualFold(c.QueryParam("order"), "desc"),
		Offset:   q.offset,
		Limit:    q.limit,
	}

	total, items, err := h.Svc.ListProducts(ctx, f)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, newPage(items, total, q))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := pageParams(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), q.offset, q.limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, newPage(items, total, q))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_update_error", err.Error(), err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_update_error", "invalid body", err)
	}

	p, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "product_update_error", err)
	}

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", err.Error(), err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.adjust_stock")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "adjust_stock_error", err.Error(), err)
	}
	var req transport.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "adjust_stock_error", "invalid body", err)
	}

	p, err := h.Svc.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return fail(l, "adjust_stock_error", err)
	}

	l.Info("adjust_stock_success", "product_id", id, "delta", req.Delta, "stock", p.Stock)
	return c.JSON(http.StatusOK, p)
}
