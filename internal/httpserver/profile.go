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

type ProfileHTTP struct {
	Svc *service.ProfileService
}

func (h *ProfileHTTP) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.list_addresses")

	items, err := h.Svc.ListAddresses(ctx, authmw.Username(c))
	if err != nil {
		return fail(l, "list_addresses_error", err)
	}
	if items == nil {
		items = []models.Address{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProfileHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.add_address")

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_address_error", "invalid body", err)
	}
	a, err := h.Svc.AddAddress(ctx, authmw.Username(c), req)
	if err != nil {
		return fail(l, "add_address_error", err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *ProfileHTTP) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update_address")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_address_error", err.Error(), err)
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_address_error", "invalid body", err)
	}
	a, err := h.Svc.UpdateAddress(ctx, authmw.Username(c), id, req)
	if err != nil {
		return fail(l, "update_address_error", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ProfileHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.delete_address")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_address_error", err.Error(), err)
	}
	if err := h.Svc.DeleteAddress(ctx, authmw.Username(c), id); err != nil {
		return fail(l, "delete_address_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProfileHTTP) ListCards(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.list_cards")

	cards, err := h.Svc.ListCards(ctx, authmw.Username(c))
	if err != nil {
		return fail(l, "list_cards_error", err)
	}
	out := make([]transport.CardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, transport.NewCardResponse(card))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProfileHTTP) AddCard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.add_card")

	var req transport.CardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_card_error", "invalid body", err)
	}
	card, err := h.Svc.AddCard(ctx, authmw.Username(c), req)
	if err != nil {
		return fail(l, "add_card_error", err)
	}
	return c.JSON(http.StatusCreated, transport.NewCardResponse(*card))
}

func (h *ProfileHTTP) UpdateCard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update_card")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_card_error", err.Error(), err)
	}
	var req transport.CardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_card_error", "invalid body", err)
	}
	card, err := h.Svc.UpdateCard(ctx, authmw.Username(c), id, req)
	if err != nil {
		return fail(l, "update_card_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCardResponse(*card))
}

func (h *ProfileHTTP) DeleteCard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.delete_card")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_card_error", err.Error(), err)
	}
	if err := h.Svc.DeleteCard(ctx, authmw.Username(c), id); err != nil {
		return fail(l, "delete_card_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
