package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

func address(street string, isDefault bool) transport.AddressRequest {
	return transport.AddressRequest{
		Street:    street,
		City:      "Springfield",
		State:     "IL",
		Country:   "US",
		ZipCode:   "62701",
		IsDefault: isDefault,
	}
}

func card(number string, isDefault bool) transport.CardRequest {
	return transport.CardRequest{
		CardNumber:      number,
		CardHolderName:  "Alice Smith",
		ExpirationMonth: 12,
		ExpirationYear:  testNow.Year() + 2,
		CVV:             "123",
		IsDefault:       isDefault,
	}
}

func TestAddAddress_SingleDefault(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")

	first, err := f.profile.AddAddress(f.ctx, "alice", address("1 Main St", true))
	require.NoError(t, err)
	second, err := f.profile.AddAddress(f.ctx, "alice", address("2 Oak Ave", true))
	require.NoError(t, err)

	list, err := f.profile.ListAddresses(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	defaults := map[uint]bool{}
	for _, a := range list {
		defaults[a.ID] = a.IsDefault
	}
	assert.False(t, defaults[first.ID])
	assert.True(t, defaults[second.ID])

	err = f.profile.DeleteAddress(f.ctx, "alice", second.ID)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
	assert.Equal(t, "cannot delete default address", apperr.Message(err))

	require.NoError(t, f.profile.DeleteAddress(f.ctx, "alice", first.ID))
}

func TestUpdateAddress_PromotesAndChecksOwner(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	f.user(t, "bob")

	home, err := f.profile.AddAddress(f.ctx, "alice", address("1 Main St", true))
	require.NoError(t, err)
	work, err := f.profile.AddAddress(f.ctx, "alice", address("2 Oak Ave", false))
	require.NoError(t, err)

	_, err = f.profile.UpdateAddress(f.ctx, "bob", work.ID, address("3 Elm St", true))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	updated, err := f.profile.UpdateAddress(f.ctx, "alice", work.ID, address("3 Elm St", true))
	require.NoError(t, err)
	assert.Equal(t, "3 Elm St", updated.Street)
	assert.True(t, updated.IsDefault)

	got, err := f.repo.GetAddress(f.ctx, home.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)

	// asking to un-default the current default leaves it as is
	kept, err := f.profile.UpdateAddress(f.ctx, "alice", work.ID, address("3 Elm St", false))
	require.NoError(t, err)
	assert.True(t, kept.IsDefault)
}

func TestAddAddress_Validation(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")

	bad := []transport.AddressRequest{
		{City: "c", State: "s", Country: "US", ZipCode: "12345"},
		{Street: "s", State: "s", Country: "US", ZipCode: "12345"},
		{Street: "s", City: "c", Country: "US", ZipCode: "12345"},
		{Street: "s", City: "c", State: "s", ZipCode: "12345"},
		{Street: "s", City: "c", State: "s", Country: "US", ZipCode: "1234"},
		{Street: "s", City: "c", State: "s", Country: "US", ZipCode: "12345-12"},
	}
	for _, req := range bad {
		_, err := f.profile.AddAddress(f.ctx, "alice", req)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", req)
	}

	_, err := f.profile.AddAddress(f.ctx, "alice", transport.AddressRequest{
		Street: "s", City: "c", State: "s", Country: "US", ZipCode: "12345-6789",
	})
	assert.NoError(t, err)
}

func TestCards(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	f.user(t, "bob")

	first, err := f.profile.AddCard(f.ctx, "alice", card("4111111111111111", true))
	require.NoError(t, err)
	second, err := f.profile.AddCard(f.ctx, "alice", card("5500000000000004", false))
	require.NoError(t, err)
	assert.Equal(t, "0004", second.LastFour())

	_, err = f.profile.UpdateCard(f.ctx, "alice", second.ID, card("5500000000000004", true))
	require.NoError(t, err)

	got, err := f.repo.GetCard(f.ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)

	assert.ErrorIs(t, f.profile.DeleteCard(f.ctx, "bob", first.ID), apperr.ErrUnauthorized)
	err = f.profile.DeleteCard(f.ctx, "alice", second.ID)
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
	assert.Equal(t, "cannot delete default credit card", apperr.Message(err))
	require.NoError(t, f.profile.DeleteCard(f.ctx, "alice", first.ID))

	cards, err := f.profile.ListCards(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, second.ID, cards[0].ID)
}

func TestAddCard_Validation(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")

	cases := []struct {
		name   string
		mutate func(*transport.CardRequest)
	}{
		{"short number", func(r *transport.CardRequest) { r.CardNumber = "411111111111111" }},
		{"letters in number", func(r *transport.CardRequest) { r.CardNumber = "4111x11111111111" }},
		{"no holder", func(r *transport.CardRequest) { r.CardHolderName = " " }},
		{"month 13", func(r *transport.CardRequest) { r.ExpirationMonth = 13 }},
		{"bad cvv", func(r *transport.CardRequest) { r.CVV = "12" }},
		{"expired last year", func(r *transport.CardRequest) { r.ExpirationYear = testNow.Year() - 1 }},
		{"expired last month", func(r *transport.CardRequest) {
			r.ExpirationYear = testNow.Year()
			r.ExpirationMonth = int(testNow.Month()) - 1
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := card("4111111111111111", false)
			tc.mutate(&req)
			_, err := f.profile.AddCard(f.ctx, "alice", req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	req := card("4111111111111111", false)
	req.ExpirationYear = testNow.Year()
	req.ExpirationMonth = int(testNow.Month())
	_, err := f.profile.AddCard(f.ctx, "alice", req)
	assert.NoError(t, err, "a card expiring this month is still valid")
}
