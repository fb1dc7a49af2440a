package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

func TestAddReview_UpdatesRating(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	f.user(t, "bob")
	p := f.product(t, "lamp", "10.00", 5)

	_, err := f.reviews.AddReview(f.ctx, "alice", p.ID, transport.ReviewRequest{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = f.reviews.AddReview(f.ctx, "bob", p.ID, transport.ReviewRequest{Rating: 2})
	require.NoError(t, err)

	got, err := f.repo.GetProduct(f.ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.AverageRating, 0.001)
	assert.Equal(t, 2, got.ReviewCount)

	_, err = f.reviews.AddReview(f.ctx, "alice", p.ID, transport.ReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
	assert.Equal(t, "user has already reviewed this product", apperr.Message(err))
}

func TestAddReview_Validation(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	p := f.product(t, "lamp", "10.00", 5)

	cases := []struct {
		name string
		req  transport.ReviewRequest
	}{
		{"rating too low", transport.ReviewRequest{Rating: 0}},
		{"rating too high", transport.ReviewRequest{Rating: 6}},
		{"comment too long", transport.ReviewRequest{Rating: 3, Comment: strings.Repeat("é", 1001)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.reviews.AddReview(f.ctx, "alice", p.ID, tc.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	_, err := f.reviews.AddReview(f.ctx, "alice", p.ID, transport.ReviewRequest{Rating: 3, Comment: strings.Repeat("é", 1000)})
	assert.NoError(t, err)

	_, err = f.reviews.AddReview(f.ctx, "alice", 999, transport.ReviewRequest{Rating: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAndDeleteReview(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	f.user(t, "bob")
	p := f.product(t, "lamp", "10.00", 5)

	rv, err := f.reviews.AddReview(f.ctx, "alice", p.ID, transport.ReviewRequest{Rating: 4})
	require.NoError(t, err)

	_, err = f.reviews.UpdateReview(f.ctx, "bob", rv.ID, transport.ReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	updated, err := f.reviews.UpdateReview(f.ctx, "alice", rv.ID, transport.ReviewRequest{Rating: 2, Comment: "meh"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	got, err := f.repo.GetProduct(f.ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.AverageRating, 0.001)

	assert.ErrorIs(t, f.reviews.DeleteReview(f.ctx, "bob", rv.ID), apperr.ErrUnauthorized)
	require.NoError(t, f.reviews.DeleteReview(f.ctx, "alice", rv.ID))
	assert.ErrorIs(t, f.reviews.DeleteReview(f.ctx, "alice", rv.ID), apperr.ErrNotFound)

	got, err = f.repo.GetProduct(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.ReviewCount)
}

func TestListReviews(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	lamp := f.product(t, "lamp", "10.00", 5)
	pen := f.product(t, "pen", "1.00", 5)

	for _, id := range []uint{lamp.ID, pen.ID} {
		_, err := f.reviews.AddReview(f.ctx, "alice", id, transport.ReviewRequest{Rating: 5})
		require.NoError(t, err)
	}

	byProduct, err := f.reviews.ProductReviews(f.ctx, lamp.ID)
	require.NoError(t, err)
	assert.Len(t, byProduct, 1)

	byUser, err := f.reviews.UserReviews(f.ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	_, err = f.reviews.ProductReviews(f.ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
