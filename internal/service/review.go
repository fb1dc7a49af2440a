package service

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

const maxCommentLen = 1000

type ReviewService struct {
	Repo  *repo.GormRepo
	Cache ProductCache
}

func NewReviewService(r *repo.GormRepo, cache ProductCache) *ReviewService {
	return &ReviewService{Repo: r, Cache: cacheOrNop(cache)}
}

func validateReview(req transport.ReviewRequest) error {
	if req.Rating < 1 || req.Rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(req.Comment) > maxCommentLen {
		return apperr.Validation("comment must be at most %d characters", maxCommentLen)
	}
	return nil
}

func (s *ReviewService) AddReview(ctx context.Context, username string, productID uint, req transport.ReviewRequest) (*models.Review, error) {
	if err := validateReview(req); err != nil {
		return nil, err
	}

	var rv *models.Review
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		user, err := userByName(ctx, tx, username)
		if err != nil {
			return err
		}
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return lookupErr(err, "product", productID)
		}
		exists, err := tx.ReviewExists(ctx, user.ID, productID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return apperr.BusinessRule("user has already reviewed this product")
		}

		rv = &models.Review{
			UserID:    user.ID,
			ProductID: productID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := tx.CreateReview(ctx, rv); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return refreshRating(ctx, tx, productID)
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, productID)
	return rv, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, username string, reviewID uint, req transport.ReviewRequest) (*models.Review, error) {
	if err := validateReview(req); err != nil {
		return nil, err
	}

	var rv *models.Review
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		rv, err = ownedReview(ctx, tx, username, reviewID)
		if err != nil {
			return err
		}
		rv.Rating = req.Rating
		rv.Comment = req.Comment
		if err := tx.SaveReview(ctx, rv); err != nil {
			return fmt.Errorf("save review %d: %w", reviewID, err)
		}
		return refreshRating(ctx, tx, rv.ProductID)
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, rv.ProductID)
	return rv, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, username string, reviewID uint) error {
	var productID uint
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		rv, err := ownedReview(ctx, tx, username, reviewID)
		if err != nil {
			return err
		}
		productID = rv.ProductID
		if err := tx.DeleteReview(ctx, rv.ID); err != nil {
			return fmt.Errorf("delete review %d: %w", reviewID, err)
		}
		return refreshRating(ctx, tx, productID)
	})
	if err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, productID)
	return nil
}

func (s *ReviewService) ProductReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, lookupErr(err, "product", productID)
	}
	out, err := s.Repo.ListProductReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for product %d: %w", productID, err)
	}
	return out, nil
}

func (s *ReviewService) UserReviews(ctx context.Context, username string) ([]models.Review, error) {
	user, err := userByName(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}
	out, err := s.Repo.ListUserReviews(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for %s: %w", username, err)
	}
	return out, nil
}

func ownedReview(ctx context.Context, r *repo.GormRepo, username string, id uint) (*models.Review, error) {
	rv, err := r.GetReview(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "review", id)
	}
	user, err := userByName(ctx, r, username)
	if err != nil {
		return nil, err
	}
	if rv.UserID != user.ID {
		return nil, apperr.Unauthorized("unauthorized access to review")
	}
	return rv, nil
}

// refreshRating recomputes the product's average rating and review count.
func refreshRating(ctx context.Context, tx *repo.GormRepo, productID uint) error {
	st, err := tx.ProductRatingStats(ctx, productID)
	if err != nil {
		return fmt.Errorf("rating stats for product %d: %w", productID, err)
	}
	avg := math.Round(st.Avg*100) / 100
	if err := tx.UpdateProductRating(ctx, productID, avg, st.Count); err != nil {
		return fmt.Errorf("update rating for product %d: %w", productID, err)
	}
	return nil
}
