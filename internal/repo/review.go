package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *GormRepo) SaveReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Save(rv).Error
}

func (r *GormRepo) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var rv models.Review
	if err := r.DB.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *GormRepo) ReviewExists(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) DeleteReview(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Review{}, id).Error
}

func (r *GormRepo) ListProductReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	var out []models.Review
	err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) ListUserReviews(ctx context.Context, userID uint) ([]models.Review, error) {
	var out []models.Review
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

type RatingStats struct {
	Avg   float64
	Count int
}

func (r *GormRepo) ProductRatingStats(ctx context.Context, productID uint) (RatingStats, error) {
	var st RatingStats
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&st).Error
	return st, err
}
