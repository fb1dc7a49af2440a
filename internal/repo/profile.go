package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var out []models.Address
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *GormRepo) GetAddress(ctx context.Context, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) SaveAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Save(a).Error
}

func (r *GormRepo) DeleteAddress(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Address{}, id).Error
}

// ClearDefaultAddress unsets the default flag on every address of the user
// except keepID.
func (r *GormRepo) ClearDefaultAddress(ctx context.Context, userID, keepID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keepID, true).
		Update("is_default", false).Error
}

func (r *GormRepo) ListCards(ctx context.Context, userID uint) ([]models.CreditCard, error) {
	var out []models.CreditCard
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *GormRepo) GetCard(ctx context.Context, id uint) (*models.CreditCard, error) {
	var c models.CreditCard
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) SaveCard(ctx context.Context, c *models.CreditCard) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCard(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.CreditCard{}, id).Error
}

func (r *GormRepo) ClearDefaultCard(ctx context.Context, userID, keepID uint) error {
	return r.DB.WithContext(ctx).Model(&models.CreditCard{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keepID, true).
		Update("is_default", false).Error
}
