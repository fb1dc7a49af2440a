package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindCartLine returns the line for (user, product) or gorm.ErrRecordNotFound.
func (r *GormRepo) FindCartLine(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, id uint, qty int) error {
	return r.DB.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", qty).Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCartItems(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CartItem{}).Error
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
