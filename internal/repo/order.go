package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// CreateOrder inserts the order together with its items.
func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", orderItemsByID).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderForUpdate loads the order and holds its row lock until the
// surrounding transaction ends. Only meaningful inside Tx.
func (r *GormRepo) GetOrderForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", orderItemsByID).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", orderItemsByID).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", orderItemsByID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// SetOrderStatus moves the order from one status to another. It returns
// ErrStatusConflict when the stored status is no longer from.
func (r *GormRepo) SetOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func orderItemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
