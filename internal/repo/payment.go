package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SavePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestPayment returns the newest attempt for the order.
func (r *GormRepo) LatestPayment(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).
		Order("payment_date DESC").Order("id DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CountPayments(ctx context.Context, orderID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

func (r *GormRepo) ListPayments(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var out []models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).
		Order("payment_date ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FailStalePayments marks every PENDING payment started before the cutoff as
// FAILED with the given reason and returns how many rows changed.
func (r *GormRepo) FailStalePayments(ctx context.Context, before time.Time, reason string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ? AND payment_date < ?", models.PaymentPending, before).
		Updates(map[string]any{
			"status":         models.PaymentFailed,
			"failure_reason": reason,
		})
	return res.RowsAffected, res.Error
}
