package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductFilter struct {
	Category string
	SortBy   string // "price" or "name", anything else sorts by id
	Desc     bool
	Offset   int
	Limit    int
}

var productSortColumns = map[string]string{
	"price": "price",
	"name":  "name",
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	col, ok := productSortColumns[f.SortBy]
	if !ok {
		col = "id"
	}
	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}

	var items []models.Product
	if err := q.Order(col + dir).Order("id ASC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SearchProducts is the SQL fallback used when no search index is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", like, like, like)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustStock adds delta to the product stock in one conditional statement.
// It returns gorm.ErrRecordNotFound for an unknown product and
// ErrStockConflict when the result would be negative.
func (r *GormRepo) AdjustStock(ctx context.Context, productID uint, delta int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrStockConflict
}

func (r *GormRepo) UpdateProductRating(ctx context.Context, productID uint, avg float64, count int) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]any{"average_rating": avg, "review_count": count}).Error
}
