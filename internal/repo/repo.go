package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// ErrStockConflict is returned by AdjustStock when the delta would take the
// stock below zero.
var ErrStockConflict = errors.New("stock would become negative")

// ErrStatusConflict is returned by SetOrderStatus when another transaction
// changed the order status first.
var ErrStatusConflict = errors.New("order status changed concurrently")

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

// Tx runs fn with a repo bound to a single transaction. fn must only use the
// repo it is given.
func (r *GormRepo) Tx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
