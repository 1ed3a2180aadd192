package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/shared"
)

// GormPriceRepository implements catalog.PriceRepository using GORM
type GormPriceRepository struct {
	db *gorm.DB
}

// NewGormPriceRepository creates a new GormPriceRepository
func NewGormPriceRepository(db *gorm.DB) *GormPriceRepository {
	return &GormPriceRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormPriceRepository) WithTx(tx *gorm.DB) *GormPriceRepository {
	return &GormPriceRepository{db: tx}
}

// FindForProduct lists all price rows for a product
func (r *GormPriceRepository) FindForProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Price, error) {
	var prices []catalog.Price
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("price_list ASC, currency ASC").
		Find(&prices).Error
	return prices, err
}

// FindForProductList finds the price row for one product/list/currency
func (r *GormPriceRepository) FindForProductList(ctx context.Context, productID uuid.UUID, priceList, currency string) (*catalog.Price, error) {
	var price catalog.Price
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND price_list = ? AND currency = ?", productID, priceList, currency).
		First(&price).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &price, nil
}

// Upsert creates or updates the row for the price's product/list/currency
func (r *GormPriceRepository) Upsert(ctx context.Context, price *catalog.Price) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "product_id"},
				{Name: "price_list"},
				{Name: "currency"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(price).Error
}

// DeleteForProductList removes the row for one product/list/currency
func (r *GormPriceRepository) DeleteForProductList(ctx context.Context, productID uuid.UUID, priceList, currency string) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND price_list = ? AND currency = ?", productID, priceList, currency).
		Delete(&catalog.Price{}).Error
}
