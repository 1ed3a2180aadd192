package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/b2bstore/backend/internal/domain/inventory"
	"github.com/b2bstore/backend/internal/domain/shared"
)

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormStockRepository) WithTx(tx *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: tx}
}

// FindForProduct lists all stock rows for a product
func (r *GormStockRepository) FindForProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockLevel, error) {
	var levels []inventory.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("warehouse_code ASC").
		Find(&levels).Error
	return levels, err
}

// FindForProductWarehouse finds the row for one product/warehouse pair
func (r *GormStockRepository) FindForProductWarehouse(ctx context.Context, productID uuid.UUID, warehouseCode string) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_code = ?", productID, warehouseCode).
		First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// Upsert creates or updates the row for the level's product/warehouse
func (r *GormStockRepository) Upsert(ctx context.Context, level *inventory.StockLevel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "product_id"},
				{Name: "warehouse_code"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(level).Error
}
