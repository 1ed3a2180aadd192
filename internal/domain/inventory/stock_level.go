package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// StockLevel is the available quantity for one product in one warehouse,
// mirrored from the ledger: one row per product/warehouse pair. Quantities
// are never negative; unparseable ledger quantities coerce to zero.
type StockLevel struct {
	shared.BaseEntity
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_warehouse,priority:1"`
	WarehouseCode string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_product_warehouse,priority:2"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a stock row, clamping negative quantities to zero
func NewStockLevel(productID uuid.UUID, warehouseCode string, quantity decimal.Decimal) *StockLevel {
	return &StockLevel{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		WarehouseCode: warehouseCode,
		Quantity:      clampQuantity(quantity),
	}
}

// SetQuantity replaces the quantity, clamping negatives to zero
func (s *StockLevel) SetQuantity(quantity decimal.Decimal) {
	s.Quantity = clampQuantity(quantity)
	s.Touch()
}

func clampQuantity(q decimal.Decimal) decimal.Decimal {
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

// StockRepository defines the interface for stock persistence
type StockRepository interface {
	// FindForProduct lists all stock rows for a product
	FindForProduct(ctx context.Context, productID uuid.UUID) ([]StockLevel, error)

	// FindForProductWarehouse finds the row for one product/warehouse pair
	FindForProductWarehouse(ctx context.Context, productID uuid.UUID, warehouseCode string) (*StockLevel, error)

	// Upsert creates or updates the row for the level's product/warehouse
	Upsert(ctx context.Context, level *StockLevel) error
}
