package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// Price is a client-specific price row from the ledger: at most one per
// product/price-list/currency combination. Non-positive amounts are never
// stored; "no price" is the absence of a row, not a zero row.
type Price struct {
	shared.BaseEntity
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_price_product_list_currency,priority:1"`
	PriceList string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_price_product_list_currency,priority:2"`
	Currency  string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_price_product_list_currency,priority:3"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (Price) TableName() string {
	return "prices"
}

// NewPrice creates a price row for a product
func NewPrice(productID uuid.UUID, priceList, currency string, amount decimal.Decimal) *Price {
	return &Price{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		PriceList:  priceList,
		Currency:   currency,
		Amount:     amount,
	}
}
