package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// Cart is a user's open cart. Line prices cached here are display-only:
// checkout always re-reads current prices and ignores them.
type Cart struct {
	shared.BaseEntity
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	ClientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Lines    []CartLine `gorm:"foreignKey:CartID"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// CartLine is one product/quantity entry in a cart
type CartLine struct {
	shared.BaseEntity
	CartID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CachedUnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CartLine) TableName() string {
	return "cart_lines"
}
