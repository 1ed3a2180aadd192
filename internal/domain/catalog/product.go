package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// Product is a catalog product mirrored from the external ledger. The ledger
// owns the master data; the external code is the stable natural key used for
// idempotent reconciliation, distinct from the local UUID identity.
type Product struct {
	shared.BaseEntity
	ExternalCode  string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	BrandID       *uuid.UUID      `gorm:"type:uuid;index"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index"`
	ListPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ImageFilename string          `gorm:"type:varchar(255)"`
	DeactivatedAt *time.Time      `gorm:"index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product keyed by its ledger code
func NewProduct(externalCode, name string) *Product {
	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		ExternalCode: externalCode,
		Name:         name,
	}
}

// IsActive reports whether the product is not soft-deleted
func (p *Product) IsActive() bool {
	return p.DeactivatedAt == nil
}

// SetActive sets or clears the soft-delete timestamp from the ledger's
// exportable flag. Reactivating clears the timestamp entirely.
func (p *Product) SetActive(active bool) {
	if active {
		p.DeactivatedAt = nil
	} else if p.DeactivatedAt == nil {
		now := time.Now()
		p.DeactivatedAt = &now
	}
	p.Touch()
}
