package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// Client is a B2B customer account mirrored from the external ledger.
// Storefront users belong to exactly one client; pricing and ordering are
// always resolved through the owning client.
type Client struct {
	shared.BaseEntity
	ExternalCode   string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null"`
	VATNumber      string          `gorm:"type:varchar(20);index"`
	DiscountPct    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	AppliesVAT     bool            `gorm:"not null;default:true"`
	PaymentTerms   string          `gorm:"type:varchar(100)"`
	PriceList      string          `gorm:"type:varchar(20)"`
	ShippingZoneID *uuid.UUID      `gorm:"type:uuid;index"`
	DeactivatedAt  *time.Time      `gorm:"index"`
}

// TableName returns the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// NewClient creates a client keyed by its ledger code
func NewClient(externalCode, name string) *Client {
	return &Client{
		BaseEntity:   shared.NewBaseEntity(),
		ExternalCode: externalCode,
		Name:         name,
	}
}

// IsActive reports whether the client is not soft-deleted
func (c *Client) IsActive() bool {
	return c.DeactivatedAt == nil
}

// SetActive sets or clears the soft-delete timestamp
func (c *Client) SetActive(active bool) {
	if active {
		c.DeactivatedAt = nil
	} else if c.DeactivatedAt == nil {
		now := time.Now()
		c.DeactivatedAt = &now
	}
	c.Touch()
}

// Address is a delivery address belonging to a client
type Address struct {
	shared.BaseEntity
	ClientID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Line1      string     `gorm:"type:varchar(200);not null"`
	Line2      string     `gorm:"type:varchar(200)"`
	City       string     `gorm:"type:varchar(100)"`
	PostalCode string     `gorm:"type:varchar(10)"`
	ProvinceID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Address) TableName() string {
	return "addresses"
}

// BelongsTo reports whether the address belongs to the given client
func (a *Address) BelongsTo(clientID uuid.UUID) bool {
	return a.ClientID == clientID
}
