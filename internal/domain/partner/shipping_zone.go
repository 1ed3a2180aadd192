package partner

import (
	"time"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// Province is a geographic subdivision mirrored from the ledger
type Province struct {
	shared.BaseEntity
	ExternalCode  string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string     `gorm:"type:varchar(100);not null"`
	DeactivatedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (Province) TableName() string {
	return "provinces"
}

// NewProvince creates a province keyed by its ledger code
func NewProvince(externalCode, name string) *Province {
	return &Province{
		BaseEntity:   shared.NewBaseEntity(),
		ExternalCode: externalCode,
		Name:         name,
	}
}

// SetActive sets or clears the soft-delete timestamp
func (p *Province) SetActive(active bool) {
	if active {
		p.DeactivatedAt = nil
	} else if p.DeactivatedAt == nil {
		now := time.Now()
		p.DeactivatedAt = &now
	}
	p.Touch()
}

// ShippingZone groups clients for freight purposes. Client records reference
// zones by free-text name, matched against NormalizedName during
// reconciliation; an unmatched name leaves the client zoneless.
type ShippingZone struct {
	shared.BaseEntity
	ExternalCode   string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string     `gorm:"type:varchar(100);not null"`
	NormalizedName string     `gorm:"type:varchar(100);not null;index"`
	DeactivatedAt  *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (ShippingZone) TableName() string {
	return "shipping_zones"
}

// NewShippingZone creates a zone, deriving its normalized match key
func NewShippingZone(externalCode, name string) *ShippingZone {
	return &ShippingZone{
		BaseEntity:     shared.NewBaseEntity(),
		ExternalCode:   externalCode,
		Name:           name,
		NormalizedName: shared.NormalizeName(name),
	}
}

// Rename updates the zone name and its match key
func (z *ShippingZone) Rename(name string) {
	z.Name = name
	z.NormalizedName = shared.NormalizeName(name)
	z.Touch()
}

// SetActive sets or clears the soft-delete timestamp
func (z *ShippingZone) SetActive(active bool) {
	if active {
		z.DeactivatedAt = nil
	} else if z.DeactivatedAt == nil {
		now := time.Now()
		z.DeactivatedAt = &now
	}
	z.Touch()
}
