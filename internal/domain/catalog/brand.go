package catalog

import (
	"strings"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// PlaceholderName is the canonical name assigned to a brand or category when
// the ledger record carries a blank reference. Lookups for blank names all
// resolve to this single placeholder entity.
const PlaceholderName = "Sin especificar"

// Brand is a dependent entity resolved by normalized name during
// reconciliation and created on first sight.
type Brand struct {
	shared.BaseEntity
	Name           string `gorm:"type:varchar(100);not null"`
	NormalizedName string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (Brand) TableName() string {
	return "brands"
}

// NewBrand creates a brand, deriving its normalized lookup key. Blank names
// become the canonical placeholder.
func NewBrand(name string) *Brand {
	name = canonicalName(name)
	return &Brand{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		NormalizedName: shared.NormalizeName(name),
	}
}

// Category is a dependent entity with the same resolution rules as Brand.
type Category struct {
	shared.BaseEntity
	Name           string `gorm:"type:varchar(100);not null"`
	NormalizedName string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a category, deriving its normalized lookup key
func NewCategory(name string) *Category {
	name = canonicalName(name)
	return &Category{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		NormalizedName: shared.NormalizeName(name),
	}
}

func canonicalName(name string) string {
	name = strings.TrimSpace(name)
	if shared.NormalizeName(name) == "" {
		return PlaceholderName
	}
	return name
}
