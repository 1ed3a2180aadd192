package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByExternalCode finds a product by its ledger code
	FindByExternalCode(ctx context.Context, code string) (*Product, error)

	// FindActive lists all products that are not soft-deleted
	FindActive(ctx context.Context) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Count counts all products
	Count(ctx context.Context) (int64, error)
}

// BrandRepository resolves brands by normalized name
type BrandRepository interface {
	// FindByID finds a brand by its identifier
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)

	// FindByNormalizedName finds a brand by its normalized lookup key
	FindByNormalizedName(ctx context.Context, normalized string) (*Brand, error)

	// Save creates or updates a brand
	Save(ctx context.Context, brand *Brand) error
}

// CategoryRepository resolves categories by normalized name
type CategoryRepository interface {
	// FindByID finds a category by its identifier
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByNormalizedName finds a category by its normalized lookup key
	FindByNormalizedName(ctx context.Context, normalized string) (*Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}

// PriceRepository manages client-specific price rows
type PriceRepository interface {
	// FindForProduct lists all price rows for a product
	FindForProduct(ctx context.Context, productID uuid.UUID) ([]Price, error)

	// FindForProductList finds the price row for one product/list/currency
	FindForProductList(ctx context.Context, productID uuid.UUID, priceList, currency string) (*Price, error)

	// Upsert creates or updates the row for the price's product/list/currency
	Upsert(ctx context.Context, price *Price) error

	// DeleteForProductList removes the row for one product/list/currency
	DeleteForProductList(ctx context.Context, productID uuid.UUID, priceList, currency string) error
}
