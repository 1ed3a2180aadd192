// Package catalog serves the client-scoped read side of the product
// catalog. Prices shown here go through the same staged breakdown as cart
// and order totals, so what a client sees is what checkout charges.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/pricing"
	"github.com/b2bstore/backend/internal/domain/shared"
)

// PriceView is the staged price breakdown rendered for one client
type PriceView struct {
	List       decimal.Decimal `json:"list"`
	Discounted decimal.Decimal `json:"discounted"`
	Final      decimal.Decimal `json:"final"`
	VATApplied bool            `json:"vat_applied"`
}

// ProductView is one catalog entry as seen by a client
type ProductView struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Category      string    `json:"category,omitempty"`
	ImageFilename string    `json:"image_filename,omitempty"`
	Price         PriceView `json:"price"`
}

// DisplayService renders the catalog for a client
type DisplayService struct {
	products   catalog.ProductRepository
	prices     catalog.PriceRepository
	brands     catalog.BrandRepository
	categories catalog.CategoryRepository
	clients    partner.ClientRepository
	markupPct  decimal.Decimal
}

// NewDisplayService creates a display service. markupPct is the storefront
// resale margin applied at the markup stage.
func NewDisplayService(
	products catalog.ProductRepository,
	prices catalog.PriceRepository,
	brands catalog.BrandRepository,
	categories catalog.CategoryRepository,
	clients partner.ClientRepository,
	markupPct decimal.Decimal,
) *DisplayService {
	return &DisplayService{
		products:   products,
		prices:     prices,
		brands:     brands,
		categories: categories,
		clients:    clients,
		markupPct:  markupPct,
	}
}

// ListProducts returns all active products priced for the given client
func (s *DisplayService) ListProducts(ctx context.Context, clientID uuid.UUID) ([]ProductView, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.IsActive() {
		return nil, shared.ErrClientInactive
	}

	products, err := s.products.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	brandNames := make(map[uuid.UUID]string)
	categoryNames := make(map[uuid.UUID]string)
	views := make([]ProductView, 0, len(products))
	for i := range products {
		product := &products[i]

		unitPrice, err := s.UnitPrice(ctx, product, client)
		if err != nil {
			return nil, err
		}
		breakdown := pricing.ComputeBreakdown(unitPrice, client.DiscountPct, s.markupPct, client.AppliesVAT)

		views = append(views, ProductView{
			ID:            product.ID,
			Code:          product.ExternalCode,
			Name:          product.Name,
			Description:   product.Description,
			Brand:         s.brandName(ctx, brandNames, product.BrandID),
			Category:      s.categoryName(ctx, categoryNames, product.CategoryID),
			ImageFilename: product.ImageFilename,
			Price: PriceView{
				List:       breakdown.List,
				Discounted: breakdown.Discounted,
				Final:      breakdown.Final,
				VATApplied: breakdown.VATApplied,
			},
		})
	}
	return views, nil
}

// UnitPrice resolves the client's unit price for a product: the row from
// the client's price list when one exists, the product list price otherwise
func (s *DisplayService) UnitPrice(ctx context.Context, product *catalog.Product, client *partner.Client) (decimal.Decimal, error) {
	if client.PriceList != "" {
		row, err := s.prices.FindForProductList(ctx, product.ID, client.PriceList, DefaultCurrency)
		if err == nil {
			return row.Amount, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, err
		}
	}
	return product.ListPrice, nil
}

// DefaultCurrency is the currency price-list rows are resolved in
const DefaultCurrency = "EUR"

func (s *DisplayService) brandName(ctx context.Context, cache map[uuid.UUID]string, brandID *uuid.UUID) string {
	if brandID == nil {
		return ""
	}
	if name, ok := cache[*brandID]; ok {
		return name
	}
	brand, err := s.brands.FindByID(ctx, *brandID)
	if err != nil {
		cache[*brandID] = ""
		return ""
	}
	cache[*brandID] = brand.Name
	return brand.Name
}

func (s *DisplayService) categoryName(ctx context.Context, cache map[uuid.UUID]string, categoryID *uuid.UUID) string {
	if categoryID == nil {
		return ""
	}
	if name, ok := cache[*categoryID]; ok {
		return name
	}
	category, err := s.categories.FindByID(ctx, *categoryID)
	if err != nil {
		cache[*categoryID] = ""
		return ""
	}
	cache[*categoryID] = category.Name
	return category.Name
}
