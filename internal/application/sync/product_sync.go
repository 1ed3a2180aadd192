package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

// ProductSyncer merges product snapshots into the local catalog. Each record
// runs in its own transaction, so one bad row never rolls back its
// neighbors; the failure is counted and the merge moves on.
type ProductSyncer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProductSyncer creates a product syncer
func NewProductSyncer(db *gorm.DB, logger *zap.Logger) *ProductSyncer {
	return &ProductSyncer{db: db, logger: logger}
}

// Sync merges a validated product snapshot and reduces the outcome to a
// summary
func (s *ProductSyncer) Sync(ctx context.Context, snap *ledger.ProductSnapshot) *Summary {
	summary := NewSummary("products")
	for i := range snap.Records {
		res := s.syncRecord(ctx, &snap.Records[i])
		if res.Action == ActionFailed {
			s.logger.Warn("product record failed",
				zap.String("code", res.Code),
				zap.Error(res.Err),
			)
		}
		summary.Record(res)
	}
	return summary
}

// syncRecord upserts one product with its brand, category and price rows
func (s *ProductSyncer) syncRecord(ctx context.Context, rec *ledger.ProductRecord) Result {
	var action Action

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := persistence.NewGormProductRepository(tx)
		prices := persistence.NewGormPriceRepository(tx)

		active, err := ledger.ParseFlag(rec.Exportable)
		if err != nil {
			return err
		}

		listPrice := decimal.Zero
		if rec.ListPrice != "" {
			if listPrice, err = ledger.ParseDecimal(rec.ListPrice); err != nil {
				return fmt.Errorf("list price: %w", err)
			}
		}

		brandID, err := resolveBrand(ctx, tx, rec.Brand)
		if err != nil {
			return fmt.Errorf("brand: %w", err)
		}
		categoryID, err := resolveCategory(ctx, tx, rec.Category)
		if err != nil {
			return fmt.Errorf("category: %w", err)
		}

		product, err := products.FindByExternalCode(ctx, rec.Code)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			product = catalog.NewProduct(rec.Code, rec.Name)
			action = ActionCreated
		case err != nil:
			return err
		default:
			action = ActionUpdated
		}

		product.Name = rec.Name
		product.Description = rec.Description
		product.BrandID = brandID
		product.CategoryID = categoryID
		product.ListPrice = listPrice
		product.ImageFilename = ledger.TrailingFilename(rec.ImagePath)
		product.SetActive(active)

		if err := products.Save(ctx, product); err != nil {
			return err
		}

		return mergePrices(ctx, prices, product.ID, rec.Prices)
	})

	if err != nil {
		return Result{Code: rec.Code, Action: ActionFailed, Err: err}
	}
	return Result{Code: rec.Code, Action: action}
}

// mergePrices upserts nested price rows. Non-positive amounts are never
// stored; an existing row for that list/currency is removed instead.
func mergePrices(ctx context.Context, prices *persistence.GormPriceRepository, productID uuid.UUID, records []ledger.PriceRecord) error {
	for i := range records {
		rec := &records[i]
		amount, err := ledger.ParseDecimal(rec.Amount)
		if err != nil {
			return fmt.Errorf("price %s/%s: %w", rec.PriceList, rec.Currency, err)
		}

		if !amount.IsPositive() {
			if err := prices.DeleteForProductList(ctx, productID, rec.PriceList, rec.Currency); err != nil {
				return err
			}
			continue
		}

		if err := prices.Upsert(ctx, catalog.NewPrice(productID, rec.PriceList, rec.Currency, amount)); err != nil {
			return err
		}
	}
	return nil
}

// resolveBrand finds or creates the brand for a raw name
func resolveBrand(ctx context.Context, tx *gorm.DB, name string) (*uuid.UUID, error) {
	brands := persistence.NewGormBrandRepository(tx)
	candidate := catalog.NewBrand(name)

	existing, err := brands.FindByNormalizedName(ctx, candidate.NormalizedName)
	if errors.Is(err, shared.ErrNotFound) {
		if err := brands.Save(ctx, candidate); err != nil {
			return nil, err
		}
		return &candidate.ID, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing.ID, nil
}

// resolveCategory finds or creates the category for a raw name
func resolveCategory(ctx context.Context, tx *gorm.DB, name string) (*uuid.UUID, error) {
	categories := persistence.NewGormCategoryRepository(tx)
	candidate := catalog.NewCategory(name)

	existing, err := categories.FindByNormalizedName(ctx, candidate.NormalizedName)
	if errors.Is(err, shared.ErrNotFound) {
		if err := categories.Save(ctx, candidate); err != nil {
			return nil, err
		}
		return &candidate.ID, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing.ID, nil
}
