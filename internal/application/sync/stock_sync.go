package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/inventory"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

// StockSyncer merges stock snapshots. Rows referencing products the catalog
// has never seen are skipped, not failed: stock dumps routinely lead the
// product dump by a few minutes.
type StockSyncer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStockSyncer creates a stock syncer
func NewStockSyncer(db *gorm.DB, logger *zap.Logger) *StockSyncer {
	return &StockSyncer{db: db, logger: logger}
}

// Sync merges a validated stock snapshot
func (s *StockSyncer) Sync(ctx context.Context, snap *ledger.StockSnapshot) *Summary {
	summary := NewSummary("stock")
	for i := range snap.Records {
		summary.Record(s.syncRecord(ctx, &snap.Records[i]))
	}
	return summary
}

// syncRecord upserts one product/warehouse quantity
func (s *StockSyncer) syncRecord(ctx context.Context, rec *ledger.StockRecord) Result {
	var action Action

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := persistence.NewGormProductRepository(tx)
		stock := persistence.NewGormStockRepository(tx)

		product, err := products.FindByExternalCode(ctx, rec.ProductCode)
		if errors.Is(err, shared.ErrNotFound) {
			action = ActionSkipped
			return nil
		}
		if err != nil {
			return err
		}

		// Garbage quantities coerce to zero rather than failing the row
		quantity := ledger.DecimalOrZero(rec.Quantity)

		existing, err := stock.FindForProductWarehouse(ctx, product.ID, rec.Warehouse)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			action = ActionCreated
			return stock.Upsert(ctx, inventory.NewStockLevel(product.ID, rec.Warehouse, quantity))
		case err != nil:
			return err
		default:
			action = ActionUpdated
			existing.SetQuantity(quantity)
			return stock.Upsert(ctx, existing)
		}
	})

	if err != nil {
		s.logger.Warn("stock record failed",
			zap.String("product_code", rec.ProductCode),
			zap.String("warehouse", rec.Warehouse),
			zap.Error(err),
		)
		return Result{Code: rec.ProductCode, Action: ActionFailed, Err: err}
	}
	return Result{Code: rec.ProductCode, Action: action}
}
