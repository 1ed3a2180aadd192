package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

// ProvinceSyncer merges province snapshots
type ProvinceSyncer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProvinceSyncer creates a province syncer
func NewProvinceSyncer(db *gorm.DB, logger *zap.Logger) *ProvinceSyncer {
	return &ProvinceSyncer{db: db, logger: logger}
}

// Sync merges a validated province snapshot
func (s *ProvinceSyncer) Sync(ctx context.Context, snap *ledger.ProvinceSnapshot) *Summary {
	summary := NewSummary("provinces")
	for i := range snap.Records {
		rec := &snap.Records[i]
		res := s.syncRecord(ctx, rec)
		if res.Action == ActionFailed {
			s.logger.Warn("province record failed", zap.String("code", res.Code), zap.Error(res.Err))
		}
		summary.Record(res)
	}
	return summary
}

func (s *ProvinceSyncer) syncRecord(ctx context.Context, rec *ledger.ProvinceRecord) Result {
	var action Action

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		provinces := persistence.NewGormProvinceRepository(tx)

		active, err := ledger.ParseFlag(rec.Exportable)
		if err != nil {
			return err
		}

		province, err := provinces.FindByExternalCode(ctx, rec.Code)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			province = partner.NewProvince(rec.Code, rec.Name)
			action = ActionCreated
		case err != nil:
			return err
		default:
			action = ActionUpdated
			province.Name = rec.Name
		}

		province.SetActive(active)
		return provinces.Save(ctx, province)
	})

	if err != nil {
		return Result{Code: rec.Code, Action: ActionFailed, Err: err}
	}
	return Result{Code: rec.Code, Action: action}
}

// ZoneSyncer merges shipping-zone snapshots. Zones must merge before
// clients so the zone name index sees this run's data.
type ZoneSyncer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewZoneSyncer creates a shipping-zone syncer
func NewZoneSyncer(db *gorm.DB, logger *zap.Logger) *ZoneSyncer {
	return &ZoneSyncer{db: db, logger: logger}
}

// Sync merges a validated shipping-zone snapshot
func (s *ZoneSyncer) Sync(ctx context.Context, snap *ledger.ZoneSnapshot) *Summary {
	summary := NewSummary("zones")
	for i := range snap.Records {
		rec := &snap.Records[i]
		res := s.syncRecord(ctx, rec)
		if res.Action == ActionFailed {
			s.logger.Warn("zone record failed", zap.String("code", res.Code), zap.Error(res.Err))
		}
		summary.Record(res)
	}
	return summary
}

func (s *ZoneSyncer) syncRecord(ctx context.Context, rec *ledger.ZoneRecord) Result {
	var action Action

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		zones := persistence.NewGormShippingZoneRepository(tx)

		active, err := ledger.ParseFlag(rec.Exportable)
		if err != nil {
			return err
		}

		zone, err := zones.FindByExternalCode(ctx, rec.Code)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			zone = partner.NewShippingZone(rec.Code, rec.Name)
			action = ActionCreated
		case err != nil:
			return err
		default:
			action = ActionUpdated
			zone.Rename(rec.Name)
		}

		zone.SetActive(active)
		return zones.Save(ctx, zone)
	})

	if err != nil {
		return Result{Code: rec.Code, Action: ActionFailed, Err: err}
	}
	return Result{Code: rec.Code, Action: action}
}
