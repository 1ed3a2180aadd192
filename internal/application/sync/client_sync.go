package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

// ClientSyncer merges client snapshots. Ledger clients reference shipping
// zones by free-text name; the syncer matches them against the zone table's
// normalized names and leaves the client zoneless when nothing matches.
type ClientSyncer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewClientSyncer creates a client syncer
func NewClientSyncer(db *gorm.DB, logger *zap.Logger) *ClientSyncer {
	return &ClientSyncer{db: db, logger: logger}
}

// Sync merges a validated client snapshot
func (s *ClientSyncer) Sync(ctx context.Context, snap *ledger.ClientSnapshot) *Summary {
	summary := NewSummary("clients")

	zoneIndex, err := s.buildZoneIndex(ctx)
	if err != nil {
		s.logger.Error("failed to load shipping zones", zap.Error(err))
		for i := range snap.Records {
			summary.Record(Result{Code: snap.Records[i].Code, Action: ActionFailed, Err: err})
		}
		return summary
	}

	for i := range snap.Records {
		rec := &snap.Records[i]
		res := s.syncRecord(ctx, rec, zoneIndex)
		if res.Action == ActionFailed {
			s.logger.Warn("client record failed",
				zap.String("code", res.Code),
				zap.Error(res.Err),
			)
		}
		summary.Record(res)
	}
	return summary
}

// buildZoneIndex maps normalized zone names to zone IDs for this run
func (s *ClientSyncer) buildZoneIndex(ctx context.Context) (map[string]uuid.UUID, error) {
	zones, err := persistence.NewGormShippingZoneRepository(s.db).FindAll(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]uuid.UUID, len(zones))
	for i := range zones {
		index[zones[i].NormalizedName] = zones[i].ID
	}
	return index, nil
}

// syncRecord upserts one client
func (s *ClientSyncer) syncRecord(ctx context.Context, rec *ledger.ClientRecord, zoneIndex map[string]uuid.UUID) Result {
	var action Action

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clients := persistence.NewGormClientRepository(tx)

		active, err := ledger.ParseFlag(rec.Exportable)
		if err != nil {
			return err
		}
		appliesVAT, err := ledger.ParseFlag(rec.AppliesVAT)
		if err != nil {
			return err
		}

		discount := decimal.Zero
		if rec.Discount != "" {
			if discount, err = ledger.ParseDecimal(rec.Discount); err != nil {
				return fmt.Errorf("discount: %w", err)
			}
		}

		client, err := clients.FindByExternalCode(ctx, rec.Code)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			client = partner.NewClient(rec.Code, rec.Name)
			action = ActionCreated
		case err != nil:
			return err
		default:
			action = ActionUpdated
		}

		client.Name = rec.Name
		client.VATNumber = rec.VATNumber
		client.DiscountPct = discount
		client.AppliesVAT = appliesVAT
		client.PaymentTerms = rec.PaymentTerms
		client.PriceList = rec.PriceList
		client.ShippingZoneID = matchZone(zoneIndex, rec.ZoneName)
		client.SetActive(active)

		return clients.Save(ctx, client)
	})

	if err != nil {
		return Result{Code: rec.Code, Action: ActionFailed, Err: err}
	}
	return Result{Code: rec.Code, Action: action}
}

// matchZone resolves a free-text zone name against the normalized index
func matchZone(zoneIndex map[string]uuid.UUID, name string) *uuid.UUID {
	normalized := shared.NormalizeName(name)
	if normalized == "" {
		return nil
	}
	if id, ok := zoneIndex[normalized]; ok {
		return &id
	}
	return nil
}
