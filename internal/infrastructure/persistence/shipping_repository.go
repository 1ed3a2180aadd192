package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/shared"
)

// GormProvinceRepository implements partner.ProvinceRepository using GORM
type GormProvinceRepository struct {
	db *gorm.DB
}

// NewGormProvinceRepository creates a new GormProvinceRepository
func NewGormProvinceRepository(db *gorm.DB) *GormProvinceRepository {
	return &GormProvinceRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormProvinceRepository) WithTx(tx *gorm.DB) *GormProvinceRepository {
	return &GormProvinceRepository{db: tx}
}

// FindByExternalCode finds a province by its ledger code
func (r *GormProvinceRepository) FindByExternalCode(ctx context.Context, code string) (*partner.Province, error) {
	var province partner.Province
	if err := r.db.WithContext(ctx).
		Where("external_code = ?", code).
		First(&province).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &province, nil
}

// Save creates or updates a province
func (r *GormProvinceRepository) Save(ctx context.Context, province *partner.Province) error {
	return r.db.WithContext(ctx).Save(province).Error
}

// GormShippingZoneRepository implements partner.ShippingZoneRepository using GORM
type GormShippingZoneRepository struct {
	db *gorm.DB
}

// NewGormShippingZoneRepository creates a new GormShippingZoneRepository
func NewGormShippingZoneRepository(db *gorm.DB) *GormShippingZoneRepository {
	return &GormShippingZoneRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormShippingZoneRepository) WithTx(tx *gorm.DB) *GormShippingZoneRepository {
	return &GormShippingZoneRepository{db: tx}
}

// FindByExternalCode finds a zone by its ledger code
func (r *GormShippingZoneRepository) FindByExternalCode(ctx context.Context, code string) (*partner.ShippingZone, error) {
	var zone partner.ShippingZone
	if err := r.db.WithContext(ctx).
		Where("external_code = ?", code).
		First(&zone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &zone, nil
}

// FindAll lists every zone
func (r *GormShippingZoneRepository) FindAll(ctx context.Context) ([]partner.ShippingZone, error) {
	var zones []partner.ShippingZone
	err := r.db.WithContext(ctx).Order("name ASC").Find(&zones).Error
	return zones, err
}

// Save creates or updates a zone
func (r *GormShippingZoneRepository) Save(ctx context.Context, zone *partner.ShippingZone) error {
	return r.db.WithContext(ctx).Save(zone).Error
}
