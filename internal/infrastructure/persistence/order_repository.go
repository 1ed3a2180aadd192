package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/domain/trade"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: tx}
}

// FindByID finds an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Save creates or updates an order and its lines
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(order).Error
}

// UpdateStatus persists only the order's status fields. Dispatch updates
// go through here so concurrent edits to other columns are not clobbered.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).
		Model(&trade.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":     order.Status,
			"synced_at":  order.SyncedAt,
			"updated_at": time.Now(),
		}).Error
}

// GormCartRepository implements trade.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: tx}
}

// FindForUser finds a user's cart with its lines
func (r *GormCartRepository) FindForUser(ctx context.Context, userID uuid.UUID) (*trade.Cart, error) {
	var cart trade.Cart
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// Save creates or updates a cart
func (r *GormCartRepository) Save(ctx context.Context, cart *trade.Cart) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(cart).Error
}

// Clear removes all lines from a cart
func (r *GormCartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&trade.CartLine{}).Error
}

// GormDispatchIntentRepository implements trade.DispatchIntentRepository using GORM
type GormDispatchIntentRepository struct {
	db *gorm.DB
}

// NewGormDispatchIntentRepository creates a new GormDispatchIntentRepository
func NewGormDispatchIntentRepository(db *gorm.DB) *GormDispatchIntentRepository {
	return &GormDispatchIntentRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormDispatchIntentRepository) WithTx(tx *gorm.DB) *GormDispatchIntentRepository {
	return &GormDispatchIntentRepository{db: tx}
}

// Save persists an intent
func (r *GormDispatchIntentRepository) Save(ctx context.Context, intent *trade.DispatchIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

// FindUnpublished lists intents not yet published, oldest first
func (r *GormDispatchIntentRepository) FindUnpublished(ctx context.Context, limit int) ([]trade.DispatchIntent, error) {
	var intents []trade.DispatchIntent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&intents).Error
	return intents, err
}

// Update persists changes to an intent
func (r *GormDispatchIntentRepository) Update(ctx context.Context, intent *trade.DispatchIntent) error {
	return r.db.WithContext(ctx).Save(intent).Error
}
