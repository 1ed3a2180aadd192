package trade

import (
	"time"

	"github.com/google/uuid"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// DispatchIntent is the transactional-outbox row recording that an order
// must be submitted to the external ledger. It is written in the same
// transaction as the order itself, so a committed order can never silently
// lack a dispatch attempt; the relay publishes intents to the job queue and
// marks them published.
type DispatchIntent struct {
	shared.BaseEntity
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	PublishedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DispatchIntent) TableName() string {
	return "dispatch_intents"
}

// NewDispatchIntent creates an unpublished intent for an order
func NewDispatchIntent(orderID uuid.UUID) *DispatchIntent {
	return &DispatchIntent{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
	}
}

// MarkPublished records that the relay enqueued the dispatch job
func (i *DispatchIntent) MarkPublished() {
	now := time.Now()
	i.PublishedAt = &now
	i.Touch()
}
