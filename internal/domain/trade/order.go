package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// OrderStatus represents the dispatch lifecycle of an order
type OrderStatus string

const (
	// OrderStatusProcessing is the initial state set inside the creation
	// transaction; the order is confirmed locally but not yet in the ledger.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusSynced is terminal: the ledger accepted the order.
	OrderStatusSynced OrderStatus = "synced"
	// OrderStatusDispatchFailed marks an order whose dispatch job exhausted
	// its retries. Operators can requeue it.
	OrderStatusDispatchFailed OrderStatus = "dispatch_failed"
)

// FulfillmentMethod is how the order reaches the client
type FulfillmentMethod string

const (
	FulfillmentDelivery FulfillmentMethod = "delivery"
	FulfillmentPickup   FulfillmentMethod = "pickup"
)

// RequiresAddress reports whether the method needs a delivery address
func (m FulfillmentMethod) RequiresAddress() bool {
	return m == FulfillmentDelivery
}

// Order is the aggregate root for a locally placed order. Creation owns the
// initial processing state; only the dispatch worker moves it to synced.
type Order struct {
	shared.BaseEntity
	Number            string            `gorm:"type:varchar(30);not null;uniqueIndex"`
	ClientID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status            OrderStatus       `gorm:"type:varchar(20);not null;default:'processing';index"`
	FulfillmentMethod FulfillmentMethod `gorm:"type:varchar(20);not null"`
	AddressID         *uuid.UUID        `gorm:"type:uuid"`
	Subtotal          decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	DiscountPct       decimal.Decimal   `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount         decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Total             decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Note              string            `gorm:"type:text"`
	SyncedAt          *time.Time
	Lines             []OrderLine `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in the processing state
func NewOrder(number string, clientID, userID uuid.UUID, method FulfillmentMethod) *Order {
	return &Order{
		BaseEntity:        shared.NewBaseEntity(),
		Number:            number,
		ClientID:          clientID,
		UserID:            userID,
		Status:            OrderStatusProcessing,
		FulfillmentMethod: method,
	}
}

// IsSynced reports whether the ledger already accepted this order
func (o *Order) IsSynced() bool {
	return o.Status == OrderStatusSynced
}

// MarkSynced transitions the order to its terminal synced state
func (o *Order) MarkSynced() error {
	if o.Status == OrderStatusSynced {
		return shared.ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusSynced
	o.SyncedAt = &now
	o.Touch()
	return nil
}

// MarkDispatchFailed records that the dispatch job dead-lettered
func (o *Order) MarkDispatchFailed() error {
	if o.Status != OrderStatusProcessing {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusDispatchFailed
	o.Touch()
	return nil
}

// ResetForDispatch returns a dispatch-failed order to processing so its job
// can be requeued
func (o *Order) ResetForDispatch() error {
	if o.Status != OrderStatusDispatchFailed {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusProcessing
	o.Touch()
	return nil
}

// OrderLine is one line of an order. Product fields are a denormalized
// snapshot taken at purchase time, so the order renders faithfully even
// after the catalog changes.
type OrderLine struct {
	shared.BaseEntity
	OrderID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null"`
	ProductExternalCode string          `gorm:"type:varchar(50);not null"`
	ProductName         string          `gorm:"type:varchar(200);not null"`
	ProductBrand        string          `gorm:"type:varchar(100)"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderNumber builds an order number from a timestamp and short id suffix
func NewOrderNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), id.String()[:8])
}
