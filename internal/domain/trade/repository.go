package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its lines by local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// Save creates or updates an order and its lines
	Save(ctx context.Context, order *Order) error

	// UpdateStatus persists only the order's status fields
	UpdateStatus(ctx context.Context, order *Order) error
}

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindForUser finds a user's cart with its lines
	FindForUser(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// Save creates or updates a cart
	Save(ctx context.Context, cart *Cart) error

	// Clear removes all lines from a cart
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// DispatchIntentRepository defines the interface for outbox persistence
type DispatchIntentRepository interface {
	// Save persists an intent
	Save(ctx context.Context, intent *DispatchIntent) error

	// FindUnpublished lists intents not yet published, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]DispatchIntent, error)

	// Update persists changes to an intent
	Update(ctx context.Context, intent *DispatchIntent) error
}
