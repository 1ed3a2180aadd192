package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/pricing"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/domain/trade"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

// DefaultCurrency is the currency every price-list row is resolved in
const DefaultCurrency = "EUR"

// CheckoutInput carries the user's confirmation request
type CheckoutInput struct {
	UserID            uuid.UUID
	FulfillmentMethod trade.FulfillmentMethod
	AddressID         *uuid.UUID
	Note              string
}

// CheckoutService turns a cart into a confirmed order. Everything happens
// in one transaction: cart load, price re-resolution, totals, the order
// row, its dispatch intent and the cart wipe commit or roll back together.
type CheckoutService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(db *gorm.DB, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{db: db, logger: logger}
}

// Checkout confirms the user's cart as an order
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*trade.Order, error) {
	if input.FulfillmentMethod != trade.FulfillmentDelivery && input.FulfillmentMethod != trade.FulfillmentPickup {
		return nil, fmt.Errorf("%w: unknown fulfillment method %q", shared.ErrInvalidInput, input.FulfillmentMethod)
	}
	if input.FulfillmentMethod.RequiresAddress() && input.AddressID == nil {
		return nil, fmt.Errorf("%w: delivery requires an address", shared.ErrInvalidInput)
	}

	var order *trade.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := persistence.NewGormCartRepository(tx)
		clients := persistence.NewGormClientRepository(tx)
		addresses := persistence.NewGormAddressRepository(tx)
		orders := persistence.NewGormOrderRepository(tx)
		intents := persistence.NewGormDispatchIntentRepository(tx)

		cart, err := carts.FindForUser(ctx, input.UserID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return shared.ErrEmptyCart
		}

		client, err := clients.FindByID(ctx, cart.ClientID)
		if err != nil {
			return err
		}
		if !client.IsActive() {
			return shared.ErrClientInactive
		}

		var addressID *uuid.UUID
		if input.FulfillmentMethod.RequiresAddress() {
			address, err := addresses.FindByID(ctx, *input.AddressID)
			if err != nil {
				return err
			}
			if !address.BelongsTo(client.ID) {
				return shared.ErrForeignAddress
			}
			addressID = &address.ID
		}

		lines, subtotal, err := s.buildLines(ctx, tx, cart, client)
		if err != nil {
			return err
		}

		totals := pricing.ComputeOrderTotals(subtotal, client.DiscountPct)

		now := time.Now()
		orderID := uuid.New()
		order = trade.NewOrder(trade.NewOrderNumber(now, orderID), client.ID, input.UserID, input.FulfillmentMethod)
		order.ID = orderID
		order.AddressID = addressID
		order.Subtotal = totals.Subtotal
		order.DiscountPct = client.DiscountPct
		order.DiscountAmount = totals.DiscountAmount
		order.TaxAmount = totals.TaxAmount
		order.Total = totals.Total
		order.Note = input.Note
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		order.Lines = lines

		if err := orders.Save(ctx, order); err != nil {
			return err
		}
		if err := intents.Save(ctx, trade.NewDispatchIntent(order.ID)); err != nil {
			return err
		}
		return carts.Clear(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order confirmed",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

// buildLines snapshots each cart line with freshly resolved prices. Cached
// cart prices are ignored on purpose: only current catalog prices bind.
func (s *CheckoutService) buildLines(ctx context.Context, tx *gorm.DB, cart *trade.Cart, client *partner.Client) ([]trade.OrderLine, decimal.Decimal, error) {
	products := persistence.NewGormProductRepository(tx)
	prices := persistence.NewGormPriceRepository(tx)
	brands := persistence.NewGormBrandRepository(tx)

	subtotal := decimal.Zero
	lines := make([]trade.OrderLine, 0, len(cart.Lines))

	for i := range cart.Lines {
		cartLine := &cart.Lines[i]

		product, err := products.FindByID(ctx, cartLine.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !product.IsActive() {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", shared.ErrProductInactive, product.ExternalCode)
		}
		if !cartLine.Quantity.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: non-positive quantity for %s", shared.ErrInvalidInput, product.ExternalCode)
		}

		unitPrice, err := resolveUnitPrice(ctx, prices, product, client)
		if err != nil {
			return nil, decimal.Zero, err
		}

		brandName := ""
		if product.BrandID != nil {
			if brand, err := brands.FindByID(ctx, *product.BrandID); err == nil {
				brandName = brand.Name
			}
		}

		lineTotal := unitPrice.Mul(cartLine.Quantity).Round(2)
		subtotal = subtotal.Add(lineTotal)

		lines = append(lines, trade.OrderLine{
			BaseEntity:          shared.NewBaseEntity(),
			ProductID:           product.ID,
			ProductExternalCode: product.ExternalCode,
			ProductName:         product.Name,
			ProductBrand:        brandName,
			UnitPrice:           unitPrice,
			Quantity:            cartLine.Quantity,
			LineTotal:           lineTotal,
		})
	}

	return lines, subtotal, nil
}

// resolveUnitPrice prefers the client's price-list row and falls back to
// the product list price
func resolveUnitPrice(ctx context.Context, prices catalog.PriceRepository, product *catalog.Product, client *partner.Client) (decimal.Decimal, error) {
	if client.PriceList != "" {
		row, err := prices.FindForProductList(ctx, product.ID, client.PriceList, DefaultCurrency)
		if err == nil {
			return row.Amount, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, err
		}
	}
	return product.ListPrice, nil
}
