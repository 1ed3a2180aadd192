package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogapp "github.com/b2bstore/backend/internal/application/catalog"
	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/pricing"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/domain/trade"
)

// CartLineInput is one requested cart line
type CartLineInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// CartLineView is one cart line priced for display
type CartLineView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartView is the rendered cart with estimated totals. The totals use the
// same computation checkout persists, so the preview and the confirmed
// order always agree.
type CartView struct {
	Lines          []CartLineView  `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// CartService reads and updates the caller's cart
type CartService struct {
	carts    trade.CartRepository
	products catalog.ProductRepository
	clients  partner.ClientRepository
	display  *catalogapp.DisplayService
}

// NewCartService creates a cart service
func NewCartService(
	carts trade.CartRepository,
	products catalog.ProductRepository,
	clients partner.ClientRepository,
	display *catalogapp.DisplayService,
) *CartService {
	return &CartService{carts: carts, products: products, clients: clients, display: display}
}

// GetCart renders the user's cart. A user without a cart gets an empty view.
func (s *CartService) GetCart(ctx context.Context, userID, clientID uuid.UUID) (*CartView, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.FindForUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return emptyCartView(client), nil
	}
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart, client)
}

// UpdateCart replaces the cart's lines with the given ones. An empty input
// empties the cart.
func (s *CartService) UpdateCart(ctx context.Context, userID, clientID uuid.UUID, inputs []CartLineInput) (*CartView, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.IsActive() {
		return nil, shared.ErrClientInactive
	}

	cart, err := s.carts.FindForUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		cart = &trade.Cart{
			BaseEntity: shared.NewBaseEntity(),
			UserID:     userID,
			ClientID:   clientID,
		}
	} else if err != nil {
		return nil, err
	}

	lines := make([]trade.CartLine, 0, len(inputs))
	for _, input := range inputs {
		if !input.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive quantity", shared.ErrInvalidInput)
		}
		product, err := s.products.FindByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive() {
			return nil, fmt.Errorf("%w: %s", shared.ErrProductInactive, product.ExternalCode)
		}
		unitPrice, err := s.display.UnitPrice(ctx, product, client)
		if err != nil {
			return nil, err
		}
		lines = append(lines, trade.CartLine{
			BaseEntity:      shared.NewBaseEntity(),
			CartID:          cart.ID,
			ProductID:       product.ID,
			Quantity:        input.Quantity,
			CachedUnitPrice: unitPrice,
		})
	}

	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return nil, err
	}
	cart.Lines = lines
	cart.Touch()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart, client)
}

// buildView re-resolves every line price; cached prices are display hints
// only and never feed the totals
func (s *CartService) buildView(ctx context.Context, cart *trade.Cart, client *partner.Client) (*CartView, error) {
	view := emptyCartView(client)
	subtotal := decimal.Zero

	for i := range cart.Lines {
		line := &cart.Lines[i]
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		unitPrice, err := s.display.UnitPrice(ctx, product, client)
		if err != nil {
			return nil, err
		}
		lineTotal := unitPrice.Mul(line.Quantity).Round(2)
		subtotal = subtotal.Add(lineTotal)

		view.Lines = append(view.Lines, CartLineView{
			ProductID:   product.ID,
			ProductCode: product.ExternalCode,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}

	totals := pricing.ComputeOrderTotals(subtotal, client.DiscountPct)
	view.Subtotal = totals.Subtotal
	view.DiscountAmount = totals.DiscountAmount
	view.TaxAmount = totals.TaxAmount
	view.Total = totals.Total
	return view, nil
}

func emptyCartView(client *partner.Client) *CartView {
	return &CartView{
		Lines:          []CartLineView{},
		Subtotal:       decimal.Zero,
		DiscountPct:    client.DiscountPct,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		Total:          decimal.Zero,
	}
}
