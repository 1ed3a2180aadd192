package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderapp "github.com/b2bstore/backend/internal/application/order"
	"github.com/b2bstore/backend/internal/domain/trade"
	"github.com/b2bstore/backend/internal/interfaces/http/dto"
	"github.com/b2bstore/backend/internal/interfaces/http/middleware"
)

// OrderHandler serves checkout and order reads
type OrderHandler struct {
	BaseHandler
	checkout *orderapp.CheckoutService
	orders   trade.OrderRepository
}

// NewOrderHandler creates an order handler
func NewOrderHandler(checkout *orderapp.CheckoutService, orders trade.OrderRepository) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/checkout", h.Checkout)
	rg.GET("/orders/:id", h.Get)
}

// CheckoutRequest confirms the caller's cart as an order
type CheckoutRequest struct {
	FulfillmentMethod string  `json:"fulfillment_method" binding:"required,oneof=delivery pickup"`
	AddressID         *string `json:"address_id" binding:"omitempty,uuid"`
	Note              string  `json:"note" binding:"max=2000"`
}

// OrderResponse is the rendered order
type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	Number            string              `json:"number"`
	Status            trade.OrderStatus   `json:"status"`
	FulfillmentMethod string              `json:"fulfillment_method"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	DiscountPct       decimal.Decimal     `json:"discount_pct"`
	DiscountAmount    decimal.Decimal     `json:"discount_amount"`
	TaxAmount         decimal.Decimal     `json:"tax_amount"`
	Total             decimal.Decimal     `json:"total"`
	Note              string              `json:"note,omitempty"`
	SyncedAt          *time.Time          `json:"synced_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	Lines             []OrderLineResponse `json:"lines"`
}

// OrderLineResponse is one rendered order line
type OrderLineResponse struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Brand       string          `json:"brand,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Checkout confirms the caller's cart as an order
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "missing caller identity")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := orderapp.CheckoutInput{
		UserID:            userID,
		FulfillmentMethod: trade.FulfillmentMethod(req.FulfillmentMethod),
		Note:              req.Note,
	}
	if req.AddressID != nil {
		addressID, err := uuid.Parse(*req.AddressID)
		if err != nil {
			h.BadRequest(c, "malformed address_id")
			return
		}
		input.AddressID = &addressID
	}

	order, err := h.checkout.Checkout(c.Request.Context(), input)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, renderOrder(order))
}

// Get returns one of the caller's orders
func (h *OrderHandler) Get(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "missing caller identity")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "malformed order id")
		return
	}

	order, err := h.orders.FindByID(c.Request.Context(), orderID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	claims := middleware.GetClaims(c)
	if order.UserID != userID && (claims == nil || !claims.IsAdmin()) {
		// Hide other users' orders entirely
		h.Error(c, dto.ErrCodeNotFound, "order not found")
		return
	}
	h.Success(c, renderOrder(order))
}

func renderOrder(order *trade.Order) OrderResponse {
	resp := OrderResponse{
		ID:                order.ID,
		Number:            order.Number,
		Status:            order.Status,
		FulfillmentMethod: string(order.FulfillmentMethod),
		Subtotal:          order.Subtotal,
		DiscountPct:       order.DiscountPct,
		DiscountAmount:    order.DiscountAmount,
		TaxAmount:         order.TaxAmount,
		Total:             order.Total,
		Note:              order.Note,
		SyncedAt:          order.SyncedAt,
		CreatedAt:         order.CreatedAt,
		Lines:             make([]OrderLineResponse, 0, len(order.Lines)),
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ProductCode: line.ProductExternalCode,
			ProductName: line.ProductName,
			Brand:       line.ProductBrand,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal,
		})
	}
	return resp
}
