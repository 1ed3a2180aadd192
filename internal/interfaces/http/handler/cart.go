package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/b2bstore/backend/internal/application/order"
	"github.com/b2bstore/backend/internal/interfaces/http/dto"
	"github.com/b2bstore/backend/internal/interfaces/http/middleware"
)

// CartHandler serves the caller's cart
type CartHandler struct {
	BaseHandler
	carts *orderapp.CartService
}

// NewCartHandler creates a cart handler
func NewCartHandler(carts *orderapp.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cart", h.Get)
	rg.PUT("/cart", h.Update)
}

// Get renders the caller's cart with estimated totals
func (h *CartHandler) Get(c *gin.Context) {
	userID, clientID, ok := identity(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "missing caller identity")
		return
	}

	view, err := h.carts.GetCart(c.Request.Context(), userID, clientID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateCartRequest carries the full desired cart contents
type UpdateCartRequest struct {
	Lines []orderapp.CartLineInput `json:"lines" binding:"required"`
}

// Update replaces the caller's cart lines
func (h *CartHandler) Update(c *gin.Context) {
	userID, clientID, ok := identity(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "missing caller identity")
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.carts.UpdateCart(c.Request.Context(), userID, clientID, req.Lines)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, view)
}

func identity(c *gin.Context) (userID, clientID uuid.UUID, ok bool) {
	u, okUser := middleware.GetUserID(c)
	cl, okClient := middleware.GetClientID(c)
	return u, cl, okUser && okClient
}
