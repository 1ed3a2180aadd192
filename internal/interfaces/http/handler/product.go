package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/b2bstore/backend/internal/application/catalog"
	"github.com/b2bstore/backend/internal/interfaces/http/dto"
	"github.com/b2bstore/backend/internal/interfaces/http/middleware"
)

// ProductHandler serves the client-scoped catalog
type ProductHandler struct {
	BaseHandler
	display *catalogapp.DisplayService
}

// NewProductHandler creates a product handler
func NewProductHandler(display *catalogapp.DisplayService) *ProductHandler {
	return &ProductHandler{display: display}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.List)
}

// List returns all active products priced for the caller's client
func (h *ProductHandler) List(c *gin.Context) {
	clientID, ok := middleware.GetClientID(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "missing client identity")
		return
	}

	views, err := h.display.ListProducts(c.Request.Context(), clientID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, views)
}
