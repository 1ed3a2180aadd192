package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b2bstore/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common response utilities
type BaseHandler struct{}

// Success sends a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response with the standard envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, requestID(c)))
}

// DomainError maps a domain error to its API code and sends it
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	code := dto.CodeForError(err)
	message := err.Error()
	if code == dto.ErrCodeInternal {
		// Internal details stay in the logs
		message = "internal error"
	}
	h.Error(c, code, message)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
