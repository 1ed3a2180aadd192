package dto

import (
	"errors"
	"net/http"

	"github.com/b2bstore/backend/internal/domain/shared"
)

// Error codes, format ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	ErrCodeEmptyCart       = "ERR_EMPTY_CART"
	ErrCodeClientInactive  = "ERR_CLIENT_INACTIVE"
	ErrCodeProductInactive = "ERR_PRODUCT_INACTIVE"
	ErrCodeForeignAddress  = "ERR_FOREIGN_ADDRESS"
)

var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeEmptyCart:       http.StatusUnprocessableEntity,
	ErrCodeClientInactive:  http.StatusForbidden,
	ErrCodeProductInactive: http.StatusUnprocessableEntity,
	ErrCodeForeignAddress:  http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForError maps a domain error to its API error code
func CodeForError(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, shared.ErrAlreadyExists):
		return ErrCodeConflict
	case errors.Is(err, shared.ErrInvalidInput):
		return ErrCodeInvalidInput
	case errors.Is(err, shared.ErrInvalidState):
		return ErrCodeInvalidState
	case errors.Is(err, shared.ErrUnauthorized):
		return ErrCodeUnauthorized
	case errors.Is(err, shared.ErrEmptyCart):
		return ErrCodeEmptyCart
	case errors.Is(err, shared.ErrClientInactive):
		return ErrCodeClientInactive
	case errors.Is(err, shared.ErrProductInactive):
		return ErrCodeProductInactive
	case errors.Is(err, shared.ErrForeignAddress):
		return ErrCodeForeignAddress
	default:
		return ErrCodeInternal
	}
}
