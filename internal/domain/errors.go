package domain

import (
	"errors"
	"net/http"
)

// Sentinel errors for the storefront domain. Handlers wrap these with
// fmt.Errorf("...: %w", Err...) and map them to HTTP statuses at the edge.
var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidOrExpired   = errors.New("coupon is invalid or expired")
	ErrUsageLimitExceeded = errors.New("coupon usage limit exceeded")
	ErrMinimumNotMet      = errors.New("cart total below coupon minimum")
	ErrAlreadyDelivered   = errors.New("order already delivered")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// HTTPStatus maps a domain error to its response status. Unknown errors
// surface as 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidOrExpired),
		errors.Is(err, ErrUsageLimitExceeded),
		errors.Is(err, ErrMinimumNotMet),
		errors.Is(err, ErrAlreadyDelivered),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
