package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrFetch          = errors.New("product fetch failed")
	ErrParse          = errors.New("product parse failed")
	ErrCart           = errors.New("cart add failed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidState   = errors.New("invalid state")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a 502 error for a product request that did not succeed.
// The quickview treats it as "unavailable" and never retries.
func NewFetchError(handle string, err error) *APIError {
	return &APIError{
		Code:       "FETCH_ERROR",
		Message:    fmt.Sprintf("product %q could not be loaded", handle),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrFetch, err),
	}
}

// NewProductNotFoundError creates a 404 fetch error for an unknown handle.
// It matches both ErrFetch and ErrNotFound.
func NewProductNotFoundError(handle string) *APIError {
	return &APIError{
		Code:       "PRODUCT_NOT_FOUND",
		Message:    fmt.Sprintf("product %q not found", handle),
		StatusCode: 404,
		Err:        errors.Join(ErrFetch, ErrNotFound),
	}
}

// NewParseError creates a 502 error for a product body that could not be decoded.
func NewParseError(handle string, err error) *APIError {
	return &APIError{
		Code:       "PARSE_ERROR",
		Message:    fmt.Sprintf("product %q returned an unreadable response", handle),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrParse, err),
	}
}

// NewCartError creates a 502 error for a failed cart add.
func NewCartError(variantID int64, err error) *APIError {
	return &APIError{
		Code:       "CART_ERROR",
		Message:    fmt.Sprintf("variant %d could not be added to cart", variantID),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrCart, err),
	}
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewStateError creates a 409 error for an event the quickview cannot accept in its current state.
func NewStateError(event, state string) *APIError {
	return &APIError{
		Code:       "INVALID_STATE",
		Message:    fmt.Sprintf("cannot %s while quickview is %s", event, state),
		StatusCode: 409,
		Err:        ErrInvalidState,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
