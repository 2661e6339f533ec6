package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Kind classifies a domain error. The set is closed.
type Kind string

const (
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindEmailTaken         Kind = "EMAIL_TAKEN"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindProductNotFound    Kind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock  Kind = "INSUFFICIENT_STOCK"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is a domain error surfaced to API callers with its kind and message.
type Error struct {
	Kind    Kind
	Message string
	// ProductID identifies the offending product for ProductNotFound and InsufficientStock.
	ProductID uuid.UUID
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden) works for custom messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrUnauthenticated is returned when an operation needs a logged-in caller.
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "You must be logged in"}
	// ErrForbidden is returned when the caller lacks the admin role.
	ErrForbidden = &Error{Kind: KindForbidden, Message: "Admin access required"}
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}
	// ErrEmailTaken is returned on signup with a registered email.
	ErrEmailTaken = &Error{Kind: KindEmailTaken, Message: "Email already in use"}
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
	// ErrProductNotFound matches any ProductNotFound error.
	ErrProductNotFound = &Error{Kind: KindProductNotFound, Message: "Product not found"}
	// ErrInsufficientStock matches any InsufficientStock error.
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock, Message: "Insufficient stock"}
	// ErrValidation matches any ValidationError.
	ErrValidation = &Error{Kind: KindValidation, Message: "invalid input"}
	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
)

// Forbidden returns a Forbidden error with a specific message.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound returns a NotFound error with a specific message.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Validation returns a ValidationError with a specific message.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ProductNotFound returns a ProductNotFound error for id.
func ProductNotFound(id uuid.UUID) error {
	return &Error{
		Kind:      KindProductNotFound,
		Message:   fmt.Sprintf("Product not found: %s", id),
		ProductID: id,
	}
}

// InsufficientStock returns an InsufficientStock error for the named product.
func InsufficientStock(id uuid.UUID, name string) error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("Insufficient stock for product: %s", name),
		ProductID: id,
	}
}

// KindOf returns the kind of err, or KindInternal for anything that is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var statusByKind = map[Kind]int{
	KindUnauthenticated:    http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindEmailTaken:         http.StatusConflict,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindProductNotFound:    http.StatusNotFound,
	KindInsufficientStock:  http.StatusConflict,
	KindValidation:         http.StatusBadRequest,
	KindRateLimited:        http.StatusTooManyRequests,
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything else becomes an opaque internal error.
func MapErrorToHTTP(err error) *HTTPError {
	var de *Error
	if errors.As(err, &de) {
		if status, ok := statusByKind[de.Kind]; ok {
			return NewHTTPError(status, de.Message, string(de.Kind))
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
}
