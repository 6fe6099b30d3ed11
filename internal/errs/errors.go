package errs

import (
	"errors"
	"fmt"
)

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeNotFound         = "NOT_FOUND"
	CodeTenantMismatch   = "TENANT_MISMATCH"
	CodeVersionConflict  = "VERSION_CONFLICT"
)

// BusinessError is the single error type returned by the domain and service
// layers. Code decides how callers react; Details carries machine readable
// context for API responses.
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{Key: key, Payload: payload}
}

func New(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}
	return busErr
}

// Wrap attaches a cause to a new business error.
func Wrap(code, message string, err error, details ...Detail) *BusinessError {
	busErr := New(code, message, details...)
	busErr.Err = err
	return busErr
}

func NewValidation(field, reason string) *BusinessError {
	return New(CodeValidation,
		fmt.Sprintf("invalid value for field '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewInvalidOperation(operation, reason string) *BusinessError {
	return New(CodeInvalidOperation,
		fmt.Sprintf("%s: %s", operation, reason),
		ToDetail("operation", operation),
		ToDetail("reason", reason),
	)
}

func NewNotFound(resource, id string) *BusinessError {
	return New(CodeNotFound,
		fmt.Sprintf("%s %s not found", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewTenantMismatch(resource, id string) *BusinessError {
	return New(CodeTenantMismatch,
		fmt.Sprintf("%s %s belongs to another subscription", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewVersionConflict(resource, id string) *BusinessError {
	return New(CodeVersionConflict,
		fmt.Sprintf("%s %s was modified concurrently", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

// Is reports whether err is a BusinessError with the given code anywhere in
// its chain.
func Is(err error, code string) bool {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code == code
	}
	return false
}

func IsValidation(err error) bool      { return Is(err, CodeValidation) }
func IsNotFound(err error) bool        { return Is(err, CodeNotFound) }
func IsTenantMismatch(err error) bool  { return Is(err, CodeTenantMismatch) }
func IsVersionConflict(err error) bool { return Is(err, CodeVersionConflict) }

// IsInvalidOperation also matches tenant mismatches: a cross-subscription
// reference is an invalid operation with its own code.
func IsInvalidOperation(err error) bool {
	return Is(err, CodeInvalidOperation) || Is(err, CodeTenantMismatch)
}
