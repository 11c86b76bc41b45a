package shared

// DomainError represents a domain-level error with a stable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another transaction")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Unauthorized access")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Invalid state transition")
	ErrInternal            = NewDomainError("INTERNAL_ERROR", "Internal error")
)
