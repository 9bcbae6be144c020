package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes. UNAVAILABLE and RATE_LIMITED keep "call failed"
// distinguishable from "no data" at the log layer even though both degrade to
// an empty contribution at the aggregator.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeOutOfDomain      = "OUT_OF_DOMAIN"
	ErrCodeInsufficientData = "INSUFFICIENT_DATA"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query text cannot be empty")
	ErrInvalidDocumentRef   = NewDomainError(ErrCodeValidation, "unsupported document reference")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Capability errors
var (
	ErrIndexUnavailable    = NewDomainError(ErrCodeUnavailable, "vector index not available")
	ErrEmbedderUnavailable = NewDomainError(ErrCodeUnavailable, "embedding provider not configured")
	ErrLLMUnavailable      = NewDomainError(ErrCodeUnavailable, "language model not configured")
	ErrGeocodeFailed       = NewDomainError(ErrCodeUnavailable, "no geocoding provider could resolve the location")
	ErrToolRateLimited     = NewDomainError(ErrCodeRateLimited, "outbound call budget exhausted")
)

// Data errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrCorruptManifest  = NewDomainError(ErrCodeInternalError, "ingest manifest is corrupted")
)
