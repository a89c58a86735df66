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

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeIndexLoad         = "INDEX_LOAD_ERROR"
	ErrCodeEmbeddingService  = "EMBEDDING_SERVICE_ERROR"
	ErrCodeGenerativeService = "GENERATIVE_SERVICE_ERROR"
	ErrCodeConfiguration     = "CONFIGURATION_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidChunkType     = NewDomainError(ErrCodeValidation, "invalid chunk type")
	ErrInvalidChatRole      = NewDomainError(ErrCodeValidation, "invalid chat role")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Index load errors
var (
	ErrDuplicateChunkID = NewDomainError(ErrCodeIndexLoad, "duplicate chunk id in index")
	ErrEmbeddingLength  = NewDomainError(ErrCodeIndexLoad, "inconsistent embedding length in index")
	ErrEmptyIndex       = NewDomainError(ErrCodeIndexLoad, "index contains no chunks")
)

// Not found errors
var (
	ErrScheduleDateNotFound = NewDomainError(ErrCodeNotFound, "no schedule items for date")
)

// Configuration errors
var (
	ErrMissingAPICredential = NewDomainError(ErrCodeConfiguration, "generative service credential is not configured")
)
