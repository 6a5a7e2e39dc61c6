package errors

import (
	stderrors "errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Service errors
	ErrCodeConfigError   = "CONFIG_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Error kinds. Domain errors wrap exactly one of these.
var (
	ErrValidation   = stderrors.New("validation error")
	ErrUnauthorized = stderrors.New("authentication error")
	ErrForbidden    = stderrors.New("forbidden")
	ErrNotFound     = stderrors.New("not found")
	ErrConflict     = stderrors.New("conflict")
	ErrConfig       = stderrors.New("configuration error")
	ErrInternal     = stderrors.New("internal error")
)

// DomainError is an expected failure of a business operation.
type DomainError struct {
	Kind    error
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// New creates a DomainError of the given kind using the kind's default code.
func New(kind error, message string) *DomainError {
	return &DomainError{Kind: kind, Code: defaultCode(kind), Message: message}
}

// NewWithCode creates a DomainError with an explicit error code.
func NewWithCode(kind error, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// APIError represents a standardized API error response
type APIError struct {
	Message string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// StatusFromKind maps an error kind to its HTTP status code.
func StatusFromKind(err error) int {
	switch {
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func defaultCode(kind error) string {
	switch kind {
	case ErrValidation:
		return ErrCodeInvalidInput
	case ErrUnauthorized:
		return ErrCodeUnauthorized
	case ErrForbidden:
		return ErrCodeForbidden
	case ErrNotFound:
		return ErrCodeNotFound
	case ErrConflict:
		return ErrCodeConflict
	case ErrConfig:
		return ErrCodeConfigError
	default:
		return ErrCodeInternalError
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// RespondWithDomainError translates err into the error envelope. Anything that
// is not a DomainError is logged and reported as a generic 500.
func RespondWithDomainError(c *gin.Context, err error) {
	var domainErr *DomainError
	if !stderrors.As(err, &domainErr) {
		log.Printf("%s: unexpected error: %v", requestLabel(c), err)
		InternalError(c, "")
		return
	}

	status := StatusFromKind(domainErr)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", requestLabel(c), err)
		RespondWithError(c, status, NewAPIError(domainErr.Code, "Internal server error"))
		return
	}
	RespondWithError(c, status, NewAPIError(domainErr.Code, domainErr.Message))
}

func requestLabel(c *gin.Context) string {
	if c.Request == nil {
		return c.FullPath()
	}
	return c.Request.Method + " " + c.Request.URL.Path
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
