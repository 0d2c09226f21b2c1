package errorx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryAuthorization  ErrorCategory = "authorization"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryInternal       ErrorCategory = "internal"
	CategoryStorage        ErrorCategory = "storage"
	CategoryRateLimit      ErrorCategory = "rate_limit"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// APIError represents a structured API error
type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"category"`
	Severity   Severity       `json:"severity"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`

	// set when Message was replaced and must not be translated by code
	custom bool
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// JSON returns the error as a JSON string
func (e *APIError) JSON() string {
	out, _ := json.Marshal(e)
	return string(out)
}

// Is matches errors by code so errors.Is works against catalog entries
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

func (e *APIError) clone() *APIError {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// WithDetail returns a copy of the error carrying an extra detail
func (e *APIError) WithDetail(key string, value any) *APIError {
	c := e.clone()
	if c.Details == nil {
		c.Details = make(map[string]any)
	}
	c.Details[key] = value
	return c
}

// WithMessage returns a copy of the error with a specific message
func (e *APIError) WithMessage(format string, args ...any) *APIError {
	c := e.clone()
	c.Message = fmt.Sprintf(format, args...)
	c.custom = true
	return c
}

// Catalog. Entries are never mutated; With* helpers return copies.
var (
	// Validation Errors (E1000-E1999)
	ErrInvalidInput = &APIError{
		Code:       "E1001",
		Message:    "Invalid input provided",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingField = &APIError{
		Code:       "E1002",
		Message:    "Required field is missing",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidFormat = &APIError{
		Code:       "E1003",
		Message:    "Invalid data format",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnsupportedFileType = &APIError{
		Code:       "E1004",
		Message:    "Unsupported file type, only audio files are allowed",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingVoiceAssignment = &APIError{
		Code:       "E1005",
		Message:    "Every uploaded file needs a voice type assignment",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrTooManyFiles = &APIError{
		Code:       "E1006",
		Message:    "Too many files in one upload",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrPayloadTooLarge = &APIError{
		Code:       "E1007",
		Message:    "Uploaded file exceeds the size limit",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	ErrNoFiles = &APIError{
		Code:       "E1008",
		Message:    "No audio file was uploaded",
		Category:   CategoryValidation,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusBadRequest,
	}

	// Authentication Errors (E2000-E2999)
	ErrUnauthorized = &APIError{
		Code:       "E2001",
		Message:    "Authentication required",
		Category:   CategoryAuthentication,
		Severity:   SeverityInfo,
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &APIError{
		Code:       "E2002",
		Message:    "Invalid credentials",
		Category:   CategoryAuthentication,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &APIError{
		Code:       "E2003",
		Message:    "Token has expired",
		Category:   CategoryAuthentication,
		Severity:   SeverityInfo,
		HTTPStatus: http.StatusForbidden,
	}

	ErrInvalidToken = &APIError{
		Code:       "E2004",
		Message:    "Invalid token",
		Category:   CategoryAuthentication,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusForbidden,
	}

	ErrAccountDisabled = &APIError{
		Code:       "E2005",
		Message:    "User account is disabled",
		Category:   CategoryAuthentication,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusForbidden,
	}

	// Authorization Errors (E3000-E3999)
	ErrForbidden = &APIError{
		Code:       "E3001",
		Message:    "Access forbidden",
		Category:   CategoryAuthorization,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusForbidden,
	}

	ErrInsufficientPermissions = &APIError{
		Code:       "E3002",
		Message:    "Insufficient permissions for this operation",
		Category:   CategoryAuthorization,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusForbidden,
	}

	// Not found / conflict (E4000-E4999)
	ErrResourceNotFound = &APIError{
		Code:       "E4001",
		Message:    "Resource not found",
		Category:   CategoryNotFound,
		Severity:   SeverityInfo,
		HTTPStatus: http.StatusNotFound,
	}

	ErrEndpointNotFound = &APIError{
		Code:       "E4002",
		Message:    "Endpoint not found",
		Category:   CategoryNotFound,
		Severity:   SeverityInfo,
		HTTPStatus: http.StatusNotFound,
	}

	ErrResourceExists = &APIError{
		Code:       "E4091",
		Message:    "Resource already exists",
		Category:   CategoryConflict,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusConflict,
	}

	ErrRateLimitExceeded = &APIError{
		Code:       "E4291",
		Message:    "Too many requests, please try again later",
		Category:   CategoryRateLimit,
		Severity:   SeverityWarning,
		HTTPStatus: http.StatusTooManyRequests,
	}

	// Internal Errors (E5000-E5999)
	ErrServerPanic = &APIError{
		Code:       "E5000",
		Message:    "Server panic occurred",
		Category:   CategoryInternal,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrInternalServer = &APIError{
		Code:       "E5001",
		Message:    "Internal server error occurred",
		Category:   CategoryInternal,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrDatabaseError = &APIError{
		Code:       "E5002",
		Message:    "Database operation failed",
		Category:   CategoryInternal,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrStorageError = &APIError{
		Code:       "E5003",
		Message:    "File storage operation failed",
		Category:   CategoryStorage,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}
)

// ValidationError creates a validation error for a field
func ValidationError(field string, reason string) *APIError {
	return ErrInvalidInput.WithDetail("field", field).WithDetail("reason", reason)
}

// StorageError wraps a file system failure as ErrStorageError. The cause is
// logged by HandleError but never written to the response.
func StorageError(cause error) error {
	return fmt.Errorf("%w: %w", ErrStorageError, cause)
}

// MissingField creates a missing field error
func MissingField(field string) *APIError {
	return ErrMissingField.WithDetail("field", field)
}

// NotFoundError creates a not found error for a specific resource
func NotFoundError(resourceType string, identifier any) *APIError {
	return ErrResourceNotFound.WithDetail("resource_type", resourceType).
		WithDetail("identifier", identifier)
}

// ConflictError creates a conflict error for a specific resource
func ConflictError(resourceType string, field string, value any) *APIError {
	return ErrResourceExists.WithDetail("resource_type", resourceType).
		WithDetail("field", field).
		WithDetail("value", value)
}
