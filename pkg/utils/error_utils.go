package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Standardized APIError response
type APIError struct {
	StatusCode int               `json:"-"`              // HTTP status code, not included in JSON response body for error itself
	Code       string            `json:"code,omitempty"` // Application-specific error code
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`    // field -> message
	Conflicts  interface{}       `json:"conflicts,omitempty"` // colliding records, for RESERVATION_CONFLICT
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// WithField attaches a field-scoped message.
func (e *APIError) WithField(field, message string) *APIError {
	if field == "" {
		return e
	}
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = message
	return e
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort() // Abort further processing if it's a middleware or critical error
}

// Common Error Constants
const (
	ErrCodeBadRequest             = "BAD_REQUEST"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeInternalServerError    = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeReservationConflict    = "RESERVATION_CONFLICT"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// IsValidEmail checks if a string is a valid email format.
var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.ToLower(email))
}

// RespondValidationFailed reports a request body or query that failed
// binding. Validator errors are broken down per field.
func RespondValidationFailed(c *gin.Context, err error) {
	apiErr := NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", "")

	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			apiErr.WithField(fe.Field(), describeFieldError(fe))
		}
	case errors.As(err, &typeErr):
		apiErr.WithField(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type.String()))
	case errors.As(err, &syntaxErr):
		apiErr.Details = "malformed JSON body"
	default:
		if err != nil {
			apiErr.Details = err.Error()
		}
	}
	RespondWithError(c, apiErr)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "reservation_status", "unit_status", "unit_type", "transaction_type", "transaction_category", "payment_method":
		return fmt.Sprintf("%q is not a valid choice", fmt.Sprint(fe.Value()))
	case "color_hex":
		return "must be a #RRGGBB colour"
	case "clock_time":
		return "must be a HH:MM time"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
