package common

import (
	"net/http"
)

// ErrorResponse is the API error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"` // only populated in debug mode
}

// CustomError carries an error code and HTTP status alongside the cause.
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError creates a new CustomError.
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError marks a draft that failed structural validation.
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError creates a new validation error.
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// Predefined error codes.
const (
	// client errors (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"       // 401
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// server errors (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// business errors
	ErrCodePlanNotViable    = "PLAN_NOT_VIABLE"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodeRecipeNotFound   = "RECIPE_NOT_FOUND"
)

// Predefined errors.
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "request timeout", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "gateway timeout", http.StatusGatewayTimeout, nil)

	// ErrPlanNotViable signals that a batch run produced fewer recipes than
	// requested days and was abandoned as a whole.
	ErrPlanNotViable    = NewError(ErrCodePlanNotViable, "could not generate enough recipes for the requested plan", http.StatusBadGateway, nil)
	ErrGenerationFailed = NewError(ErrCodeGenerationFailed, "recipe generation failed", http.StatusBadGateway, nil)
	ErrRecipeNotFound   = NewError(ErrCodeRecipeNotFound, "recipe not found", http.StatusNotFound, nil)
)
