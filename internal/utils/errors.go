package utils

import (
	"context"
	"errors"
	"net/http"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Common error types for consistent handling
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("access forbidden")
	ErrBadRequest         = errors.New("invalid request")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrValidation         = errors.New("validation error")
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HandleError processes an error and returns the appropriate HTTP response
func HandleError(ctx *gin.Context, err error, logger *Logger) {
	status, response := processError(err)

	if status >= 500 {
		logger.Error("Server error",
			zap.Error(err),
			zap.String("path", ctx.Request.URL.Path),
			zap.String("method", ctx.Request.Method),
			zap.String("ip", ctx.ClientIP()),
		)
	}

	var coded *ErrorWithCode
	if errors.As(err, &coded) {
		response.Code = coded.Code
	}

	ctx.JSON(status, response)
}

// StatusFor returns the HTTP status an error maps to
func StatusFor(err error) int {
	status, _ := processError(err)
	return status
}

// processError determines the appropriate HTTP status code and response for an error
func processError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict, ErrorResponse{
			Error:   "already_exists",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		}
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "payload_too_large",
			Message: err.Error(),
		}
	case errors.Is(err, analysis.ErrInputTooShort):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "input_too_short",
			Message: err.Error(),
		}
	case errors.Is(err, analysis.ErrInvalidPayload):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: err.Error(),
		}
	case errors.Is(err, analysis.ErrInsufficientData):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "insufficient_data",
			Message: err.Error(),
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, ErrorResponse{
			Error:   "request_cancelled",
			Message: "The analysis did not complete",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_server_error",
			Message: "An unexpected error occurred",
		}
	}
}

// ErrorWithCode attaches a machine readable code to an error
type ErrorWithCode struct {
	Err  error
	Code string
}

// Error returns the error message
func (e *ErrorWithCode) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *ErrorWithCode) Unwrap() error {
	return e.Err
}

// NewErrorWithCode creates a new error with a custom error code
func NewErrorWithCode(err error, code string) error {
	return &ErrorWithCode{
		Err:  err,
		Code: code,
	}
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExistsError checks if an error is an "already exists" error
func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsUnauthorizedError checks if an error is an "unauthorized" error
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
