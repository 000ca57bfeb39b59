package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a structured validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the standard response for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors"`
}

// HandleValidationErrors renders binding errors as a 400 response
func HandleValidationErrors(ctx *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	fields := make([]ValidationError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, ValidationError{
			Field:   toSnakeCase(fieldError.Field()),
			Message: getValidationErrorMessage(fieldError),
		})
	}

	ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:  "validation_error",
		Errors: fields,
	})
}

// getValidationErrorMessage returns a human-readable message for a validation error
func getValidationErrorMessage(fieldError validator.FieldError) string {
	isString := fieldError.Type().Kind().String() == "string"

	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if isString {
			return "Must be at least " + fieldError.Param() + " characters long"
		}
		return "Must be at least " + fieldError.Param()
	case "max":
		if isString {
			return "Must be at most " + fieldError.Param() + " characters long"
		}
		return "Must be at most " + fieldError.Param()
	case "gte":
		return "Must be greater than or equal to " + fieldError.Param()
	case "lte":
		return "Must be less than or equal to " + fieldError.Param()
	case "latitude":
		return "Must be a valid latitude"
	case "longitude":
		return "Must be a valid longitude"
	case "required_with":
		return "Required together with " + toSnakeCase(fieldError.Param())
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Invalid value for this field"
	}
}

// toSnakeCase converts a string from camelCase to snake_case
func toSnakeCase(s string) string {
	if strings.Contains(s, "_") {
		return s
	}

	var result strings.Builder
	for i, r := range s {
		if i > 0 && 'A' <= r && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
