package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ApiError struct {
	Status    int          `json:"-"`
	ErrorCode string       `json:"error_code"`
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
}

var (
	ErrValidation   = ApiError{Status: http.StatusBadRequest, ErrorCode: "VALIDATION_ERROR", Message: "Validation failed"}
	ErrUnauthorized = ApiError{Status: http.StatusUnauthorized, ErrorCode: "UNAUTHORIZED", Message: "%s"}
	ErrNotFound     = ApiError{Status: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: "%s"}
	ErrSlugConflict = ApiError{Status: http.StatusConflict, ErrorCode: "SLUG_CONFLICT", Message: "Could not allocate a unique slug, please retry"}
	ErrUserExists   = ApiError{Status: http.StatusConflict, ErrorCode: "USER_EXISTS", Message: "Username or email already exists"}
	ErrInternal     = ApiError{Status: http.StatusInternalServerError, ErrorCode: "INTERNAL_ERROR", Message: "Internal server error"}
)

// New fills the message template with messages.
func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := e.Message
	if len(args) > 0 {
		message = fmt.Sprintf(e.Message, args...)
	}
	return ApiError{
		Status:    e.Status,
		ErrorCode: e.ErrorCode,
		Message:   message,
		Errors:    e.Errors,
	}
}

func (e ApiError) WithErrors(fields ...FieldError) ApiError {
	e.Errors = append(append([]FieldError{}, e.Errors...), fields...)
	return e
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// NewValidationError converts binding and validator failures into the
// VALIDATION_ERROR envelope.
func NewValidationError(err error) ApiError {
	var apiErr ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return ErrValidation.WithErrors(FieldError{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()})
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return ErrValidation.WithErrors(FieldError{Field: "body", Message: "must be a valid JSON object"})
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return ErrValidation.WithErrors(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "username":
		return "may only contain letters, digits, dots, underscores and hyphens"
	case "slug":
		return "must contain only lowercase letters, digits and single hyphens"
	default:
		return "is invalid"
	}
}
