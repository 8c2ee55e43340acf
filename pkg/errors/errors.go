package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates input that was rejected before any request was made
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeTimeout indicates the request exceeded its time budget
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeTransport indicates a network failure, non-2xx status or unparseable body
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeShape indicates a response body that parsed but lacks the expected fields
	ErrorTypeShape ErrorType = "SHAPE"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

const (
	msgValidationSearch = "Digite ao menos %d caracteres para buscar"
	msgTimeout          = "A consulta demorou demais para responder."
	msgLoadFailed       = "Não foi possível carregar os dados."
	msgNotFound         = "Registro não encontrado."
	msgInternal         = "Erro interno. Tente novamente mais tarde."

	// RetryLabel is the label of the action offered next to retryable errors.
	RetryLabel = "tentar novamente"
)

// AppError represents an application error
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-issuing the same request may succeed.
func (e *AppError) Retryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeTransport, ErrorTypeShape:
		return true
	default:
		return false
	}
}

// UserMessage returns the text shown to the operator.
// Transport and shape failures share one message.
func (e *AppError) UserMessage() string {
	switch e.Type {
	case ErrorTypeValidation:
		return e.Message
	case ErrorTypeTimeout:
		return msgTimeout
	case ErrorTypeTransport, ErrorTypeShape:
		return msgLoadFailed
	case ErrorTypeNotFound:
		return msgNotFound
	default:
		return msgInternal
	}
}

// HTTPStatus maps the error type to the status code returned by the API.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeTransport, ErrorTypeShape:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewSearchTooShortError creates the validation error for a search below minLength.
func NewSearchTooShortError(minLength int) *AppError {
	return NewValidationError(fmt.Sprintf(msgValidationSearch, minLength))
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
		Err:     err,
	}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// NewStatusError creates a transport error for a non-2xx upstream response.
func NewStatusError(statusCode int) *AppError {
	return &AppError{
		Type:       ErrorTypeTransport,
		Message:    fmt.Sprintf("list api returned status %d", statusCode),
		StatusCode: statusCode,
	}
}

// NewShapeError creates a new shape error
func NewShapeError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeShape,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Classify converts any error returned by a fetch into an *AppError.
// Application errors pass through, deadline errors become timeouts and
// everything else is a transport failure. nil stays nil.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request timed out", err)
	}

	return NewTransportError("request failed", err)
}

// IsType reports whether err carries an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsCanceled reports whether err is a cancellation rather than a failure.
// Superseded requests end this way and must not be surfaced as errors.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
