package internal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/collection"
	"github.com/dmitrymomot/tabula/pkg/oauth"
	"github.com/dmitrymomot/tabula/pkg/orm"
	"github.com/dmitrymomot/tabula/pkg/validator"
)

// HTTPError carries an explicit status code through a handler error.
type HTTPError struct {
	// Err is the underlying error, logged but not shown to clients.
	Err error

	// Message is the user-facing error message.
	Message string

	// ErrorCode is an application-specific error code for client handling.
	ErrorCode string

	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// StatusOf maps a handler error to a response status.
func StatusOf(err error) int {
	if httpErr := AsHTTPError(err); httpErr != nil {
		return httpErr.Code
	}
	switch {
	case validator.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, orm.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrAccountNotFound),
		errors.Is(err, auth.ErrVerificationNotFound),
		errors.Is(err, collection.ErrFieldNotFound),
		errors.Is(err, oauth.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, api.ErrInvalidBody),
		errors.Is(err, collection.ErrMissingID):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error,omitempty"`
	Code    string                     `json:"code,omitempty"`
	Errors  validator.ValidationErrors `json:"errors,omitempty"`
}

// writeError renders err. Details of 5xx errors stay in the log.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	resp := ErrorResponse{Message: http.StatusText(status)}

	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "api call failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	} else {
		resp.Error = err.Error()
		resp.Errors = validator.ExtractValidationErrors(err)
		if httpErr := AsHTTPError(err); httpErr != nil {
			resp.Code = httpErr.ErrorCode
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
