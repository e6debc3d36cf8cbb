package api

import (
	"errors"
	"net/http"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Error codes carried in the envelope.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Response pairs an HTTP status with its envelope.
type Response struct {
	Status   int
	Envelope Envelope
}

// apiError is a failure that already knows its envelope code.
type apiError struct {
	status  int
	code    string
	message string
	details []string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, code: CodeBadRequest, message: message}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, code: CodeNotFound, message: message}
}

func methodNotAllowed(method string) error {
	return &apiError{status: http.StatusMethodNotAllowed, code: CodeMethodNotAllowed, message: "Method " + method + " not allowed"}
}

func success(status int, data any) Response {
	return Response{Status: status, Envelope: Envelope{Success: true, Data: data}}
}

func failure(status int, code, message string, details []string) Response {
	return Response{
		Status: status,
		Envelope: Envelope{
			Error: &ErrorBody{Code: code, Message: message, Details: details},
		},
	}
}

// classify maps an error to its envelope. The second result is false for
// errors that are not part of the public taxonomy; their text never reaches
// the response.
func classify(err error) (Response, bool) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return failure(apiErr.status, apiErr.code, apiErr.message, apiErr.details), true
	}

	var validationErr *simplecms.ValidationError
	if errors.As(err, &validationErr) {
		return failure(http.StatusBadRequest, CodeValidation, "Validation failed", validationErr.Messages()), true
	}

	switch {
	case errors.Is(err, simplecms.ErrContentTypeNotFound):
		return failure(http.StatusNotFound, CodeNotFound, "Content type not found", nil), true
	case errors.Is(err, simplecms.ErrEntryNotFound):
		return failure(http.StatusNotFound, CodeNotFound, "Entry not found", nil), true
	case errors.Is(err, simplecms.ErrSlugConflict):
		return failure(http.StatusBadRequest, CodeValidation, "Validation failed", []string{"Slug is already in use"}), true
	case errors.Is(err, simplecms.ErrInvalidTransition), errors.Is(err, simplecms.ErrInvalidStatus):
		return failure(http.StatusBadRequest, CodeBadRequest, errorMessage(err), nil), true
	}

	return failure(http.StatusInternalServerError, CodeInternal, "Internal server error", nil), false
}

// errorMessage drops the typed wrapper prefix so only the cause is shown.
func errorMessage(err error) string {
	var entryErr *simplecms.EntryError
	if errors.As(err, &entryErr) && entryErr.Err != nil {
		return entryErr.Err.Error()
	}
	return err.Error()
}
