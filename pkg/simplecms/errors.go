package simplecms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentTypeNotFound indicates a content type was not found
	ErrContentTypeNotFound = errors.New("content type not found")

	// ErrEntryNotFound indicates a content entry was not found
	ErrEntryNotFound = errors.New("entry not found")

	// ErrSlugConflict indicates a slug is already taken within its scope
	ErrSlugConflict = errors.New("slug already in use")

	// ErrInvalidStatus indicates an unknown workflow status
	ErrInvalidStatus = errors.New("invalid entry status")

	// ErrInvalidTransition indicates a workflow transition the current policy forbids
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrNotDue indicates an entry is not SCHEDULED at or before the given time
	ErrNotDue = errors.New("entry is not due")
)

// FieldError is a single validation failure.
type FieldError struct {
	FieldID uuid.UUID `json:"fieldId,omitempty"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

func (e FieldError) String() string {
	return e.Message
}

// ValidationError carries every violation found for one write. It is never
// returned with an empty Details list.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := e.Messages()
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Messages returns the human-readable detail lines.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.Message
	}
	return msgs
}

// newValidationError returns nil when details is empty.
func newValidationError(details []FieldError) error {
	if len(details) == 0 {
		return nil
	}
	return &ValidationError{Details: details}
}

// ContentTypeError represents an error related to content type operations
type ContentTypeError struct {
	ContentTypeID uuid.UUID
	Op            string
	Err           error
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("content type operation %s failed for %s: %v", e.Op, e.ContentTypeID, e.Err)
}

func (e *ContentTypeError) Unwrap() error {
	return e.Err
}

// EntryError represents an error related to entry operations
type EntryError struct {
	EntryID uuid.UUID
	Op      string
	Err     error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry operation %s failed for entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
