package simplecms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Optional distinguishes "not supplied" from any supplied value, including an
// explicit JSON null (Set with the zero Value).
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only invoked for keys present in the document, so reaching
// it marks the value as supplied.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// FieldInput describes a field when creating or replacing a type's field list.
// A nil ID mints a new field id.
type FieldInput struct {
	ID           *uuid.UUID `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string     `json:"name" yaml:"name"`
	DisplayName  string     `json:"displayName" yaml:"displayName"`
	FieldType    FieldType  `json:"fieldType" yaml:"fieldType"`
	Required     bool       `json:"required" yaml:"required"`
	Unique       bool       `json:"unique" yaml:"unique"`
	DefaultValue *string    `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Options      []string   `json:"options,omitempty" yaml:"options,omitempty"`
	RelatedType  string     `json:"relatedType,omitempty" yaml:"relatedType,omitempty"`
}

// CreateContentTypeRequest contains parameters for creating a content type
type CreateContentTypeRequest struct {
	Name        string       `json:"name" yaml:"name"`
	DisplayName string       `json:"displayName" yaml:"displayName"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldInput `json:"fields" yaml:"fields"`
}

// UpdateContentTypeRequest contains a partial update. Fields, when set,
// replaces the whole field list.
type UpdateContentTypeRequest struct {
	ID          uuid.UUID              `json:"-"`
	Name        Optional[string]       `json:"name"`
	DisplayName Optional[string]       `json:"displayName"`
	Description Optional[string]       `json:"description"`
	Fields      Optional[[]FieldInput] `json:"fields"`
}

// FieldValueInput is one field value supplied by a caller. Value accepts a
// JSON string, number, or boolean; non-strings keep their JSON text.
type FieldValueInput struct {
	FieldID uuid.UUID `json:"fieldId"`
	Value   string    `json:"value"`
}

func (in *FieldValueInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		FieldID uuid.UUID       `json:"fieldId"`
		Value   json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.FieldID = raw.FieldID
	in.Value = ""

	v := bytes.TrimSpace(raw.Value)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '"':
		if err := json.Unmarshal(v, &in.Value); err != nil {
			return err
		}
	case v[0] == '{' || v[0] == '[':
		return fmt.Errorf("field %s: value must be a string, number, or boolean", raw.FieldID)
	default:
		in.Value = string(v)
	}
	return nil
}

// CreateEntryRequest contains parameters for creating a content entry
type CreateEntryRequest struct {
	ContentTypeID uuid.UUID         `json:"contentTypeId"`
	Slug          string            `json:"slug,omitempty"`
	Status        EntryStatus       `json:"status,omitempty"`
	PublishedAt   *time.Time        `json:"publishedAt,omitempty"`
	ScheduledAt   *time.Time        `json:"scheduledAt,omitempty"`
	AuthorID      string            `json:"authorId,omitempty"`
	FieldValues   []FieldValueInput `json:"fieldValues"`
}

// UpdateEntryRequest contains a partial update. Only supplied members change;
// FieldValues, when set, replaces every value of the entry.
type UpdateEntryRequest struct {
	ID          uuid.UUID                   `json:"-"`
	Slug        Optional[string]            `json:"slug"`
	Status      Optional[EntryStatus]       `json:"status"`
	PublishedAt Optional[*time.Time]        `json:"publishedAt"`
	ScheduledAt Optional[*time.Time]        `json:"scheduledAt"`
	AuthorID    Optional[string]            `json:"authorId"`
	FieldValues Optional[[]FieldValueInput] `json:"fieldValues"`
}

// ListEntriesRequest filters a content type's entries. Empty filters match all.
type ListEntriesRequest struct {
	ContentTypeID uuid.UUID
	Status        EntryStatus
	Search        string
}
