package simplecms

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus is the workflow state of a content entry.
type EntryStatus string

// Entry status constants (typed).
const (
	StatusDraft     EntryStatus = "DRAFT"
	StatusPublished EntryStatus = "PUBLISHED"
	StatusScheduled EntryStatus = "SCHEDULED"
	StatusArchived  EntryStatus = "ARCHIVED"
)

// IsValid reports whether s is one of the known workflow states.
func (s EntryStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusScheduled, StatusArchived:
		return true
	default:
		return false
	}
}

// ContentType is a caller-defined schema. Fields are kept sorted by Order.
type ContentType struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description,omitempty"`
	Slug        string          `json:"slug"`
	Fields      []*ContentField `json:"fields"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Field returns the field with the given id, or nil.
func (ct *ContentType) Field(id uuid.UUID) *ContentField {
	for _, f := range ct.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// FieldByName returns the field with the given name, or nil.
func (ct *ContentType) FieldByName(name string) *ContentField {
	for _, f := range ct.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Resolve maps field names to display values for an entry of this type.
// Values whose field no longer exists are skipped.
func (ct *ContentType) Resolve(entry *ContentEntry) map[string]string {
	fields := make(map[string]string, len(entry.FieldValues))
	for _, v := range entry.FieldValues {
		if f := ct.Field(v.FieldID); f != nil {
			fields[f.Name] = f.FieldType.FormatValue(v.Value)
		}
	}
	return fields
}

// Clone returns a deep copy of the content type.
func (ct *ContentType) Clone() *ContentType {
	c := *ct
	c.Fields = make([]*ContentField, len(ct.Fields))
	for i, f := range ct.Fields {
		fc := *f
		if f.Options != nil {
			fc.Options = append([]string(nil), f.Options...)
		}
		if f.DefaultValue != nil {
			v := *f.DefaultValue
			fc.DefaultValue = &v
		}
		c.Fields[i] = &fc
	}
	return &c
}

// ContentField describes one typed field of a content type.
type ContentField struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	DisplayName   string    `json:"displayName"`
	FieldType     FieldType `json:"fieldType"`
	Required      bool      `json:"required"`
	Unique        bool      `json:"unique"`
	DefaultValue  *string   `json:"defaultValue,omitempty"`
	Options       []string  `json:"options,omitempty"`
	RelatedType   string    `json:"relatedType,omitempty"`
	Order         int       `json:"order"`
	ContentTypeID uuid.UUID `json:"contentTypeId"`
}

// Label returns the display name, falling back to the field name.
func (f *ContentField) Label() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Name
}

// ContentEntry is a single record conforming to a content type.
type ContentEntry struct {
	ID            uuid.UUID            `json:"id"`
	ContentTypeID uuid.UUID            `json:"contentTypeId"`
	Slug          string               `json:"slug,omitempty"`
	Status        EntryStatus          `json:"status"`
	PublishedAt   *time.Time           `json:"publishedAt,omitempty"`
	ScheduledAt   *time.Time           `json:"scheduledAt,omitempty"`
	AuthorID      string               `json:"authorId,omitempty"`
	FieldValues   []*ContentFieldValue `json:"fieldValues"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// Value returns the stored value for fieldID and whether one exists.
func (e *ContentEntry) Value(fieldID uuid.UUID) (string, bool) {
	for _, v := range e.FieldValues {
		if v.FieldID == fieldID {
			return v.Value, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the entry.
func (e *ContentEntry) Clone() *ContentEntry {
	c := *e
	if e.PublishedAt != nil {
		t := *e.PublishedAt
		c.PublishedAt = &t
	}
	if e.ScheduledAt != nil {
		t := *e.ScheduledAt
		c.ScheduledAt = &t
	}
	c.FieldValues = make([]*ContentFieldValue, len(e.FieldValues))
	for i, v := range e.FieldValues {
		vc := *v
		c.FieldValues[i] = &vc
	}
	return &c
}

// ContentFieldValue is one field's data for one entry. Field metadata is
// resolved through the owning content type, never copied here.
type ContentFieldValue struct {
	ID      uuid.UUID `json:"id"`
	FieldID uuid.UUID `json:"fieldId"`
	EntryID uuid.UUID `json:"entryId"`
	Value   string    `json:"value"`
}
