package simplecms

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldType enumerates the kinds of value a content field holds.
type FieldType string

// Field type constants (typed).
const (
	FieldText     FieldType = "TEXT"
	FieldTextarea FieldType = "TEXTAREA"
	FieldRichText FieldType = "RICH_TEXT"
	FieldWYSIWYG  FieldType = "WYSIWYG"
	FieldEmail    FieldType = "EMAIL"
	FieldURL      FieldType = "URL"
	FieldPhone    FieldType = "PHONE"
	FieldDate     FieldType = "DATE"
	FieldDateTime FieldType = "DATETIME"
	FieldBoolean  FieldType = "BOOLEAN"
	FieldNumber   FieldType = "NUMBER"
	FieldDecimal  FieldType = "DECIMAL"
	FieldColor    FieldType = "COLOR"
	FieldJSON     FieldType = "JSON"
	FieldSlug     FieldType = "SLUG"
	FieldPassword FieldType = "PASSWORD"
	FieldMedia    FieldType = "MEDIA"
	FieldRelation FieldType = "RELATION"
)

// FieldBehavior is the per-type row of the field type table.
type FieldBehavior struct {
	// SlugSource marks values of this type as candidates for entry slugs.
	SlugSource bool
	// Check validates a non-empty value. Only consulted in strict mode.
	Check func(value string) error
	// Format renders a stored value for display.
	Format func(value string) string
}

var (
	colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

const maskedValue = "********"

var fieldBehaviors = map[FieldType]FieldBehavior{
	FieldText:     {SlugSource: true},
	FieldTextarea: {},
	FieldRichText: {},
	FieldWYSIWYG:  {},
	FieldEmail: {Check: func(v string) error {
		if _, err := mail.ParseAddress(v); err != nil {
			return fmt.Errorf("must be a valid email address")
		}
		return nil
	}},
	FieldURL: {Check: func(v string) error {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("must be an absolute URL")
		}
		return nil
	}},
	FieldPhone: {},
	FieldDate: {
		Check: func(v string) error {
			if _, err := time.Parse(time.DateOnly, v); err != nil {
				return fmt.Errorf("must be a date (YYYY-MM-DD)")
			}
			return nil
		},
	},
	FieldDateTime: {
		Check: func(v string) error {
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return fmt.Errorf("must be an RFC 3339 timestamp")
			}
			return nil
		},
		Format: func(v string) string {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return v
			}
			return t.UTC().Format(time.RFC3339)
		},
	},
	FieldBoolean: {
		Check: func(v string) error {
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("must be true or false")
			}
			return nil
		},
		Format: func(v string) string {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return v
			}
			return strconv.FormatBool(b)
		},
	},
	FieldNumber: {Check: func(v string) error {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("must be a whole number")
		}
		return nil
	}},
	FieldDecimal: {Check: func(v string) error {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("must be a number")
		}
		return nil
	}},
	FieldColor: {
		Check: func(v string) error {
			if !colorPattern.MatchString(v) {
				return fmt.Errorf("must be a hex color")
			}
			return nil
		},
		Format: strings.ToLower,
	},
	FieldJSON: {Check: func(v string) error {
		if !json.Valid([]byte(v)) {
			return fmt.Errorf("must be valid JSON")
		}
		return nil
	}},
	FieldSlug: {Check: func(v string) error {
		if !slugPattern.MatchString(v) {
			return fmt.Errorf("must be a lowercase slug")
		}
		return nil
	}},
	FieldPassword: {Format: func(string) string { return maskedValue }},
	FieldMedia:    {},
	FieldRelation: {},
}

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	_, ok := fieldBehaviors[t]
	return ok
}

// Behavior returns the table row for t. Unknown types get the zero row.
func (t FieldType) Behavior() FieldBehavior {
	return fieldBehaviors[t]
}

// FormatValue renders value for display according to the field type.
func (t FieldType) FormatValue(value string) string {
	if f := t.Behavior().Format; f != nil && value != "" {
		return f(value)
	}
	return value
}

// FieldTypes returns every known field type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldText, FieldTextarea, FieldRichText, FieldWYSIWYG, FieldEmail, FieldURL,
		FieldPhone, FieldDate, FieldDateTime, FieldBoolean, FieldNumber, FieldDecimal,
		FieldColor, FieldJSON, FieldSlug, FieldPassword, FieldMedia, FieldRelation,
	}
}
