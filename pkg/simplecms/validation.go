package simplecms

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateReferences reports every field id in values that does not belong to ct.
func ValidateReferences(ct *ContentType, values []FieldValueInput) []FieldError {
	var errs []FieldError
	for _, v := range values {
		if ct.Field(v.FieldID) == nil {
			errs = append(errs, FieldError{
				FieldID: v.FieldID,
				Field:   v.FieldID.String(),
				Message: fmt.Sprintf("Unknown field %s for content type %s", v.FieldID, ct.Name),
			})
		}
	}
	return errs
}

// ValidateRequired reports every required field of ct without a non-blank value.
func ValidateRequired(ct *ContentType, values []FieldValueInput) []FieldError {
	present := make(map[uuid.UUID]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(v.Value) != "" {
			present[v.FieldID] = true
		}
	}

	var errs []FieldError
	for _, f := range ct.Fields {
		if f.Required && !present[f.ID] {
			errs = append(errs, FieldError{
				FieldID: f.ID,
				Field:   f.Name,
				Message: fmt.Sprintf("%s is required", f.Label()),
			})
		}
	}
	return errs
}

// ValidateFormats applies each field type's format rule to non-blank values.
func ValidateFormats(ct *ContentType, values []FieldValueInput) []FieldError {
	var errs []FieldError
	for _, v := range values {
		f := ct.Field(v.FieldID)
		if f == nil || strings.TrimSpace(v.Value) == "" {
			continue
		}
		check := f.FieldType.Behavior().Check
		if check == nil {
			continue
		}
		if err := check(v.Value); err != nil {
			errs = append(errs, FieldError{
				FieldID: f.ID,
				Field:   f.Name,
				Message: fmt.Sprintf("%s %s", f.Label(), err),
			})
		}
	}
	return errs
}

// ValidateFieldOptions rejects values outside a field's option list, if it has one.
func ValidateFieldOptions(ct *ContentType, values []FieldValueInput) []FieldError {
	var errs []FieldError
	for _, v := range values {
		f := ct.Field(v.FieldID)
		if f == nil || len(f.Options) == 0 || v.Value == "" {
			continue
		}
		if !containsString(f.Options, v.Value) {
			errs = append(errs, FieldError{
				FieldID: f.ID,
				Field:   f.Name,
				Message: fmt.Sprintf("%s must be one of: %s", f.Label(), strings.Join(f.Options, ", ")),
			})
		}
	}
	return errs
}

// validateSchema checks a content type definition before it is stored.
func validateSchema(name string, fields []FieldInput) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	} else if Slugify(name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name must contain at least one letter or digit"})
	}

	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		label := f.DisplayName
		if label == "" {
			label = fmt.Sprintf("field %d", i+1)
		}
		name := strings.TrimSpace(f.Name)
		if name == "" {
			errs = append(errs, FieldError{Field: label, Message: fmt.Sprintf("%s: name is required", label)})
		} else if seen[name] {
			errs = append(errs, FieldError{Field: name, Message: fmt.Sprintf("Duplicate field name %q", name)})
		}
		seen[name] = true
		if !f.FieldType.IsValid() {
			errs = append(errs, FieldError{
				Field:   label,
				Message: fmt.Sprintf("%s: unknown field type %q", label, f.FieldType),
			})
		}
	}
	return errs
}

func containsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
