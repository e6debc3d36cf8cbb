package simplecms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry operations

func (s *service) ListEntries(ctx context.Context, req ListEntriesRequest) ([]*ContentEntry, error) {
	l := s.typeLock(req.ContentTypeID)
	l.RLock()
	entries, err := s.repository.ListEntriesByContentType(ctx, req.ContentTypeID)
	l.RUnlock()
	if err != nil {
		return nil, err
	}

	if req.Status == "" && req.Search == "" {
		return entries, nil
	}

	needle := strings.ToLower(req.Search)
	result := make([]*ContentEntry, 0, len(entries))
	for _, e := range entries {
		if req.Status != "" && e.Status != req.Status {
			continue
		}
		if needle != "" && !matchesSearch(e, needle) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

// matchesSearch tests the lowercased needle against the slug and every value.
func matchesSearch(e *ContentEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Slug), needle) {
		return true
	}
	for _, v := range e.FieldValues {
		if strings.Contains(strings.ToLower(v.Value), needle) {
			return true
		}
	}
	return false
}

func (s *service) GetEntry(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	return s.repository.GetEntry(ctx, id)
}

func (s *service) CreateEntry(ctx context.Context, req CreateEntryRequest) (*ContentEntry, error) {
	ct, err := s.repository.GetContentType(ctx, req.ContentTypeID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	errs := s.validateValues(ct, req.FieldValues)
	if !status.IsValid() {
		errs = append(errs, invalidStatusError(status))
	}

	l := s.typeLock(ct.ID)
	l.Lock()
	defer l.Unlock()

	// The type may have been deleted while we waited for the lock.
	if _, err := s.repository.GetContentType(ctx, ct.ID); err != nil {
		return nil, err
	}

	id := uuid.New()
	uniqueErrs, err := s.validateUnique(ctx, ct, req.FieldValues, id)
	if err != nil {
		return nil, &EntryError{EntryID: id, Op: "create", Err: err}
	}
	if err := newValidationError(append(errs, uniqueErrs...)); err != nil {
		return nil, err
	}

	slug, err := EnsureUniqueSlug(ctx, s.entrySlugTaken(ct.ID, id), DeriveEntrySlug(ct, req, id))
	if err != nil {
		return nil, &EntryError{EntryID: id, Op: "create", Err: err}
	}

	now := s.now()
	entry := &ContentEntry{
		ID:            id,
		ContentTypeID: ct.ID,
		Slug:          slug,
		Status:        status,
		PublishedAt:   req.PublishedAt,
		ScheduledAt:   req.ScheduledAt,
		AuthorID:      req.AuthorID,
		FieldValues:   newFieldValues(id, req.FieldValues),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == StatusPublished && entry.PublishedAt == nil {
		entry.PublishedAt = &now
	}

	if err := s.repository.CreateEntry(ctx, entry); err != nil {
		return nil, &EntryError{EntryID: id, Op: "create", Err: err}
	}

	s.logger.InfoContext(ctx, "Entry created", "entry_id", entry.ID, "content_type", ct.Slug, "slug", entry.Slug)
	s.notify(ctx, "entry.created", s.eventSink.EntryCreated(ctx, entry))
	return entry, nil
}

func (s *service) UpdateEntry(ctx context.Context, req UpdateEntryRequest) (*ContentEntry, error) {
	return s.update(ctx, req, nil)
}

// update applies req under the content type's entry lock. guard, when set,
// sees the current record first and may veto the change.
func (s *service) update(ctx context.Context, req UpdateEntryRequest, guard func(*ContentEntry) error) (*ContentEntry, error) {
	current, err := s.repository.GetEntry(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	var ct *ContentType
	if req.FieldValues.Set {
		if ct, err = s.repository.GetContentType(ctx, current.ContentTypeID); err != nil {
			return nil, err
		}
	}

	l := s.typeLock(current.ContentTypeID)
	l.Lock()
	defer l.Unlock()

	// Re-read under the lock; the record may have moved since.
	entry, err := s.repository.GetEntry(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(entry); err != nil {
			return nil, &EntryError{EntryID: entry.ID, Op: "update", Err: err}
		}
	}

	var errs []FieldError
	if req.FieldValues.Set {
		errs = append(errs, s.validateValues(ct, req.FieldValues.Value)...)
		uniqueErrs, err := s.validateUnique(ctx, ct, req.FieldValues.Value, entry.ID)
		if err != nil {
			return nil, &EntryError{EntryID: entry.ID, Op: "update", Err: err}
		}
		errs = append(errs, uniqueErrs...)
	}
	if req.Status.Set && !req.Status.Value.IsValid() {
		errs = append(errs, invalidStatusError(req.Status.Value))
	}
	if err := newValidationError(errs); err != nil {
		return nil, err
	}

	previous := entry.Status
	if req.FieldValues.Set {
		entry.FieldValues = newFieldValues(entry.ID, req.FieldValues.Value)
	}
	if req.Slug.Set {
		entry.Slug = ""
		if req.Slug.Value != "" {
			slug, err := EnsureUniqueSlug(ctx, s.entrySlugTaken(entry.ContentTypeID, entry.ID), req.Slug.Value)
			if err != nil {
				return nil, &EntryError{EntryID: entry.ID, Op: "update", Err: err}
			}
			entry.Slug = slug
		}
	}
	if req.Status.Set {
		entry.Status = req.Status.Value
	}
	if req.PublishedAt.Set {
		entry.PublishedAt = req.PublishedAt.Value
	}
	if req.ScheduledAt.Set {
		entry.ScheduledAt = req.ScheduledAt.Value
	}
	if req.AuthorID.Set {
		entry.AuthorID = req.AuthorID.Value
	}
	entry.UpdatedAt = s.now()

	if err := s.repository.UpdateEntry(ctx, entry); err != nil {
		return nil, &EntryError{EntryID: entry.ID, Op: "update", Err: err}
	}

	s.notify(ctx, "entry.updated", s.eventSink.EntryUpdated(ctx, entry))
	if entry.Status != previous {
		s.logger.InfoContext(ctx, "Entry status changed", "entry_id", entry.ID, "from", previous, "to", entry.Status)
		s.notify(ctx, "entry.status_changed", s.eventSink.EntryStatusChanged(ctx, entry, previous, entry.Status))
	}
	return entry, nil
}

func (s *service) DeleteEntry(ctx context.Context, id uuid.UUID) (bool, error) {
	entry, err := s.repository.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return false, nil
		}
		return false, err
	}

	l := s.typeLock(entry.ContentTypeID)
	l.Lock()
	err = s.repository.DeleteEntry(ctx, id)
	l.Unlock()
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return false, nil
		}
		return false, &EntryError{EntryID: id, Op: "delete", Err: err}
	}

	s.logger.InfoContext(ctx, "Entry deleted", "entry_id", id)
	s.notify(ctx, "entry.deleted", s.eventSink.EntryDeleted(ctx, entry))
	return true, nil
}

func (s *service) FindDue(ctx context.Context, now time.Time) ([]*ContentEntry, error) {
	return s.repository.FindDueEntries(ctx, now)
}

func (s *service) ResolveFields(ctx context.Context, entry *ContentEntry) (map[string]string, error) {
	ct, err := s.repository.GetContentType(ctx, entry.ContentTypeID)
	if err != nil {
		return nil, err
	}
	return ct.Resolve(entry), nil
}

// validateValues runs the schema-only checks: references, duplicates,
// required fields, and in strict mode formats and option lists.
func (s *service) validateValues(ct *ContentType, values []FieldValueInput) []FieldError {
	errs := ValidateReferences(ct, values)
	errs = append(errs, validateDuplicates(ct, values)...)
	errs = append(errs, ValidateRequired(ct, values)...)
	if s.strictFields {
		errs = append(errs, ValidateFormats(ct, values)...)
		errs = append(errs, ValidateFieldOptions(ct, values)...)
	}
	return errs
}

// validateUnique must run under the type's entry lock.
func (s *service) validateUnique(ctx context.Context, ct *ContentType, values []FieldValueInput, self uuid.UUID) ([]FieldError, error) {
	var errs []FieldError
	for _, v := range values {
		f := ct.Field(v.FieldID)
		if f == nil || !f.Unique || strings.TrimSpace(v.Value) == "" {
			continue
		}
		taken, err := s.repository.FieldValueExists(ctx, ct.ID, f.ID, v.Value, self)
		if err != nil {
			return nil, err
		}
		if taken {
			errs = append(errs, FieldError{
				FieldID: f.ID,
				Field:   f.Name,
				Message: fmt.Sprintf("%s must be unique", f.Label()),
			})
		}
	}
	return errs, nil
}

func validateDuplicates(ct *ContentType, values []FieldValueInput) []FieldError {
	var errs []FieldError
	seen := make(map[uuid.UUID]bool, len(values))
	for _, v := range values {
		if seen[v.FieldID] {
			label := v.FieldID.String()
			if f := ct.Field(v.FieldID); f != nil {
				label = f.Label()
			}
			errs = append(errs, FieldError{
				FieldID: v.FieldID,
				Field:   label,
				Message: fmt.Sprintf("%s has more than one value", label),
			})
		}
		seen[v.FieldID] = true
	}
	return errs
}

func invalidStatusError(status EntryStatus) FieldError {
	return FieldError{
		Field:   "status",
		Message: fmt.Sprintf("Status %q is not one of DRAFT, PUBLISHED, SCHEDULED, ARCHIVED", status),
	}
}

func (s *service) entrySlugTaken(contentTypeID, self uuid.UUID) SlugExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.repository.EntrySlugExists(ctx, contentTypeID, candidate, self)
	}
}

func newFieldValues(entryID uuid.UUID, inputs []FieldValueInput) []*ContentFieldValue {
	values := make([]*ContentFieldValue, len(inputs))
	for i, in := range inputs {
		values[i] = &ContentFieldValue{
			ID:      uuid.New(),
			FieldID: in.FieldID,
			EntryID: entryID,
			Value:   in.Value,
		}
	}
	return values
}
