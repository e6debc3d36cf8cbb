package simplecms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Content type operations

func (s *service) CreateContentType(ctx context.Context, req CreateContentTypeRequest) (*ContentType, error) {
	if err := newValidationError(validateSchema(req.Name, req.Fields)); err != nil {
		return nil, err
	}

	s.typesMu.Lock()
	defer s.typesMu.Unlock()

	now := s.now()
	ct := &ContentType{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		DisplayName: req.DisplayName,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ct.DisplayName == "" {
		ct.DisplayName = ct.Name
	}

	slug, err := EnsureUniqueSlug(ctx, s.typeSlugTaken(ct.ID), Slugify(ct.Name))
	if err != nil {
		return nil, &ContentTypeError{ContentTypeID: ct.ID, Op: "create", Err: err}
	}
	ct.Slug = slug

	// New types never reuse caller ids.
	inputs := make([]FieldInput, len(req.Fields))
	copy(inputs, req.Fields)
	for i := range inputs {
		inputs[i].ID = nil
	}
	ct.Fields, err = buildFields(ct, inputs)
	if err != nil {
		return nil, err
	}

	if err := s.repository.CreateContentType(ctx, ct); err != nil {
		return nil, &ContentTypeError{ContentTypeID: ct.ID, Op: "create", Err: err}
	}

	s.logger.InfoContext(ctx, "Content type created", "content_type_id", ct.ID, "slug", ct.Slug)
	s.notify(ctx, "content_type.created", s.eventSink.ContentTypeCreated(ctx, ct))
	return ct, nil
}

func (s *service) GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	return s.repository.GetContentType(ctx, id)
}

func (s *service) GetContentTypeBySlug(ctx context.Context, slug string) (*ContentType, error) {
	return s.repository.GetContentTypeBySlug(ctx, slug)
}

func (s *service) ListContentTypes(ctx context.Context) ([]*ContentType, error) {
	return s.repository.ListContentTypes(ctx)
}

func (s *service) UpdateContentType(ctx context.Context, req UpdateContentTypeRequest) (*ContentType, error) {
	s.typesMu.Lock()
	defer s.typesMu.Unlock()

	ct, err := s.repository.GetContentType(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	name := ct.Name
	if req.Name.Set {
		name = strings.TrimSpace(req.Name.Value)
	}
	fields := fieldInputs(ct.Fields)
	if req.Fields.Set {
		fields = req.Fields.Value
	}
	if err := newValidationError(validateSchema(name, fields)); err != nil {
		return nil, err
	}

	if req.Name.Set {
		ct.Name = name
		slug, err := EnsureUniqueSlug(ctx, s.typeSlugTaken(ct.ID), Slugify(name))
		if err != nil {
			return nil, &ContentTypeError{ContentTypeID: ct.ID, Op: "update", Err: err}
		}
		ct.Slug = slug
	}
	if req.DisplayName.Set {
		ct.DisplayName = req.DisplayName.Value
	}
	if req.Description.Set {
		ct.Description = req.Description.Value
	}
	if req.Fields.Set {
		ct.Fields, err = buildFields(ct, req.Fields.Value)
		if err != nil {
			return nil, err
		}
	}
	ct.UpdatedAt = s.now()

	if err := s.repository.UpdateContentType(ctx, ct); err != nil {
		return nil, &ContentTypeError{ContentTypeID: ct.ID, Op: "update", Err: err}
	}

	s.logger.InfoContext(ctx, "Content type updated", "content_type_id", ct.ID, "slug", ct.Slug)
	s.notify(ctx, "content_type.updated", s.eventSink.ContentTypeUpdated(ctx, ct))
	return ct, nil
}

func (s *service) DeleteContentType(ctx context.Context, id uuid.UUID) (bool, error) {
	s.typesMu.Lock()
	defer s.typesMu.Unlock()

	if _, err := s.repository.GetContentType(ctx, id); err != nil {
		if errors.Is(err, ErrContentTypeNotFound) {
			return false, nil
		}
		return false, err
	}

	// Held across both deletes; CreateEntry re-checks the type under it.
	l := s.typeLock(id)
	l.Lock()
	if s.deletePolicy == DeleteCascade {
		n, err := s.repository.DeleteEntriesByContentType(ctx, id)
		if err != nil {
			l.Unlock()
			return false, &ContentTypeError{ContentTypeID: id, Op: "delete", Err: err}
		}
		s.logger.InfoContext(ctx, "Cascade deleted entries", "content_type_id", id, "count", n)
	}
	err := s.repository.DeleteContentType(ctx, id)
	l.Unlock()
	if err != nil {
		if errors.Is(err, ErrContentTypeNotFound) {
			return false, nil
		}
		return false, &ContentTypeError{ContentTypeID: id, Op: "delete", Err: err}
	}
	if s.deletePolicy == DeleteCascade {
		s.dropTypeLock(id)
	}

	s.logger.InfoContext(ctx, "Content type deleted", "content_type_id", id, "policy", s.deletePolicy)
	s.notify(ctx, "content_type.deleted", s.eventSink.ContentTypeDeleted(ctx, id))
	return true, nil
}

func (s *service) typeSlugTaken(self uuid.UUID) SlugExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.repository.ContentTypeSlugExists(ctx, candidate, self)
	}
}

// buildFields turns inputs into the type's field list. Order follows array
// position; a supplied id is kept only if it already belongs to ct.
func buildFields(ct *ContentType, inputs []FieldInput) ([]*ContentField, error) {
	var errs []FieldError
	fields := make([]*ContentField, 0, len(inputs))
	for i, in := range inputs {
		id := uuid.New()
		if in.ID != nil {
			if ct.Field(*in.ID) == nil {
				errs = append(errs, FieldError{
					FieldID: *in.ID,
					Field:   in.Name,
					Message: fmt.Sprintf("Field id %s does not belong to content type %s", in.ID, ct.Name),
				})
				continue
			}
			id = *in.ID
		}
		f := &ContentField{
			ID:            id,
			Name:          strings.TrimSpace(in.Name),
			DisplayName:   in.DisplayName,
			FieldType:     in.FieldType,
			Required:      in.Required,
			Unique:        in.Unique,
			DefaultValue:  in.DefaultValue,
			Options:       in.Options,
			RelatedType:   in.RelatedType,
			Order:         i,
			ContentTypeID: ct.ID,
		}
		if f.DisplayName == "" {
			f.DisplayName = f.Name
		}
		fields = append(fields, f)
	}
	if err := newValidationError(errs); err != nil {
		return nil, err
	}
	return fields, nil
}

func fieldInputs(fields []*ContentField) []FieldInput {
	inputs := make([]FieldInput, len(fields))
	for i, f := range fields {
		id := f.ID
		inputs[i] = FieldInput{
			ID:           &id,
			Name:         f.Name,
			DisplayName:  f.DisplayName,
			FieldType:    f.FieldType,
			Required:     f.Required,
			Unique:       f.Unique,
			DefaultValue: f.DefaultValue,
			Options:      f.Options,
			RelatedType:  f.RelatedType,
		}
	}
	return inputs
}
