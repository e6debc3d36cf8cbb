package simplecms

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for content type and entry persistence.
//
// Lookups of absent records return ErrContentTypeNotFound or ErrEntryNotFound.
// Implementations store copies; callers may mutate what they pass in or get back.
type Repository interface {
	// Content type operations
	CreateContentType(ctx context.Context, ct *ContentType) error
	GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetContentTypeBySlug(ctx context.Context, slug string) (*ContentType, error)
	ListContentTypes(ctx context.Context) ([]*ContentType, error)
	UpdateContentType(ctx context.Context, ct *ContentType) error
	DeleteContentType(ctx context.Context, id uuid.UUID) error
	// ContentTypeSlugExists reports whether slug is used by a type other than excludeID.
	ContentTypeSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)

	// Entry operations
	CreateEntry(ctx context.Context, entry *ContentEntry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*ContentEntry, error)
	// ListEntriesByContentType returns entries in insertion order.
	ListEntriesByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*ContentEntry, error)
	UpdateEntry(ctx context.Context, entry *ContentEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	DeleteEntriesByContentType(ctx context.Context, contentTypeID uuid.UUID) (int, error)
	// EntrySlugExists reports whether slug is used within contentTypeID by an entry other than excludeID.
	EntrySlugExists(ctx context.Context, contentTypeID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	// FieldValueExists reports whether another entry of contentTypeID holds value for fieldID.
	FieldValueExists(ctx context.Context, contentTypeID, fieldID uuid.UUID, value string, excludeID uuid.UUID) (bool, error)
	// FindDueEntries returns SCHEDULED entries whose scheduledAt is at or before now.
	FindDueEntries(ctx context.Context, now time.Time) ([]*ContentEntry, error)
}

// EventSink defines the interface for lifecycle notifications.
// Errors are logged by the service and never fail the originating write.
type EventSink interface {
	ContentTypeCreated(ctx context.Context, ct *ContentType) error
	ContentTypeUpdated(ctx context.Context, ct *ContentType) error
	ContentTypeDeleted(ctx context.Context, id uuid.UUID) error

	EntryCreated(ctx context.Context, entry *ContentEntry) error
	EntryUpdated(ctx context.Context, entry *ContentEntry) error
	EntryDeleted(ctx context.Context, entry *ContentEntry) error
	// EntryStatusChanged fires after a workflow transition is persisted.
	EntryStatusChanged(ctx context.Context, entry *ContentEntry, from, to EntryStatus) error
}
