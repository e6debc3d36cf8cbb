package simplecms

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-cms library
type Service interface {
	// Schema registry
	CreateContentType(ctx context.Context, req CreateContentTypeRequest) (*ContentType, error)
	GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetContentTypeBySlug(ctx context.Context, slug string) (*ContentType, error)
	ListContentTypes(ctx context.Context) ([]*ContentType, error)
	UpdateContentType(ctx context.Context, req UpdateContentTypeRequest) (*ContentType, error)
	DeleteContentType(ctx context.Context, id uuid.UUID) (bool, error)

	// Entry store
	ListEntries(ctx context.Context, req ListEntriesRequest) ([]*ContentEntry, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*ContentEntry, error)
	CreateEntry(ctx context.Context, req CreateEntryRequest) (*ContentEntry, error)
	UpdateEntry(ctx context.Context, req UpdateEntryRequest) (*ContentEntry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) (bool, error)
	FindDue(ctx context.Context, now time.Time) ([]*ContentEntry, error)

	// Workflow
	Publish(ctx context.Context, id uuid.UUID) (*ContentEntry, error)
	// PublishIfDue publishes the entry only if it is still SCHEDULED at or
	// before now when the write happens; otherwise it fails with ErrNotDue.
	PublishIfDue(ctx context.Context, id uuid.UUID, now time.Time) (*ContentEntry, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*ContentEntry, error)
	Schedule(ctx context.Context, id uuid.UUID, when time.Time) (*ContentEntry, error)
	Unschedule(ctx context.Context, id uuid.UUID) (*ContentEntry, error)
	Archive(ctx context.Context, id uuid.UUID) (*ContentEntry, error)

	// ResolveFields maps field names to display values using the entry's content type.
	ResolveFields(ctx context.Context, entry *ContentEntry) (map[string]string, error)
}

// DeletePolicy decides what happens to entries when their content type is deleted.
type DeletePolicy string

const (
	// DeleteOrphan leaves entries in place.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteCascade removes the type's entries with it.
	DeleteCascade DeletePolicy = "cascade"
)

// IsValid reports whether p is a known policy.
func (p DeletePolicy) IsValid() bool {
	return p == DeleteOrphan || p == DeleteCascade
}
