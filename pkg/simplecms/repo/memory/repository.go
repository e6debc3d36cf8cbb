package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

type slugKey struct {
	contentTypeID uuid.UUID
	slug          string
}

// Repository implements simplecms.Repository using in-memory storage
type Repository struct {
	mu            sync.RWMutex
	contentTypes  map[uuid.UUID]*simplecms.ContentType
	typesBySlug   map[string]uuid.UUID
	entries       map[uuid.UUID]*simplecms.ContentEntry
	entriesBySlug map[slugKey]uuid.UUID
	entriesByType map[uuid.UUID][]uuid.UUID // content_type_id -> entry ids in insertion order
}

// New creates a new in-memory repository
func New() simplecms.Repository {
	return &Repository{
		contentTypes:  make(map[uuid.UUID]*simplecms.ContentType),
		typesBySlug:   make(map[string]uuid.UUID),
		entries:       make(map[uuid.UUID]*simplecms.ContentEntry),
		entriesBySlug: make(map[slugKey]uuid.UUID),
		entriesByType: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Content type operations

func (r *Repository) CreateContentType(ctx context.Context, ct *simplecms.ContentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.typesBySlug[ct.Slug]; exists && id != ct.ID {
		return simplecms.ErrSlugConflict
	}
	r.contentTypes[ct.ID] = ct.Clone()
	r.typesBySlug[ct.Slug] = ct.ID
	return nil
}

func (r *Repository) GetContentType(ctx context.Context, id uuid.UUID) (*simplecms.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, exists := r.contentTypes[id]
	if !exists {
		return nil, simplecms.ErrContentTypeNotFound
	}
	return ct.Clone(), nil
}

func (r *Repository) GetContentTypeBySlug(ctx context.Context, slug string) (*simplecms.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.typesBySlug[slug]
	if !exists {
		return nil, simplecms.ErrContentTypeNotFound
	}
	return r.contentTypes[id].Clone(), nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]*simplecms.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simplecms.ContentType, 0, len(r.contentTypes))
	for _, ct := range r.contentTypes {
		result = append(result, ct.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Slug < result[j].Slug
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) UpdateContentType(ctx context.Context, ct *simplecms.ContentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.contentTypes[ct.ID]
	if !exists {
		return simplecms.ErrContentTypeNotFound
	}
	if id, taken := r.typesBySlug[ct.Slug]; taken && id != ct.ID {
		return simplecms.ErrSlugConflict
	}
	delete(r.typesBySlug, old.Slug)
	r.contentTypes[ct.ID] = ct.Clone()
	r.typesBySlug[ct.Slug] = ct.ID
	return nil
}

func (r *Repository) DeleteContentType(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ct, exists := r.contentTypes[id]
	if !exists {
		return simplecms.ErrContentTypeNotFound
	}
	delete(r.typesBySlug, ct.Slug)
	delete(r.contentTypes, id)
	return nil
}

func (r *Repository) ContentTypeSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.typesBySlug[slug]
	return exists && id != excludeID, nil
}

// Entry operations

func (r *Repository) CreateEntry(ctx context.Context, entry *simplecms.ContentEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.ID]; exists {
		return fmt.Errorf("entry %s already exists", entry.ID)
	}
	if entry.Slug != "" {
		key := slugKey{entry.ContentTypeID, entry.Slug}
		if _, taken := r.entriesBySlug[key]; taken {
			return simplecms.ErrSlugConflict
		}
		r.entriesBySlug[key] = entry.ID
	}
	r.entries[entry.ID] = entry.Clone()
	r.entriesByType[entry.ContentTypeID] = append(r.entriesByType[entry.ContentTypeID], entry.ID)
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*simplecms.ContentEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, simplecms.ErrEntryNotFound
	}
	return entry.Clone(), nil
}

func (r *Repository) ListEntriesByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*simplecms.ContentEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.entriesByType[contentTypeID]
	result := make([]*simplecms.ContentEntry, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.entries[id].Clone())
	}
	return result, nil
}

func (r *Repository) UpdateEntry(ctx context.Context, entry *simplecms.ContentEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.entries[entry.ID]
	if !exists {
		return simplecms.ErrEntryNotFound
	}
	newKey := slugKey{old.ContentTypeID, entry.Slug}
	if entry.Slug != "" {
		if id, taken := r.entriesBySlug[newKey]; taken && id != entry.ID {
			return simplecms.ErrSlugConflict
		}
	}
	if old.Slug != "" {
		delete(r.entriesBySlug, slugKey{old.ContentTypeID, old.Slug})
	}
	if entry.Slug != "" {
		r.entriesBySlug[newKey] = entry.ID
	}

	// The owning type never changes.
	updated := entry.Clone()
	updated.ContentTypeID = old.ContentTypeID
	r.entries[entry.ID] = updated
	return nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists {
		return simplecms.ErrEntryNotFound
	}
	r.removeEntryLocked(entry)
	ids := r.entriesByType[entry.ContentTypeID]
	for i, eid := range ids {
		if eid == id {
			r.entriesByType[entry.ContentTypeID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Repository) DeleteEntriesByContentType(ctx context.Context, contentTypeID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.entriesByType[contentTypeID]
	for _, id := range ids {
		r.removeEntryLocked(r.entries[id])
	}
	delete(r.entriesByType, contentTypeID)
	return len(ids), nil
}

func (r *Repository) removeEntryLocked(entry *simplecms.ContentEntry) {
	if entry.Slug != "" {
		delete(r.entriesBySlug, slugKey{entry.ContentTypeID, entry.Slug})
	}
	delete(r.entries, entry.ID)
}

func (r *Repository) EntrySlugExists(ctx context.Context, contentTypeID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.entriesBySlug[slugKey{contentTypeID, slug}]
	return exists && id != excludeID, nil
}

func (r *Repository) FieldValueExists(ctx context.Context, contentTypeID, fieldID uuid.UUID, value string, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.entriesByType[contentTypeID] {
		if id == excludeID {
			continue
		}
		if v, ok := r.entries[id].Value(fieldID); ok && v == value {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) FindDueEntries(ctx context.Context, now time.Time) ([]*simplecms.ContentEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplecms.ContentEntry
	for _, entry := range r.entries {
		if entry.Status != simplecms.StatusScheduled || entry.ScheduledAt == nil {
			continue
		}
		if !entry.ScheduledAt.After(now) {
			result = append(result, entry.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.ScheduledAt.Equal(*b.ScheduledAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ScheduledAt.Before(*b.ScheduledAt)
	})
	return result, nil
}
