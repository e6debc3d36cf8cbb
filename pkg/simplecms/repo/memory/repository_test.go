package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
)

func newType(slug string) *simplecms.ContentType {
	id := uuid.New()
	return &simplecms.ContentType{
		ID:   id,
		Name: slug,
		Slug: slug,
		Fields: []*simplecms.ContentField{
			{ID: uuid.New(), Name: "title", FieldType: simplecms.FieldText, ContentTypeID: id},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func newEntry(ct *simplecms.ContentType, slug, title string) *simplecms.ContentEntry {
	id := uuid.New()
	return &simplecms.ContentEntry{
		ID:            id,
		ContentTypeID: ct.ID,
		Slug:          slug,
		Status:        simplecms.StatusDraft,
		FieldValues: []*simplecms.ContentFieldValue{
			{ID: uuid.New(), FieldID: ct.Fields[0].ID, EntryID: id, Value: title},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestMemoryRepository_ContentTypeOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	ct := newType("article")
	require.NoError(t, repo.CreateContentType(ctx, ct))

	t.Run("stores a copy", func(t *testing.T) {
		ct.Fields[0].Name = "mutated"
		got, err := repo.GetContentType(ctx, ct.ID)
		require.NoError(t, err)
		assert.Equal(t, "title", got.Fields[0].Name)

		got.Fields[0].Name = "mutated too"
		again, err := repo.GetContentTypeBySlug(ctx, "article")
		require.NoError(t, err)
		assert.Equal(t, "title", again.Fields[0].Name)
	})

	t.Run("slug conflicts", func(t *testing.T) {
		err := repo.CreateContentType(ctx, newType("article"))
		assert.ErrorIs(t, err, simplecms.ErrSlugConflict)

		taken, err := repo.ContentTypeSlugExists(ctx, "article", uuid.New())
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.ContentTypeSlugExists(ctx, "article", ct.ID)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("update moves the slug index", func(t *testing.T) {
		updated, err := repo.GetContentType(ctx, ct.ID)
		require.NoError(t, err)
		updated.Slug = "story"
		require.NoError(t, repo.UpdateContentType(ctx, updated))

		_, err = repo.GetContentTypeBySlug(ctx, "article")
		assert.ErrorIs(t, err, simplecms.ErrContentTypeNotFound)
		got, err := repo.GetContentTypeBySlug(ctx, "story")
		require.NoError(t, err)
		assert.Equal(t, ct.ID, got.ID)

		other := newType("other")
		require.NoError(t, repo.CreateContentType(ctx, other))
		other.Slug = "story"
		assert.ErrorIs(t, repo.UpdateContentType(ctx, other), simplecms.ErrSlugConflict)
	})

	t.Run("list and delete", func(t *testing.T) {
		types, err := repo.ListContentTypes(ctx)
		require.NoError(t, err)
		assert.Len(t, types, 2)

		require.NoError(t, repo.DeleteContentType(ctx, ct.ID))
		assert.ErrorIs(t, repo.DeleteContentType(ctx, ct.ID), simplecms.ErrContentTypeNotFound)
		assert.ErrorIs(t, repo.UpdateContentType(ctx, ct), simplecms.ErrContentTypeNotFound)

		taken, err := repo.ContentTypeSlugExists(ctx, "story", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestMemoryRepository_EntryOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newType("post")
	other := newType("page")
	require.NoError(t, repo.CreateContentType(ctx, ct))
	require.NoError(t, repo.CreateContentType(ctx, other))

	a := newEntry(ct, "hello", "Hello")
	b := newEntry(ct, "world", "World")
	c := newEntry(other, "hello", "Hello")
	for _, e := range []*simplecms.ContentEntry{a, b, c} {
		require.NoError(t, repo.CreateEntry(ctx, e))
	}

	t.Run("slugs are scoped per type", func(t *testing.T) {
		assert.ErrorIs(t, repo.CreateEntry(ctx, newEntry(ct, "hello", "Again")), simplecms.ErrSlugConflict)

		taken, err := repo.EntrySlugExists(ctx, ct.ID, "hello", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repo.EntrySlugExists(ctx, ct.ID, "hello", a.ID)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("duplicate id", func(t *testing.T) {
		dup := newEntry(ct, "", "Dup")
		dup.ID = a.ID
		assert.Error(t, repo.CreateEntry(ctx, dup))
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		entries, err := repo.ListEntriesByContentType(ctx, ct.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, a.ID, entries[0].ID)
		assert.Equal(t, b.ID, entries[1].ID)
	})

	t.Run("field value lookup", func(t *testing.T) {
		taken, err := repo.FieldValueExists(ctx, ct.ID, ct.Fields[0].ID, "World", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repo.FieldValueExists(ctx, ct.ID, ct.Fields[0].ID, "World", b.ID)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("update rewrites slug index and keeps owner", func(t *testing.T) {
		updated, err := repo.GetEntry(ctx, a.ID)
		require.NoError(t, err)
		updated.Slug = "hi"
		updated.ContentTypeID = other.ID
		require.NoError(t, repo.UpdateEntry(ctx, updated))

		got, err := repo.GetEntry(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, ct.ID, got.ContentTypeID)
		assert.Equal(t, "hi", got.Slug)

		taken, err := repo.EntrySlugExists(ctx, ct.ID, "hello", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, taken)

		got.Slug = "world"
		assert.ErrorIs(t, repo.UpdateEntry(ctx, got), simplecms.ErrSlugConflict)
		assert.ErrorIs(t, repo.UpdateEntry(ctx, newEntry(ct, "x", "x")), simplecms.ErrEntryNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteEntry(ctx, b.ID))
		assert.ErrorIs(t, repo.DeleteEntry(ctx, b.ID), simplecms.ErrEntryNotFound)
		_, err := repo.GetEntry(ctx, b.ID)
		assert.ErrorIs(t, err, simplecms.ErrEntryNotFound)

		entries, err := repo.ListEntriesByContentType(ctx, ct.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, a.ID, entries[0].ID)
	})

	t.Run("delete by content type", func(t *testing.T) {
		n, err := repo.DeleteEntriesByContentType(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		_, err = repo.GetEntry(ctx, c.ID)
		assert.ErrorIs(t, err, simplecms.ErrEntryNotFound)
		require.NoError(t, repo.CreateEntry(ctx, newEntry(other, "hello", "Reused")))
	})
}

func TestMemoryRepository_FindDueEntries(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newType("post")
	require.NoError(t, repo.CreateContentType(ctx, ct))

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}

	mk := func(slug string, status simplecms.EntryStatus, when *time.Time) *simplecms.ContentEntry {
		e := newEntry(ct, slug, slug)
		e.Status = status
		e.ScheduledAt = when
		require.NoError(t, repo.CreateEntry(ctx, e))
		return e
	}
	later := mk("later", simplecms.StatusScheduled, at(-time.Minute))
	earlier := mk("earlier", simplecms.StatusScheduled, at(-time.Hour))
	exact := mk("exact", simplecms.StatusScheduled, at(0))
	mk("future", simplecms.StatusScheduled, at(time.Minute))
	mk("draft", simplecms.StatusDraft, at(-time.Hour))
	mk("unset", simplecms.StatusScheduled, nil)

	due, err := repo.FindDueEntries(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, earlier.ID, due[0].ID)
	assert.Equal(t, later.ID, due[1].ID)
	assert.Equal(t, exact.ID, due[2].ID)
}
