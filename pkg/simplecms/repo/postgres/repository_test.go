package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
)

// newTestRepository connects to TEST_DATABASE_URL and migrates a throwaway
// schema that is dropped when the test ends.
func newTestRepository(t *testing.T) *postgres.Repository {
	t.Helper()
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping postgres test: TEST_DATABASE_URL not set")
	}
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	ctx := context.Background()
	schema := "cms_test_" + uuid.NewString()[:8]

	admin, err := pgx.Connect(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %s CASCADE", pgx.Identifier{schema}.Sanitize()))
		_ = admin.Close(context.Background())
	})

	cfg, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := postgres.NewWithPool(pool)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx), "migration is idempotent")
	return repo
}

func TestPostgresRepository_ContentTypes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	def := "draft"
	ct := &simplecms.ContentType{
		ID:          uuid.New(),
		Name:        "Article",
		DisplayName: "Articles",
		Slug:        "article",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ct.Fields = []*simplecms.ContentField{
		{ID: uuid.New(), Name: "title", DisplayName: "Title", FieldType: simplecms.FieldText, Required: true, Order: 0, ContentTypeID: ct.ID},
		{ID: uuid.New(), Name: "state", FieldType: simplecms.FieldText, Options: []string{"draft", "final"}, DefaultValue: &def, Order: 1, ContentTypeID: ct.ID},
	}
	require.NoError(t, repo.CreateContentType(ctx, ct))

	got, err := repo.GetContentTypeBySlug(ctx, "article")
	require.NoError(t, err)
	assert.Equal(t, ct.ID, got.ID)
	assert.Equal(t, "Articles", got.DisplayName)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "title", got.Fields[0].Name)
	assert.True(t, got.Fields[0].Required)
	assert.Equal(t, []string{"draft", "final"}, got.Fields[1].Options)
	require.NotNil(t, got.Fields[1].DefaultValue)
	assert.Equal(t, "draft", *got.Fields[1].DefaultValue)

	dup := *ct
	dup.ID = uuid.New()
	dup.Fields = nil
	assert.ErrorIs(t, repo.CreateContentType(ctx, &dup), simplecms.ErrSlugConflict)

	taken, err := repo.ContentTypeSlugExists(ctx, "article", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.ContentTypeSlugExists(ctx, "article", ct.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	got.Slug = "story"
	got.Fields = got.Fields[:1]
	require.NoError(t, repo.UpdateContentType(ctx, got))
	updated, err := repo.GetContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, "story", updated.Slug)
	assert.Len(t, updated.Fields, 1)

	types, err := repo.ListContentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)

	require.NoError(t, repo.DeleteContentType(ctx, ct.ID))
	assert.ErrorIs(t, repo.DeleteContentType(ctx, ct.ID), simplecms.ErrContentTypeNotFound)
	_, err = repo.GetContentType(ctx, ct.ID)
	assert.ErrorIs(t, err, simplecms.ErrContentTypeNotFound)
}

func TestPostgresRepository_Service(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	svc, err := simplecms.New(simplecms.WithRepository(repo), simplecms.WithDeletePolicy(simplecms.DeleteCascade))
	require.NoError(t, err)

	ct, err := svc.CreateContentType(ctx, simplecms.CreateContentTypeRequest{
		Name: "review",
		Fields: []simplecms.FieldInput{
			{Name: "title", FieldType: simplecms.FieldText},
			{Name: "rating", DisplayName: "Rating", FieldType: simplecms.FieldNumber, Required: true},
			{Name: "code", DisplayName: "Code", FieldType: simplecms.FieldText, Unique: true},
		},
	})
	require.NoError(t, err)
	title, rating, code := ct.Fields[0].ID, ct.Fields[1].ID, ct.Fields[2].ID

	create := func(titleValue, ratingValue, codeValue string) (*simplecms.ContentEntry, error) {
		return svc.CreateEntry(ctx, simplecms.CreateEntryRequest{
			ContentTypeID: ct.ID,
			FieldValues: []simplecms.FieldValueInput{
				{FieldID: title, Value: titleValue},
				{FieldID: rating, Value: ratingValue},
				{FieldID: code, Value: codeValue},
			},
		})
	}

	first, err := create("Same Title", "5", "A1")
	require.NoError(t, err)
	second, err := create("Same Title", "4", "B2")
	require.NoError(t, err)
	assert.Equal(t, "same-title", first.Slug)
	assert.Equal(t, "same-title-1", second.Slug)

	_, err = create("Other", "3", "A1")
	var verr *simplecms.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Messages(), "Code must be unique")

	got, err := svc.GetEntry(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.FieldValues, 3)
	assert.Equal(t, "Same Title", got.FieldValues[0].Value)
	assert.Equal(t, "5", got.FieldValues[1].Value)

	entries, err := svc.ListEntries(ctx, simplecms.ListEntriesRequest{ContentTypeID: ct.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)

	updated, err := svc.UpdateEntry(ctx, simplecms.UpdateEntryRequest{
		ID:          second.ID,
		FieldValues: simplecms.Some([]simplecms.FieldValueInput{{FieldID: rating, Value: "1"}}),
	})
	require.NoError(t, err)
	assert.Len(t, updated.FieldValues, 1)

	when := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	_, err = svc.Schedule(ctx, first.ID, when)
	require.NoError(t, err)
	due, err := svc.FindDue(ctx, when.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first.ID, due[0].ID)
	assert.True(t, when.Equal(*due[0].ScheduledAt))

	published, err := svc.Publish(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, published.PublishedAt)
	assert.Nil(t, published.ScheduledAt)

	deleted, err := svc.DeleteEntry(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = svc.DeleteEntry(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.DeleteContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = svc.GetEntry(ctx, first.ID)
	assert.ErrorIs(t, err, simplecms.ErrEntryNotFound)
}
