package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is an interface that allows us to use either a connection pool or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// Repository implements simplecms.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the tables and indexes if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return r.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return fmt.Errorf("%s: %w", operation, simplecms.ErrSlugConflict)
			}
			return fmt.Errorf("%s: duplicate entry (%s)", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", operation, simplecms.ErrContentTypeNotFound)
		case "23502": // not_null_violation
			return fmt.Errorf("%s: required column %s is missing", operation, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: table does not exist - database migration required", operation)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Content type operations

func (r *Repository) CreateContentType(ctx context.Context, ct *simplecms.ContentType) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO content_types (id, name, display_name, description, slug, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ct.ID, ct.Name, ct.DisplayName, ct.Description, ct.Slug, ct.CreatedAt, ct.UpdatedAt)
		if err != nil {
			return err
		}
		return insertFields(ctx, tx, ct)
	})
	if err != nil {
		return r.handlePostgresError("create content type", err)
	}
	return nil
}

func insertFields(ctx context.Context, tx pgx.Tx, ct *simplecms.ContentType) error {
	for _, f := range ct.Fields {
		_, err := tx.Exec(ctx, `
			INSERT INTO content_fields (
				id, content_type_id, name, display_name, field_type, required,
				is_unique, default_value, options, related_type, sort_order
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			f.ID, ct.ID, f.Name, f.DisplayName, string(f.FieldType), f.Required,
			f.Unique, f.DefaultValue, f.Options, f.RelatedType, f.Order)
		if err != nil {
			return err
		}
	}
	return nil
}

const contentTypeColumns = `id, name, display_name, description, slug, created_at, updated_at`

func (r *Repository) GetContentType(ctx context.Context, id uuid.UUID) (*simplecms.ContentType, error) {
	return r.getContentType(ctx, `SELECT `+contentTypeColumns+` FROM content_types WHERE id = $1`, id)
}

func (r *Repository) GetContentTypeBySlug(ctx context.Context, slug string) (*simplecms.ContentType, error) {
	return r.getContentType(ctx, `SELECT `+contentTypeColumns+` FROM content_types WHERE slug = $1`, slug)
}

func (r *Repository) getContentType(ctx context.Context, query string, arg interface{}) (*simplecms.ContentType, error) {
	var ct simplecms.ContentType
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&ct.ID, &ct.Name, &ct.DisplayName, &ct.Description, &ct.Slug, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplecms.ErrContentTypeNotFound
		}
		return nil, r.handlePostgresError("get content type", err)
	}

	fields, err := r.loadFields(ctx, []uuid.UUID{ct.ID})
	if err != nil {
		return nil, err
	}
	ct.Fields = fields[ct.ID]
	if ct.Fields == nil {
		ct.Fields = []*simplecms.ContentField{}
	}
	return &ct, nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]*simplecms.ContentType, error) {
	rows, err := r.db.Query(ctx, `SELECT `+contentTypeColumns+` FROM content_types ORDER BY created_at, slug`)
	if err != nil {
		return nil, r.handlePostgresError("list content types", err)
	}
	defer rows.Close()

	var types []*simplecms.ContentType
	var ids []uuid.UUID
	for rows.Next() {
		var ct simplecms.ContentType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.DisplayName, &ct.Description, &ct.Slug, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, &ct)
		ids = append(ids, ct.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fields, err := r.loadFields(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, ct := range types {
		ct.Fields = fields[ct.ID]
		if ct.Fields == nil {
			ct.Fields = []*simplecms.ContentField{}
		}
	}
	return types, nil
}

func (r *Repository) loadFields(ctx context.Context, typeIDs []uuid.UUID) (map[uuid.UUID][]*simplecms.ContentField, error) {
	result := make(map[uuid.UUID][]*simplecms.ContentField, len(typeIDs))
	if len(typeIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, content_type_id, name, display_name, field_type, required,
		       is_unique, default_value, options, related_type, sort_order
		FROM content_fields WHERE content_type_id = ANY($1)
		ORDER BY content_type_id, sort_order`, typeIDs)
	if err != nil {
		return nil, r.handlePostgresError("load fields", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f simplecms.ContentField
		var fieldType string
		if err := rows.Scan(&f.ID, &f.ContentTypeID, &f.Name, &f.DisplayName, &fieldType, &f.Required,
			&f.Unique, &f.DefaultValue, &f.Options, &f.RelatedType, &f.Order); err != nil {
			return nil, err
		}
		f.FieldType = simplecms.FieldType(fieldType)
		result[f.ContentTypeID] = append(result[f.ContentTypeID], &f)
	}
	return result, rows.Err()
}

func (r *Repository) UpdateContentType(ctx context.Context, ct *simplecms.ContentType) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE content_types SET name = $2, display_name = $3, description = $4,
				slug = $5, updated_at = $6
			WHERE id = $1`,
			ct.ID, ct.Name, ct.DisplayName, ct.Description, ct.Slug, ct.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return simplecms.ErrContentTypeNotFound
		}
		// The field list is replaced wholesale.
		if _, err := tx.Exec(ctx, `DELETE FROM content_fields WHERE content_type_id = $1`, ct.ID); err != nil {
			return err
		}
		return insertFields(ctx, tx, ct)
	})
	if errors.Is(err, simplecms.ErrContentTypeNotFound) {
		return err
	}
	if err != nil {
		return r.handlePostgresError("update content type", err)
	}
	return nil
}

func (r *Repository) DeleteContentType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_types WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete content type", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecms.ErrContentTypeNotFound
	}
	return nil
}

func (r *Repository) ContentTypeSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_types WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, r.handlePostgresError("check content type slug", err)
	}
	return exists, nil
}

// Entry operations

func (r *Repository) CreateEntry(ctx context.Context, entry *simplecms.ContentEntry) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO content_entries (
				id, content_type_id, slug, status, published_at, scheduled_at,
				author_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			entry.ID, entry.ContentTypeID, entry.Slug, string(entry.Status), entry.PublishedAt,
			entry.ScheduledAt, entry.AuthorID, entry.CreatedAt, entry.UpdatedAt)
		if err != nil {
			return err
		}
		return insertValues(ctx, tx, entry)
	})
	if err != nil {
		return r.handlePostgresError("create entry", err)
	}
	return nil
}

func insertValues(ctx context.Context, tx pgx.Tx, entry *simplecms.ContentEntry) error {
	for i, v := range entry.FieldValues {
		_, err := tx.Exec(ctx, `
			INSERT INTO content_field_values (id, entry_id, field_id, value, position)
			VALUES ($1, $2, $3, $4, $5)`,
			v.ID, entry.ID, v.FieldID, v.Value, i)
		if err != nil {
			return err
		}
	}
	return nil
}

const entryColumns = `id, content_type_id, slug, status, published_at, scheduled_at, author_id, created_at, updated_at`

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*simplecms.ContentEntry, error) {
	entries, err := r.queryEntries(ctx, `SELECT `+entryColumns+` FROM content_entries WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, simplecms.ErrEntryNotFound
	}
	return entries[0], nil
}

func (r *Repository) ListEntriesByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*simplecms.ContentEntry, error) {
	return r.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM content_entries WHERE content_type_id = $1 ORDER BY seq`, contentTypeID)
}

func (r *Repository) FindDueEntries(ctx context.Context, now time.Time) ([]*simplecms.ContentEntry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM content_entries
		WHERE status = 'SCHEDULED' AND scheduled_at IS NOT NULL AND scheduled_at <= $1
		ORDER BY scheduled_at, seq`, now)
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*simplecms.ContentEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("query entries", err)
	}
	defer rows.Close()

	entries := []*simplecms.ContentEntry{}
	byID := make(map[uuid.UUID]*simplecms.ContentEntry)
	var ids []uuid.UUID
	for rows.Next() {
		var e simplecms.ContentEntry
		var status string
		if err := rows.Scan(&e.ID, &e.ContentTypeID, &e.Slug, &status, &e.PublishedAt,
			&e.ScheduledAt, &e.AuthorID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Status = simplecms.EntryStatus(status)
		e.FieldValues = []*simplecms.ContentFieldValue{}
		entries = append(entries, &e)
		byID[e.ID] = &e
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return entries, nil
	}

	vrows, err := r.db.Query(ctx, `
		SELECT id, entry_id, field_id, value FROM content_field_values
		WHERE entry_id = ANY($1) ORDER BY entry_id, position`, ids)
	if err != nil {
		return nil, r.handlePostgresError("load field values", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var v simplecms.ContentFieldValue
		if err := vrows.Scan(&v.ID, &v.EntryID, &v.FieldID, &v.Value); err != nil {
			return nil, err
		}
		if e, ok := byID[v.EntryID]; ok {
			e.FieldValues = append(e.FieldValues, &v)
		}
	}
	return entries, vrows.Err()
}

func (r *Repository) UpdateEntry(ctx context.Context, entry *simplecms.ContentEntry) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE content_entries SET slug = $2, status = $3, published_at = $4,
				scheduled_at = $5, author_id = $6, updated_at = $7
			WHERE id = $1`,
			entry.ID, entry.Slug, string(entry.Status), entry.PublishedAt,
			entry.ScheduledAt, entry.AuthorID, entry.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return simplecms.ErrEntryNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM content_field_values WHERE entry_id = $1`, entry.ID); err != nil {
			return err
		}
		return insertValues(ctx, tx, entry)
	})
	if errors.Is(err, simplecms.ErrEntryNotFound) {
		return err
	}
	if err != nil {
		return r.handlePostgresError("update entry", err)
	}
	return nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_entries WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete entry", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecms.ErrEntryNotFound
	}
	return nil
}

func (r *Repository) DeleteEntriesByContentType(ctx context.Context, contentTypeID uuid.UUID) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_entries WHERE content_type_id = $1`, contentTypeID)
	if err != nil {
		return 0, r.handlePostgresError("delete entries", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) EntrySlugExists(ctx context.Context, contentTypeID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM content_entries
			WHERE content_type_id = $1 AND slug = $2 AND id <> $3
		)`, contentTypeID, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, r.handlePostgresError("check entry slug", err)
	}
	return exists, nil
}

func (r *Repository) FieldValueExists(ctx context.Context, contentTypeID, fieldID uuid.UUID, value string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM content_field_values v
			JOIN content_entries e ON e.id = v.entry_id
			WHERE e.content_type_id = $1 AND v.field_id = $2 AND v.value = $3 AND e.id <> $4
		)`, contentTypeID, fieldID, value, excludeID).Scan(&exists)
	if err != nil {
		return false, r.handlePostgresError("check unique value", err)
	}
	return exists, nil
}

var _ simplecms.Repository = (*Repository)(nil)
