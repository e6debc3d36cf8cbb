package simplecms

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// LoggingEventSink writes one structured log line per lifecycle event.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by logger (slog.Default if nil).
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger.With("component", "events")}
}

func (l *LoggingEventSink) ContentTypeCreated(ctx context.Context, ct *ContentType) error {
	l.logger.InfoContext(ctx, "content_type.created", "content_type_id", ct.ID, "slug", ct.Slug, "fields", len(ct.Fields))
	return nil
}

func (l *LoggingEventSink) ContentTypeUpdated(ctx context.Context, ct *ContentType) error {
	l.logger.InfoContext(ctx, "content_type.updated", "content_type_id", ct.ID, "slug", ct.Slug, "fields", len(ct.Fields))
	return nil
}

func (l *LoggingEventSink) ContentTypeDeleted(ctx context.Context, id uuid.UUID) error {
	l.logger.InfoContext(ctx, "content_type.deleted", "content_type_id", id)
	return nil
}

func (l *LoggingEventSink) EntryCreated(ctx context.Context, entry *ContentEntry) error {
	l.logger.InfoContext(ctx, "entry.created", entryAttrs(entry)...)
	return nil
}

func (l *LoggingEventSink) EntryUpdated(ctx context.Context, entry *ContentEntry) error {
	l.logger.DebugContext(ctx, "entry.updated", entryAttrs(entry)...)
	return nil
}

func (l *LoggingEventSink) EntryDeleted(ctx context.Context, entry *ContentEntry) error {
	l.logger.InfoContext(ctx, "entry.deleted", entryAttrs(entry)...)
	return nil
}

func (l *LoggingEventSink) EntryStatusChanged(ctx context.Context, entry *ContentEntry, from, to EntryStatus) error {
	attrs := append(entryAttrs(entry), "from", from, "to", to)
	l.logger.InfoContext(ctx, "entry.status_changed", attrs...)
	return nil
}

func entryAttrs(entry *ContentEntry) []any {
	return []any{
		"entry_id", entry.ID,
		"content_type_id", entry.ContentTypeID,
		"slug", entry.Slug,
		"status", entry.Status,
	}
}

// MultiEventSink fans every event out to each sink in order. All sinks are
// called; their errors are joined.
type MultiEventSink []EventSink

// NewMultiEventSink combines sinks, skipping nil entries.
func NewMultiEventSink(sinks ...EventSink) EventSink {
	var m MultiEventSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m MultiEventSink) each(fn func(EventSink) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiEventSink) ContentTypeCreated(ctx context.Context, ct *ContentType) error {
	return m.each(func(s EventSink) error { return s.ContentTypeCreated(ctx, ct) })
}

func (m MultiEventSink) ContentTypeUpdated(ctx context.Context, ct *ContentType) error {
	return m.each(func(s EventSink) error { return s.ContentTypeUpdated(ctx, ct) })
}

func (m MultiEventSink) ContentTypeDeleted(ctx context.Context, id uuid.UUID) error {
	return m.each(func(s EventSink) error { return s.ContentTypeDeleted(ctx, id) })
}

func (m MultiEventSink) EntryCreated(ctx context.Context, entry *ContentEntry) error {
	return m.each(func(s EventSink) error { return s.EntryCreated(ctx, entry) })
}

func (m MultiEventSink) EntryUpdated(ctx context.Context, entry *ContentEntry) error {
	return m.each(func(s EventSink) error { return s.EntryUpdated(ctx, entry) })
}

func (m MultiEventSink) EntryDeleted(ctx context.Context, entry *ContentEntry) error {
	return m.each(func(s EventSink) error { return s.EntryDeleted(ctx, entry) })
}

func (m MultiEventSink) EntryStatusChanged(ctx context.Context, entry *ContentEntry, from, to EntryStatus) error {
	return m.each(func(s EventSink) error { return s.EntryStatusChanged(ctx, entry, from, to) })
}
