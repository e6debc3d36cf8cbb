package simplecms

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ContentTypeCreated(ctx context.Context, ct *ContentType) error { return nil }
func (n *NoopEventSink) ContentTypeUpdated(ctx context.Context, ct *ContentType) error { return nil }
func (n *NoopEventSink) ContentTypeDeleted(ctx context.Context, id uuid.UUID) error    { return nil }
func (n *NoopEventSink) EntryCreated(ctx context.Context, entry *ContentEntry) error   { return nil }
func (n *NoopEventSink) EntryUpdated(ctx context.Context, entry *ContentEntry) error   { return nil }
func (n *NoopEventSink) EntryDeleted(ctx context.Context, entry *ContentEntry) error   { return nil }

func (n *NoopEventSink) EntryStatusChanged(ctx context.Context, entry *ContentEntry, from, to EntryStatus) error {
	return nil
}
