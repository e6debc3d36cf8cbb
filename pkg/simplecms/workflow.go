package simplecms

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Workflow operations. Every transition is allowed from any state unless
// ARCHIVED is configured as terminal.

func (s *service) Publish(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	now := s.now()
	return s.transition(ctx, id, "publish", UpdateEntryRequest{
		Status:      Some(StatusPublished),
		PublishedAt: Some(&now),
		ScheduledAt: Some[*time.Time](nil),
	})
}

func (s *service) PublishIfDue(ctx context.Context, id uuid.UUID, now time.Time) (*ContentEntry, error) {
	publishedAt := s.now()
	req := UpdateEntryRequest{
		ID:          id,
		Status:      Some(StatusPublished),
		PublishedAt: Some(&publishedAt),
		ScheduledAt: Some[*time.Time](nil),
	}
	return s.update(ctx, req, func(current *ContentEntry) error {
		if current.Status != StatusScheduled || current.ScheduledAt == nil || current.ScheduledAt.After(now) {
			return ErrNotDue
		}
		return s.canTransition(current.Status, StatusPublished, "publish")
	})
}

func (s *service) Unpublish(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	return s.transition(ctx, id, "unpublish", UpdateEntryRequest{
		Status:      Some(StatusDraft),
		PublishedAt: Some[*time.Time](nil),
	})
}

func (s *service) Schedule(ctx context.Context, id uuid.UUID, when time.Time) (*ContentEntry, error) {
	when = when.UTC()
	return s.transition(ctx, id, "schedule", UpdateEntryRequest{
		Status:      Some(StatusScheduled),
		ScheduledAt: Some(&when),
	})
}

func (s *service) Unschedule(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	return s.transition(ctx, id, "unschedule", UpdateEntryRequest{
		Status:      Some(StatusDraft),
		ScheduledAt: Some[*time.Time](nil),
	})
}

func (s *service) Archive(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	return s.transition(ctx, id, "archive", UpdateEntryRequest{
		Status: Some(StatusArchived),
	})
}

func (s *service) transition(ctx context.Context, id uuid.UUID, action string, req UpdateEntryRequest) (*ContentEntry, error) {
	req.ID = id
	return s.update(ctx, req, func(current *ContentEntry) error {
		return s.canTransition(current.Status, req.Status.Value, action)
	})
}

func (s *service) canTransition(from, to EntryStatus, action string) error {
	if s.archiveFinal && from == StatusArchived && to != StatusArchived {
		return fmt.Errorf("%w: cannot %s an archived entry", ErrInvalidTransition, action)
	}
	return nil
}
