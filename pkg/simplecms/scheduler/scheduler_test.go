package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (simplecms.Service, *simplecms.ContentType) {
	t.Helper()
	svc, err := simplecms.New(simplecms.WithRepository(memory.New()), simplecms.WithLogger(quiet()))
	require.NoError(t, err)
	ct, err := svc.CreateContentType(context.Background(), simplecms.CreateContentTypeRequest{
		Name:   "post",
		Fields: []simplecms.FieldInput{{Name: "title", FieldType: simplecms.FieldText}},
	})
	require.NoError(t, err)
	return svc, ct
}

func scheduled(t *testing.T, svc simplecms.Service, ct *simplecms.ContentType, at time.Time) *simplecms.ContentEntry {
	t.Helper()
	ctx := context.Background()
	e, err := svc.CreateEntry(ctx, simplecms.CreateEntryRequest{ContentTypeID: ct.ID})
	require.NoError(t, err)
	e, err = svc.Schedule(ctx, e.ID, at)
	require.NoError(t, err)
	return e
}

func TestRunOnce(t *testing.T) {
	svc, ct := setup(t)
	ctx := context.Background()

	past := scheduled(t, svc, ct, base.Add(-time.Minute))
	exact := scheduled(t, svc, ct, base)
	future := scheduled(t, svc, ct, base.Add(time.Minute))
	draft, err := svc.CreateEntry(ctx, simplecms.CreateEntryRequest{ContentTypeID: ct.ID})
	require.NoError(t, err)

	p := NewPromoter(svc, time.Minute, WithLogger(quiet()), WithClock(func() time.Time { return base }))
	result, err := p.RunOnce(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []uuid.UUID{past.ID, exact.ID}, result.Promoted)
	assert.Zero(t, result.Failed)

	for id, want := range map[uuid.UUID]simplecms.EntryStatus{
		past.ID:   simplecms.StatusPublished,
		exact.ID:  simplecms.StatusPublished,
		future.ID: simplecms.StatusScheduled,
		draft.ID:  simplecms.StatusDraft,
	} {
		got, err := svc.GetEntry(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}

	got, err := svc.GetEntry(ctx, past.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.PublishedAt)
	assert.Nil(t, got.ScheduledAt)

	// Nothing left to promote.
	result, err = p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Promoted)
}

type fakeWorkflow struct {
	due        []*simplecms.ContentEntry
	findErr    error
	publishErr error
	current    map[uuid.UUID]*simplecms.ContentEntry
	published  []uuid.UUID
}

func (f *fakeWorkflow) FindDue(ctx context.Context, now time.Time) ([]*simplecms.ContentEntry, error) {
	return f.due, f.findErr
}

func (f *fakeWorkflow) PublishIfDue(ctx context.Context, id uuid.UUID, now time.Time) (*simplecms.ContentEntry, error) {
	e, ok := f.current[id]
	if !ok {
		return nil, simplecms.ErrEntryNotFound
	}
	if e.Status != simplecms.StatusScheduled || e.ScheduledAt == nil || e.ScheduledAt.After(now) {
		return nil, simplecms.ErrNotDue
	}
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, id)
	return e, nil
}

func dueEntry(at time.Time) *simplecms.ContentEntry {
	return &simplecms.ContentEntry{ID: uuid.New(), Status: simplecms.StatusScheduled, ScheduledAt: &at}
}

func TestRunOnce_Errors(t *testing.T) {
	clock := WithClock(func() time.Time { return base })

	t.Run("lookup failure", func(t *testing.T) {
		wf := &fakeWorkflow{findErr: errors.New("db down")}
		_, err := NewPromoter(wf, time.Minute, WithLogger(quiet()), clock).RunOnce(context.Background())
		assert.Error(t, err)
	})

	t.Run("publish failure is counted", func(t *testing.T) {
		e := dueEntry(base.Add(-time.Second))
		wf := &fakeWorkflow{
			due:        []*simplecms.ContentEntry{e},
			current:    map[uuid.UUID]*simplecms.ContentEntry{e.ID: e},
			publishErr: errors.New("conflict"),
		}
		result, err := NewPromoter(wf, time.Minute, WithLogger(quiet()), clock).RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Empty(t, result.Promoted)
	})

	t.Run("rescheduled or deleted entries are skipped", func(t *testing.T) {
		moved := dueEntry(base.Add(-time.Second))
		gone := dueEntry(base.Add(-time.Second))
		wf := &fakeWorkflow{
			due: []*simplecms.ContentEntry{moved, gone},
			current: map[uuid.UUID]*simplecms.ContentEntry{
				moved.ID: dueEntry(base.Add(time.Hour)),
			},
		}
		result, err := NewPromoter(wf, time.Minute, WithLogger(quiet()), clock).RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, result.Skipped)
		assert.Empty(t, wf.published)
	})
}

// unschedulingWorkflow unschedules one entry right after the due lookup, as a
// concurrent editor would.
type unschedulingWorkflow struct {
	simplecms.Service
	target uuid.UUID
}

func (w *unschedulingWorkflow) FindDue(ctx context.Context, now time.Time) ([]*simplecms.ContentEntry, error) {
	due, err := w.Service.FindDue(ctx, now)
	if err != nil {
		return nil, err
	}
	if _, err := w.Service.Unschedule(ctx, w.target); err != nil {
		return nil, err
	}
	return due, nil
}

func TestRunOnce_EntryUnscheduledAfterLookup(t *testing.T) {
	svc, ct := setup(t)
	ctx := context.Background()
	kept := scheduled(t, svc, ct, base.Add(-time.Minute))
	pulled := scheduled(t, svc, ct, base.Add(-time.Minute))

	wf := &unschedulingWorkflow{Service: svc, target: pulled.ID}
	result, err := NewPromoter(wf, time.Minute, WithLogger(quiet()), WithClock(func() time.Time { return base })).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kept.ID}, result.Promoted)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)

	got, err := svc.GetEntry(ctx, pulled.ID)
	require.NoError(t, err)
	assert.Equal(t, simplecms.StatusDraft, got.Status)
	assert.Nil(t, got.PublishedAt)
}

func TestStartStop(t *testing.T) {
	svc, ct := setup(t)
	e := scheduled(t, svc, ct, time.Now().UTC().Add(-time.Second))

	p := NewPromoter(svc, 10*time.Millisecond, WithLogger(quiet()))
	p.Start(context.Background())
	p.Start(context.Background())

	assert.Eventually(t, func() bool {
		got, err := svc.GetEntry(context.Background(), e.ID)
		return err == nil && got.Status == simplecms.StatusPublished
	}, 2*time.Second, 10*time.Millisecond)

	p.Stop()
	p.Stop()
}

func TestStart_DisabledInterval(t *testing.T) {
	p := NewPromoter(&fakeWorkflow{}, 0, WithLogger(quiet()))
	p.Start(context.Background())
	assert.False(t, p.isRunning)
	p.Stop()
}
