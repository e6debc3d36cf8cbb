package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc       simplecms.Service
	published *simplecms.ContentEntry
	due       *simplecms.ContentEntry
	later     *simplecms.ContentEntry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	svc, err := simplecms.New(simplecms.WithRepository(memory.New()))
	require.NoError(t, err)

	ct, err := svc.CreateContentType(ctx, simplecms.CreateContentTypeRequest{
		Name: "Recipe",
		Fields: []simplecms.FieldInput{
			{Name: "title", DisplayName: "Title", FieldType: simplecms.FieldText, Required: true},
		},
	})
	require.NoError(t, err)
	title := ct.FieldByName("title")

	create := func(value string) *simplecms.ContentEntry {
		e, err := svc.CreateEntry(ctx, simplecms.CreateEntryRequest{
			ContentTypeID: ct.ID,
			FieldValues:   []simplecms.FieldValueInput{{FieldID: title.ID, Value: value}},
		})
		require.NoError(t, err)
		return e
	}

	f := &fixture{svc: svc}
	f.published = create("Pancakes")
	_, err = svc.Publish(ctx, f.published.ID)
	require.NoError(t, err)

	f.due = create("Waffles")
	_, err = svc.Schedule(ctx, f.due.ID, now.Add(-time.Hour))
	require.NoError(t, err)

	f.later = create("Crepes")
	_, err = svc.Schedule(ctx, f.later.ID, now.Add(time.Hour))
	require.NoError(t, err)
	return f
}

func execute(t *testing.T, svc simplecms.Service, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{svc: svc, out: &out, now: func() time.Time { return now }}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTypesCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.svc, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "recipe")
	assert.Contains(t, out, "title:TEXT*")

	out, err = execute(t, f.svc, "types", "--json")
	require.NoError(t, err)
	var types []simplecms.ContentType
	require.NoError(t, json.Unmarshal([]byte(out), &types))
	require.Len(t, types, 1)
	assert.Equal(t, "Recipe", types[0].Name)
}

func TestEntriesCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.svc, "entries", "recipe")
	require.NoError(t, err)
	assert.Contains(t, out, "pancakes")
	assert.Contains(t, out, "Total: 3")

	out, err = execute(t, f.svc, "entries", "recipe", "--status", "scheduled", "--json")
	require.NoError(t, err)
	var entries []entryView
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 2)
	assert.Equal(t, "Waffles", entries[0].Fields["title"])

	out, err = execute(t, f.svc, "entries", "recipe", "--search", "CREP")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 1")

	_, err = execute(t, f.svc, "entries", "missing")
	assert.ErrorIs(t, err, simplecms.ErrContentTypeNotFound)

	_, err = execute(t, f.svc, "entries", "recipe", "--status", "LIVE")
	assert.ErrorIs(t, err, simplecms.ErrInvalidStatus)

	_, err = execute(t, f.svc, "entries")
	assert.Error(t, err)
}

func TestDueAndPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := execute(t, f.svc, "due")
	require.NoError(t, err)
	assert.Contains(t, out, f.due.ID.String())
	assert.NotContains(t, out, f.later.ID.String())

	out, err = execute(t, f.svc, "due", "--at", now.Add(2*time.Hour).Format(time.RFC3339))
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2")

	_, err = execute(t, f.svc, "due", "--at", "soon")
	assert.Error(t, err)

	out, err = execute(t, f.svc, "promote-due")
	require.NoError(t, err)
	assert.Contains(t, out, "Promoted 1 entries")

	got, err := f.svc.GetEntry(ctx, f.due.ID)
	require.NoError(t, err)
	assert.Equal(t, simplecms.StatusPublished, got.Status)

	got, err = f.svc.GetEntry(ctx, f.later.ID)
	require.NoError(t, err)
	assert.Equal(t, simplecms.StatusScheduled, got.Status)
}

func TestEnvCommand(t *testing.T) {
	out, err := execute(t, nil, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "JWT_SECRET")
}
