package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
)

func TestSinkCountsServiceEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewSink(reg)
	require.NoError(t, err)

	svc, err := simplecms.New(
		simplecms.WithRepository(memory.New()),
		simplecms.WithEventSink(sink),
	)
	require.NoError(t, err)
	ctx := context.Background()

	ct, err := svc.CreateContentType(ctx, simplecms.CreateContentTypeRequest{
		Name:   "page",
		Fields: []simplecms.FieldInput{{Name: "title", FieldType: simplecms.FieldText}},
	})
	require.NoError(t, err)

	entry, err := svc.CreateEntry(ctx, simplecms.CreateEntryRequest{ContentTypeID: ct.ID})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Archive(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.DeleteEntry(ctx, entry.ID)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.contentTypes.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.entries.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.entries.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.entries.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.transitions.WithLabelValues("DRAFT", "PUBLISHED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.transitions.WithLabelValues("PUBLISHED", "ARCHIVED")))
}

func TestNewSink_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSink(reg)
	require.NoError(t, err)

	_, err = NewSink(reg)
	assert.Error(t, err)
}
