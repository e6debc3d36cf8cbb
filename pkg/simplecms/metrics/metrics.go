// Package metrics exposes content lifecycle events as Prometheus counters.
package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

const namespace = "simplecms"

// Sink is a simplecms.EventSink that counts events.
type Sink struct {
	contentTypes *prometheus.CounterVec
	entries      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

// NewSink creates the counters and registers them with reg.
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		contentTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_type_events_total",
			Help:      "Content type lifecycle events by action.",
		}, []string{"action"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_events_total",
			Help:      "Entry lifecycle events by action.",
		}, []string{"action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_status_transitions_total",
			Help:      "Entry workflow transitions by source and target status.",
		}, []string{"from", "to"}),
	}

	for _, c := range []prometheus.Collector{s.contentTypes, s.entries, s.transitions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Sink) ContentTypeCreated(ctx context.Context, ct *simplecms.ContentType) error {
	s.contentTypes.WithLabelValues("created").Inc()
	return nil
}

func (s *Sink) ContentTypeUpdated(ctx context.Context, ct *simplecms.ContentType) error {
	s.contentTypes.WithLabelValues("updated").Inc()
	return nil
}

func (s *Sink) ContentTypeDeleted(ctx context.Context, id uuid.UUID) error {
	s.contentTypes.WithLabelValues("deleted").Inc()
	return nil
}

func (s *Sink) EntryCreated(ctx context.Context, entry *simplecms.ContentEntry) error {
	s.entries.WithLabelValues("created").Inc()
	return nil
}

func (s *Sink) EntryUpdated(ctx context.Context, entry *simplecms.ContentEntry) error {
	s.entries.WithLabelValues("updated").Inc()
	return nil
}

func (s *Sink) EntryDeleted(ctx context.Context, entry *simplecms.ContentEntry) error {
	s.entries.WithLabelValues("deleted").Inc()
	return nil
}

func (s *Sink) EntryStatusChanged(ctx context.Context, entry *simplecms.ContentEntry, from, to simplecms.EntryStatus) error {
	s.transitions.WithLabelValues(string(from), string(to)).Inc()
	return nil
}

var _ simplecms.EventSink = (*Sink)(nil)
