package simplecms

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository   Repository
	eventSink    EventSink
	logger       *slog.Logger
	now          func() time.Time
	deletePolicy DeletePolicy
	strictFields bool
	archiveFinal bool

	// typesMu serializes content type writes so the global slug check and
	// the insert happen atomically.
	typesMu sync.Mutex

	locksMu    sync.Mutex
	entryLocks map[uuid.UUID]*sync.RWMutex
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for non-fatal failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithDeletePolicy sets what happens to entries when their content type is deleted
func WithDeletePolicy(p DeletePolicy) Option {
	return func(s *service) {
		s.deletePolicy = p
	}
}

// WithStrictFieldTypes enables per-type format checks and option lists on entry writes
func WithStrictFieldTypes(strict bool) Option {
	return func(s *service) {
		s.strictFields = strict
	}
}

// WithArchivedTerminal makes ARCHIVED a final state
func WithArchivedTerminal(terminal bool) Option {
	return func(s *service) {
		s.archiveFinal = terminal
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink:    NewNoopEventSink(),
		logger:       slog.Default(),
		now:          func() time.Time { return time.Now().UTC() },
		deletePolicy: DeleteOrphan,
		entryLocks:   make(map[uuid.UUID]*sync.RWMutex),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if !s.deletePolicy.IsValid() {
		return nil, fmt.Errorf("unknown delete policy %q", s.deletePolicy)
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}

	return s, nil
}

// typeLock returns the lock guarding the entry collection of one content type.
func (s *service) typeLock(contentTypeID uuid.UUID) *sync.RWMutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.entryLocks[contentTypeID]
	if !ok {
		l = &sync.RWMutex{}
		s.entryLocks[contentTypeID] = l
	}
	return l
}

func (s *service) dropTypeLock(contentTypeID uuid.UUID) {
	s.locksMu.Lock()
	delete(s.entryLocks, contentTypeID)
	s.locksMu.Unlock()
}

// notify logs sink failures; events never fail the write that produced them.
func (s *service) notify(ctx context.Context, event string, err error) {
	if err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", event, "error", err)
	}
}
