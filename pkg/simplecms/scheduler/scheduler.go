// Package scheduler promotes SCHEDULED entries to PUBLISHED once their
// scheduledAt has passed.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Workflow is the subset of simplecms.Service the promoter needs.
type Workflow interface {
	FindDue(ctx context.Context, now time.Time) ([]*simplecms.ContentEntry, error)
	PublishIfDue(ctx context.Context, id uuid.UUID, now time.Time) (*simplecms.ContentEntry, error)
}

// Result summarizes one promotion pass.
type Result struct {
	Promoted []uuid.UUID
	Skipped  int
	Failed   int
}

// Promoter periodically publishes due entries.
type Promoter struct {
	workflow Workflow
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// Option configures a Promoter.
type Option func(*Promoter)

// WithLogger sets the promoter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Promoter) {
		p.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Promoter) {
		p.now = now
	}
}

// NewPromoter creates a promoter that runs every interval once started.
func NewPromoter(workflow Workflow, interval time.Duration, opts ...Option) *Promoter {
	p := &Promoter{
		workflow: workflow,
		interval: interval,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "scheduler")
	return p
}

// Start launches the background loop. It is a no-op if already running or
// if the interval is not positive.
func (p *Promoter) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning || p.interval <= 0 {
		return
	}
	p.isRunning = true
	p.stopCh = make(chan struct{})

	p.wg.Add(1)
	go p.loop(ctx, p.stopCh)

	p.logger.Info("Scheduler started", "interval", p.interval)
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (p *Promoter) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Scheduler stopped")
}

func (p *Promoter) loop(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.Error("Failed to find due entries", "error", err)
			}
		}
	}
}

// RunOnce publishes every entry due at the current time. Failures on single
// entries are logged and counted; only a failed lookup returns an error.
func (p *Promoter) RunOnce(ctx context.Context) (Result, error) {
	var result Result
	now := p.now()

	due, err := p.workflow.FindDue(ctx, now)
	if err != nil {
		return result, err
	}

	for _, entry := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		// The entry may have been rescheduled or deleted since FindDue ran.
		_, err := p.workflow.PublishIfDue(ctx, entry.ID, now)
		switch {
		case errors.Is(err, simplecms.ErrNotDue), errors.Is(err, simplecms.ErrEntryNotFound):
			result.Skipped++
			continue
		case err != nil:
			p.logger.Warn("Failed to publish due entry", "entry_id", entry.ID, "error", err)
			result.Failed++
			continue
		}
		p.logger.Info("Published due entry", "entry_id", entry.ID, "scheduled_at", entry.ScheduledAt)
		result.Promoted = append(result.Promoted, entry.ID)
	}
	return result, nil
}
