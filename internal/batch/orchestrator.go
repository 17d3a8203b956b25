package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"slideflow/internal/domain"
	"slideflow/internal/infra"
	"slideflow/internal/providers/image"
)

const archiveTimeout = 10 * time.Second

// Archiver receives the final snapshot of every batch that reaches a terminal
// status.
type Archiver interface {
	Archive(ctx context.Context, snap domain.Snapshot) error
}

// Options configures an Orchestrator.
type Options struct {
	// DefaultWorkers caps the pool size when a submission omits it.
	DefaultWorkers int
	// MaxWorkers is the ceiling a submission may request.
	MaxWorkers int
	// MaxConcurrent limits the number of running batches; zero disables the limit.
	MaxConcurrent int
	// DefaultTextLocale applies to submissions without a text locale.
	DefaultTextLocale string
	Archiver          Archiver
	Logger            *infra.Logger
	Now               func() time.Time
}

// SubmitRequest is a batch of slides sharing a style prompt and aspect ratio.
type SubmitRequest struct {
	Slides      []domain.Slide
	StylePrompt string
	AspectRatio string
	TextLocale  string
	// MaxWorkers is the requested pool size; zero selects the default.
	MaxWorkers int
}

// Orchestrator runs batches of slide jobs on bounded per-batch worker pools
// and keeps their state available for polling until evicted.
type Orchestrator struct {
	exec JobExecutor
	opts Options
	log  infra.Logger
	now  func() time.Time

	mu      sync.RWMutex
	batches map[uuid.UUID]*task

	wg sync.WaitGroup
}

// New creates an Orchestrator. Non-positive worker limits fall back to 5
// (default) and 20 (max).
func New(exec JobExecutor, opts Options) *Orchestrator {
	if opts.DefaultWorkers <= 0 {
		opts.DefaultWorkers = 5
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 20
	}
	if opts.DefaultWorkers > opts.MaxWorkers {
		opts.DefaultWorkers = opts.MaxWorkers
	}
	if strings.TrimSpace(opts.DefaultTextLocale) == "" {
		opts.DefaultTextLocale = image.DefaultTextLocale
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Orchestrator{
		exec:    exec,
		opts:    opts,
		log:     logger,
		now:     now,
		batches: make(map[uuid.UUID]*task),
	}
}

// Limits returns the effective worker limits.
func (o *Orchestrator) Limits() (defaultWorkers, maxWorkers int) {
	return o.opts.DefaultWorkers, o.opts.MaxWorkers
}

// Submit validates the request, registers a running batch and starts it in
// the background. It returns before any slide is rendered. The batch keeps
// running after ctx is canceled.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (uuid.UUID, error) {
	workers, err := o.validate(&req)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	t := newTask(id, req, workers, o.now())

	o.mu.Lock()
	if o.opts.MaxConcurrent > 0 && o.activeLocked() >= o.opts.MaxConcurrent {
		o.mu.Unlock()
		return uuid.Nil, fmt.Errorf("%d batches already running: %w", o.opts.MaxConcurrent, domain.ErrTooManyBatches)
	}
	o.batches[id] = t
	o.wg.Add(1)
	o.mu.Unlock()

	o.log.Info().
		Str("batch_id", id.String()).
		Int("total_slides", t.total()).
		Int("max_workers", workers).
		Str("aspect_ratio", t.aspectRatio).
		Msg("batch: submitted")

	go o.run(context.WithoutCancel(ctx), t)
	return id, nil
}

func (o *Orchestrator) validate(req *SubmitRequest) (int, error) {
	if len(req.Slides) == 0 {
		return 0, fmt.Errorf("slides must not be empty: %w", domain.ErrInvalidArgument)
	}
	if req.AspectRatio == "" {
		req.AspectRatio = domain.DefaultAspectRatio
	}
	if err := domain.ValidateAspectRatio(req.AspectRatio); err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(req.Slides))
	for _, s := range req.Slides {
		if err := s.Validate(); err != nil {
			return 0, err
		}
		if _, dup := seen[s.ID]; dup {
			return 0, fmt.Errorf("duplicate slide id %q: %w", s.ID, domain.ErrInvalidArgument)
		}
		seen[s.ID] = struct{}{}
	}
	if req.MaxWorkers < 0 {
		return 0, fmt.Errorf("max_workers must be positive: %w", domain.ErrInvalidArgument)
	}
	if req.MaxWorkers > o.opts.MaxWorkers {
		return 0, fmt.Errorf("max_workers %d exceeds maximum allowed %d: %w", req.MaxWorkers, o.opts.MaxWorkers, domain.ErrInvalidArgument)
	}
	if req.TextLocale == "" {
		req.TextLocale = o.opts.DefaultTextLocale
	}
	req.TextLocale = image.NormalizeLocale(req.TextLocale)

	workers := req.MaxWorkers
	if workers == 0 {
		workers = min(len(req.Slides), o.opts.DefaultWorkers)
	}
	return workers, nil
}

// run is the per-batch coordinator. The pool is bounded by the batch's worker
// count and is gone once Wait returns.
func (o *Orchestrator) run(ctx context.Context, t *task) {
	defer o.wg.Done()

	var g errgroup.Group
	g.SetLimit(t.workers)
	for _, slide := range t.slides {
		slide := slide // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			o.settle(t, o.runJob(ctx, t, slide))
			return nil
		})
	}
	_ = g.Wait()

	o.complete(t)
}

// runJob executes one slide and converts a panic into an InternalError
// outcome so the coordinator always gets exactly one outcome back.
func (o *Orchestrator) runJob(ctx context.Context, t *task, slide domain.Slide) (out domain.Outcome) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().
				Str("batch_id", t.id.String()).
				Str("slide_id", slide.ID).
				Interface("panic", r).
				Msg("batch: slide executor panicked")
			out = failedOutcome(slide, domain.ErrorClassInternal, fmt.Sprintf("internal error: %v", r), o.now().Sub(start))
		}
	}()

	out = o.exec.Execute(ctx, Job{
		Slide:       slide,
		StylePrompt: t.stylePrompt,
		AspectRatio: t.aspectRatio,
		TextLocale:  t.textLocale,
	})
	// Outcomes are correlated by slide identity, never by completion order.
	out.SlideID = slide.ID
	out.PageNum = slide.PageNum
	if out.Status != domain.OutcomeDone && out.Status != domain.OutcomeError {
		out.Status = domain.OutcomeError
	}
	if out.Status == domain.OutcomeError {
		if out.ErrorClass == "" {
			out.ErrorClass = domain.ErrorClassInternal
		}
		if out.ErrorMessage == "" {
			out.ErrorMessage = "unknown error"
		}
		out.ImageURL = ""
	}
	return out
}

func (o *Orchestrator) settle(t *task, out domain.Outcome) {
	o.mu.Lock()
	t.record(out)
	completed, total, progress := t.completed, t.total(), t.progress()
	o.mu.Unlock()

	o.log.Info().
		Str("batch_id", t.id.String()).
		Str("slide_id", out.SlideID).
		Int("page_num", out.PageNum).
		Str("status", string(out.Status)).
		Int("completed", completed).
		Int("total", total).
		Float64("progress", progress).
		Msg("batch: slide settled")
}

func (o *Orchestrator) complete(t *task) {
	now := o.now()
	o.mu.Lock()
	t.finish(now)
	snap := t.snapshot(now)
	close(t.done)
	o.mu.Unlock()

	o.log.Info().
		Str("batch_id", t.id.String()).
		Str("status", string(snap.Status)).
		Int("successful", snap.Successful).
		Int("failed", snap.Failed).
		Float64("success_rate", snap.SuccessRate()).
		Dur("total_time", now.Sub(t.startedAt)).
		Msg("batch: finished")

	if o.opts.Archiver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := o.opts.Archiver.Archive(ctx, snap); err != nil {
		o.log.Warn().Err(err).Str("batch_id", t.id.String()).Msg("batch: archive failed")
	}
}

// Status returns a snapshot of the batch without waiting on in-flight slides.
func (o *Orchestrator) Status(id uuid.UUID) (domain.Snapshot, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	t, ok := o.batches[id]
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	return t.snapshot(o.now()), nil
}

// Results returns a copy of the outcomes accumulated so far.
func (o *Orchestrator) Results(id uuid.UUID) ([]domain.Outcome, error) {
	snap, err := o.Status(id)
	if err != nil {
		return nil, err
	}
	return snap.Results, nil
}

// Wait blocks until the batch reaches a terminal status or ctx is done, and
// returns the latest snapshot either way.
func (o *Orchestrator) Wait(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	o.mu.RLock()
	t, ok := o.batches[id]
	o.mu.RUnlock()
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	select {
	case <-t.done:
	case <-ctx.Done():
		snap, err := o.Status(id)
		if err != nil {
			return snap, err
		}
		return snap, ctx.Err()
	}
	return o.Status(id)
}

// ActiveCount returns the number of batches still running.
func (o *Orchestrator) ActiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.activeLocked()
}

func (o *Orchestrator) activeLocked() int {
	n := 0
	for _, t := range o.batches {
		if t.status == domain.BatchStatusRunning {
			n++
		}
	}
	return n
}

// EvictStale drops terminal batches started more than maxAge ago and returns
// how many were removed. Running batches are never evicted.
func (o *Orchestrator) EvictStale(maxAge time.Duration) int {
	cutoff := o.now().Add(-maxAge)
	o.mu.Lock()
	var evicted []uuid.UUID
	for id, t := range o.batches {
		if t.status.Terminal() && t.startedAt.Before(cutoff) {
			delete(o.batches, id)
			evicted = append(evicted, id)
		}
	}
	o.mu.Unlock()

	for _, id := range evicted {
		o.log.Info().Str("batch_id", id.String()).Dur("max_age", maxAge).Msg("batch: evicted")
	}
	return len(evicted)
}

// RunJanitor evicts stale batches every interval until ctx is done.
func (o *Orchestrator) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.EvictStale(maxAge)
		}
	}
}

// Shutdown waits for running batches to finish or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("batch: shutdown: %d batches still running: %w", o.ActiveCount(), ctx.Err())
	}
}
