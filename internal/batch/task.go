package batch

import (
	"time"

	"github.com/google/uuid"

	"slideflow/internal/domain"
)

// task is the mutable state of one submitted batch. It performs no locking of
// its own; every access goes through the Orchestrator's mutex.
type task struct {
	id          uuid.UUID
	slides      []domain.Slide
	stylePrompt string
	aspectRatio string
	textLocale  string
	workers     int
	startedAt   time.Time
	finishedAt  time.Time

	results   []domain.Outcome
	completed int
	succeeded int
	failed    int
	status    domain.BatchStatus

	done chan struct{}
}

func newTask(id uuid.UUID, req SubmitRequest, workers int, now time.Time) *task {
	slides := make([]domain.Slide, len(req.Slides))
	copy(slides, req.Slides)
	return &task{
		id:          id,
		slides:      slides,
		stylePrompt: req.StylePrompt,
		aspectRatio: req.AspectRatio,
		textLocale:  req.TextLocale,
		workers:     workers,
		startedAt:   now,
		results:     make([]domain.Outcome, 0, len(slides)),
		status:      domain.BatchStatusRunning,
		done:        make(chan struct{}),
	}
}

func (t *task) total() int {
	return len(t.slides)
}

func (t *task) progress() float64 {
	if len(t.slides) == 0 {
		return 0
	}
	return float64(t.completed) / float64(len(t.slides))
}

// record appends one settled outcome and bumps the counters together.
func (t *task) record(out domain.Outcome) {
	if t.status.Terminal() || t.completed >= len(t.slides) {
		return
	}
	t.results = append(t.results, out)
	t.completed++
	if out.Succeeded() {
		t.succeeded++
	} else {
		t.failed++
	}
}

// finish computes the terminal status once every slide has settled.
func (t *task) finish(now time.Time) {
	if t.status.Terminal() {
		return
	}
	switch {
	case t.failed == 0:
		t.status = domain.BatchStatusCompleted
	case t.succeeded > 0:
		t.status = domain.BatchStatusCompletedWithErrors
	default:
		t.status = domain.BatchStatusFailed
	}
	t.finishedAt = now
}

func (t *task) snapshot(now time.Time) domain.Snapshot {
	results := make([]domain.Outcome, len(t.results))
	copy(results, t.results)
	snap := domain.Snapshot{
		BatchID:         t.id,
		Status:          t.status,
		Progress:        t.progress(),
		TotalSlides:     t.total(),
		CompletedSlides: t.completed,
		Successful:      t.succeeded,
		Failed:          t.failed,
		Workers:         t.workers,
		AspectRatio:     t.aspectRatio,
		StartedAt:       t.startedAt,
		Results:         results,
	}
	if t.status == domain.BatchStatusRunning && t.completed > 0 {
		perSlide := now.Sub(t.startedAt).Seconds() / float64(t.completed)
		remaining := perSlide * float64(t.total()-t.completed)
		snap.EstimatedRemainingTime = &remaining
	}
	if !t.finishedAt.IsZero() {
		finished := t.finishedAt
		snap.FinishedAt = &finished
	}
	return snap
}
