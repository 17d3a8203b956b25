package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slideflow/internal/domain"
	"slideflow/internal/infra"
	"slideflow/internal/providers/image"
)

// Renderer produces encoded image bytes for a prompt at the given size.
type Renderer interface {
	RenderImage(ctx context.Context, prompt string, width, height int) ([]byte, string, error)
}

// AssetStore persists a rendered slide and returns a retrievable reference.
type AssetStore interface {
	Put(ctx context.Context, data []byte, mime string, pageNum int) (string, error)
}

// Job is a slide plus the batch-wide inputs it is rendered with.
type Job struct {
	Slide       domain.Slide
	StylePrompt string
	AspectRatio string
	TextLocale  string
}

// JobExecutor renders one job and always returns an outcome.
type JobExecutor interface {
	Execute(ctx context.Context, job Job) domain.Outcome
}

// Executor renders single slides: prompt composition, image rendering and
// asset persistence.
type Executor struct {
	renderer Renderer
	store    AssetStore
	logger   infra.Logger
	now      func() time.Time
}

// NewExecutor wires an executor around a shared renderer and asset store.
func NewExecutor(renderer Renderer, store AssetStore, logger infra.Logger) *Executor {
	return &Executor{renderer: renderer, store: store, logger: logger, now: time.Now}
}

// Execute renders the job. Failures are returned as error outcomes classified
// as ServiceError (remote image call) or InternalError (anything else).
func (e *Executor) Execute(ctx context.Context, job Job) domain.Outcome {
	start := e.now()
	slide := job.Slide

	prompt := image.ComposePrompt(image.PromptInput{
		Style:       job.StylePrompt,
		VisualDesc:  slide.VisualDesc,
		Title:       slide.Title,
		ContentText: slide.ContentText,
		AspectRatio: job.AspectRatio,
		TextLocale:  job.TextLocale,
	})
	width, height := image.Dimensions(job.AspectRatio)

	data, mime, err := e.renderer.RenderImage(ctx, prompt, width, height)
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("empty image payload: %w", domain.ErrProviderFailure)
	}
	if err != nil {
		return e.fail(slide, prompt, classify(err), err, start)
	}

	url, err := e.store.Put(ctx, data, mime, slide.PageNum)
	if err != nil {
		return e.fail(slide, prompt, domain.ErrorClassInternal, fmt.Errorf("persist asset: %w", err), start)
	}

	elapsed := e.now().Sub(start)
	e.logger.Debug().
		Str("slide_id", slide.ID).
		Int("page_num", slide.PageNum).
		Str("image_url", url).
		Dur("elapsed", elapsed).
		Msg("batch: slide rendered")

	return domain.Outcome{
		SlideID:        slide.ID,
		PageNum:        slide.PageNum,
		Title:          slide.Title,
		Status:         domain.OutcomeDone,
		ImageURL:       url,
		FinalPrompt:    prompt,
		GenerationTime: elapsed.Seconds(),
	}
}

func (e *Executor) fail(slide domain.Slide, prompt string, class domain.ErrorClass, err error, start time.Time) domain.Outcome {
	elapsed := e.now().Sub(start)
	e.logger.Warn().
		Err(err).
		Str("slide_id", slide.ID).
		Int("page_num", slide.PageNum).
		Str("error_class", string(class)).
		Msg("batch: slide failed")
	out := failedOutcome(slide, class, err.Error(), elapsed)
	out.FinalPrompt = prompt
	return out
}

func classify(err error) domain.ErrorClass {
	if errors.Is(err, domain.ErrProviderFailure) {
		return domain.ErrorClassService
	}
	return domain.ErrorClassInternal
}

func failedOutcome(slide domain.Slide, class domain.ErrorClass, msg string, elapsed time.Duration) domain.Outcome {
	if msg == "" {
		msg = "unknown error"
	}
	return domain.Outcome{
		SlideID:        slide.ID,
		PageNum:        slide.PageNum,
		Title:          slide.Title,
		Status:         domain.OutcomeError,
		ErrorMessage:   msg,
		ErrorClass:     class,
		GenerationTime: elapsed.Seconds(),
	}
}
