package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slideflow/internal/batch"
	"slideflow/internal/domain"
	"slideflow/internal/middleware"
)

type slidePayload struct {
	ID          string           `json:"id"`
	PageNum     int              `json:"page_num"`
	Type        domain.SlideType `json:"type"`
	Title       string           `json:"title"`
	ContentText string           `json:"content_text"`
	VisualDesc  string           `json:"visual_desc"`
}

type batchRequest struct {
	Slides      []slidePayload `json:"slides"`
	StylePrompt string         `json:"style_prompt"`
	AspectRatio string         `json:"aspect_ratio"`
	TextLocale  string         `json:"text_locale"`
	MaxWorkers  int            `json:"max_workers"`
}

type batchIDRequest struct {
	BatchID string `json:"batch_id"`
}

type batchGenerateResponse struct {
	BatchID     uuid.UUID          `json:"batch_id"`
	Status      domain.BatchStatus `json:"status"`
	TotalSlides int                `json:"total_slides"`
	Successful  int                `json:"successful"`
	Failed      int                `json:"failed"`
	TotalTime   float64            `json:"total_time"`
	SuccessRate float64            `json:"success_rate"`
	Results     []domain.Outcome   `json:"results"`
}

func (a *App) submitRequest(r *http.Request, body batchRequest) batch.SubmitRequest {
	slides := make([]domain.Slide, len(body.Slides))
	for i, s := range body.Slides {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			id = uuid.NewString()
		}
		slides[i] = domain.Slide{
			ID:          id,
			PageNum:     s.PageNum,
			Type:        s.Type,
			Title:       s.Title,
			ContentText: s.ContentText,
			VisualDesc:  s.VisualDesc,
		}
	}
	locale := body.TextLocale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	return batch.SubmitRequest{
		Slides:      slides,
		StylePrompt: body.StylePrompt,
		AspectRatio: body.AspectRatio,
		TextLocale:  locale,
		MaxWorkers:  body.MaxWorkers,
	}
}

// SubmitBatch registers a batch and returns its id without waiting.
func (a *App) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if !a.decode(w, r, &body) {
		return
	}
	id, err := a.Batches.Submit(r.Context(), a.submitRequest(r, body))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{"batch_id": id, "status": domain.BatchStatusRunning})
}

// GenerateBatch submits a batch and holds the request until it finishes or
// the wait timeout elapses. A timeout returns the running snapshot.
func (a *App) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if !a.decode(w, r, &body) {
		return
	}
	start := time.Now()
	id, err := a.Batches.Submit(r.Context(), a.submitRequest(r, body))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.WaitTimeout)
	defer cancel()
	snap, err := a.Batches.Wait(ctx, id)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		a.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		a.Logger.Warn().Err(err).Str("batch_id", id.String()).Msg("batch: wait ended before completion")
		status = http.StatusAccepted
	}

	a.json(w, status, batchGenerateResponse{
		BatchID:     snap.BatchID,
		Status:      snap.Status,
		TotalSlides: snap.TotalSlides,
		Successful:  snap.Successful,
		Failed:      snap.Failed,
		TotalTime:   time.Since(start).Seconds(),
		SuccessRate: snap.SuccessRate(),
		Results:     snap.Results,
	})
}

// BatchStatusByBody serves POST /slide/batch/status.
func (a *App) BatchStatusByBody(w http.ResponseWriter, r *http.Request) {
	var body batchIDRequest
	if !a.decode(w, r, &body) {
		return
	}
	a.writeStatus(w, r, body.BatchID)
}

// BatchStatus serves GET /slide/batch/{id}.
func (a *App) BatchStatus(w http.ResponseWriter, r *http.Request) {
	a.writeStatus(w, r, chi.URLParam(r, "id"))
}

func (a *App) writeStatus(w http.ResponseWriter, r *http.Request, raw string) {
	id, ok := a.parseBatchID(w, raw)
	if !ok {
		return
	}
	snap, err := a.Batches.Status(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

// BatchResults serves GET /slide/batch/{id}/results.
func (a *App) BatchResults(w http.ResponseWriter, r *http.Request) {
	id, ok := a.parseBatchID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	results, err := a.Batches.Results(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"batch_id": id, "results": results})
}

func (a *App) ActiveCount(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]int{"active_batches": a.Batches.ActiveCount()})
}

func (a *App) ValidateConfig(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, batch.ValidateLimits(a.Limits))
}

func (a *App) OptimalConfig(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("slides_count"))
	if err != nil || n < 1 {
		a.error(w, http.StatusBadRequest, "invalid_argument", "slides_count must be a positive integer")
		return
	}
	a.json(w, http.StatusOK, batch.Recommend(n, a.Limits.MaxWorkers))
}

// BatchHistory lists archived batches, newest first.
func (a *App) BatchHistory(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotImplemented, "archive_disabled", "batch archive is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := domain.BatchStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Terminal() {
		a.error(w, http.StatusBadRequest, "invalid_argument", "status must be a terminal batch status")
		return
	}
	items, err := a.History.Recent(r.Context(), limit, status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ArchivedBatch returns the archived snapshot of a batch that may already
// have been evicted from memory.
func (a *App) ArchivedBatch(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotImplemented, "archive_disabled", "batch archive is not configured")
		return
	}
	id, ok := a.parseBatchID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	snap, err := a.History.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) parseBatchID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "batch_id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}
