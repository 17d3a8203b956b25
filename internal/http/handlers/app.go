package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"slideflow/internal/batch"
	"slideflow/internal/domain"
	"slideflow/internal/infra"
)

// Batches is the orchestrator surface the handlers depend on.
type Batches interface {
	Submit(ctx context.Context, req batch.SubmitRequest) (uuid.UUID, error)
	Status(id uuid.UUID) (domain.Snapshot, error)
	Results(id uuid.UUID) ([]domain.Outcome, error)
	Wait(ctx context.Context, id uuid.UUID) (domain.Snapshot, error)
	ActiveCount() int
}

// History lists archived batches. It is nil when no database is configured.
type History interface {
	Recent(ctx context.Context, limit int, status domain.BatchStatus) ([]domain.BatchSummary, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Snapshot, error)
}

// AssetReader reads back stored slide images by their public URL.
type AssetReader interface {
	Open(ctx context.Context, url string) ([]byte, error)
}

type App struct {
	Batches     Batches
	Slides      batch.JobExecutor
	Assets      AssetReader
	History     History
	Limits      batch.Limits
	WaitTimeout time.Duration
	Logger      infra.Logger
}

// Options carries the App dependencies; nil History disables the archive
// endpoints.
type Options struct {
	Batches     Batches
	Slides      batch.JobExecutor
	Assets      AssetReader
	History     History
	Limits      batch.Limits
	WaitTimeout time.Duration
	Logger      *infra.Logger
}

func NewApp(opts Options) *App {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	wait := opts.WaitTimeout
	if wait <= 0 {
		wait = 5 * time.Minute
	}
	return &App{
		Batches:     opts.Batches,
		Slides:      opts.Slides,
		Assets:      opts.Assets,
		History:     opts.History,
		Limits:      opts.Limits,
		WaitTimeout: wait,
		Logger:      logger,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

// fail maps domain sentinels onto HTTP statuses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		a.error(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrTooManyBatches):
		a.error(w, http.StatusTooManyRequests, "too_many_batches", err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, "provider_failure", err.Error())
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("http: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	if err := dec.Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return false
	}
	return true
}
