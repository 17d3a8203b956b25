package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus enumerates the lifecycle states of a batch.
type BatchStatus string

const (
	BatchStatusRunning             BatchStatus = "running"
	BatchStatusCompleted           BatchStatus = "completed"
	BatchStatusCompletedWithErrors BatchStatus = "completed_with_errors"
	BatchStatusFailed              BatchStatus = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusCompletedWithErrors, BatchStatusFailed:
		return true
	default:
		return false
	}
}

// OutcomeStatus mirrors the per-slide status exposed to clients.
type OutcomeStatus string

const (
	OutcomeDone  OutcomeStatus = "done"
	OutcomeError OutcomeStatus = "error"
)

// ErrorClass tags why a slide failed.
type ErrorClass string

const (
	ErrorClassService  ErrorClass = "ServiceError"
	ErrorClassInternal ErrorClass = "InternalError"
)

// Outcome is the settled result of rendering one slide.
type Outcome struct {
	SlideID        string        `json:"slide_id"`
	PageNum        int           `json:"page_num"`
	Title          string        `json:"title"`
	Status         OutcomeStatus `json:"status"`
	ImageURL       string        `json:"image_url,omitempty"`
	FinalPrompt    string        `json:"final_prompt,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	ErrorClass     ErrorClass    `json:"error_class,omitempty"`
	GenerationTime float64       `json:"generation_time"`
}

// Succeeded reports whether the outcome carries an asset.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeDone
}

// Snapshot is a point-in-time copy of a batch's observable state.
type Snapshot struct {
	BatchID                uuid.UUID   `json:"batch_id"`
	Status                 BatchStatus `json:"status"`
	Progress               float64     `json:"progress"`
	TotalSlides            int         `json:"total_slides"`
	CompletedSlides        int         `json:"completed_slides"`
	Successful             int         `json:"successful"`
	Failed                 int         `json:"failed"`
	Workers                int         `json:"max_workers"`
	AspectRatio            string      `json:"aspect_ratio"`
	EstimatedRemainingTime *float64    `json:"estimated_remaining_time,omitempty"`
	StartedAt              time.Time   `json:"started_at"`
	FinishedAt             *time.Time  `json:"finished_at,omitempty"`
	Results                []Outcome   `json:"results"`
}

// SuccessRate returns the share of successful slides as a percentage.
func (s Snapshot) SuccessRate() float64 {
	if s.TotalSlides == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.TotalSlides) * 100
}
