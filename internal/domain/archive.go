package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchSummary is the archived record of a finished batch without its
// per-slide results.
type BatchSummary struct {
	BatchID     uuid.UUID   `json:"batch_id"`
	Status      BatchStatus `json:"status"`
	TotalSlides int         `json:"total_slides"`
	Successful  int         `json:"successful"`
	Failed      int         `json:"failed"`
	Workers     int         `json:"max_workers"`
	AspectRatio string      `json:"aspect_ratio"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	ArchivedAt  time.Time   `json:"archived_at"`
}
