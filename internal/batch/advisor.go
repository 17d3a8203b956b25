package batch

import (
	"fmt"
	"time"
)

// avgSecondsPerSlide is the observed average render time of one slide image.
const avgSecondsPerSlide = 20

// Limits mirrors the batch settings an operator can configure.
type Limits struct {
	DefaultWorkers int `json:"batch_default_workers"`
	MaxWorkers     int `json:"batch_max_workers"`
	MaxConcurrent  int `json:"batch_max_concurrent"`
	CleanupHours   int `json:"batch_cleanup_hours"`
}

// ConfigReport is the outcome of ValidateLimits.
type ConfigReport struct {
	Valid           bool     `json:"valid"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Current         Limits   `json:"current_config"`
}

// Recommendation suggests a pool size for a deck of a given length.
type Recommendation struct {
	SlidesCount            int      `json:"slides_count"`
	RecommendedWorkers     int      `json:"recommended_workers"`
	EstimatedTimeSeconds   float64  `json:"estimated_time_seconds"`
	EstimatedTimeFormatted string   `json:"estimated_time_formatted"`
	MaxPossibleWorkers     int      `json:"max_possible_workers"`
	PerformanceNotes       []string `json:"performance_notes"`
}

// ValidateLimits reports hard configuration errors and soft advice.
func ValidateLimits(l Limits) ConfigReport {
	report := ConfigReport{Issues: []string{}, Recommendations: []string{}, Current: l}

	if l.DefaultWorkers > l.MaxWorkers {
		report.Issues = append(report.Issues,
			fmt.Sprintf("default workers (%d) must not exceed max workers (%d)", l.DefaultWorkers, l.MaxWorkers))
	}
	if l.MaxWorkers > 100 {
		report.Recommendations = append(report.Recommendations,
			"max workers is above 100; watch provider rate limits and server resources")
	}
	if l.MaxConcurrent > 50 {
		report.Recommendations = append(report.Recommendations,
			"more than 50 concurrent batches; watch memory usage")
	}
	if l.MaxWorkers > 50 {
		report.Recommendations = append(report.Recommendations,
			"confirm the provider's concurrency limit before running more than 50 workers")
	}
	if l.DefaultWorkers < 3 {
		report.Recommendations = append(report.Recommendations,
			"default workers below 3; 5-10 usually gives better throughput")
	}

	report.Valid = len(report.Issues) == 0
	return report
}

// Recommend picks a worker count for slidesCount slides, bounded by maxWorkers.
func Recommend(slidesCount, maxWorkers int) Recommendation {
	var workers int
	switch {
	case slidesCount <= 3:
		workers = min(slidesCount, 3)
	case slidesCount <= 10:
		workers = 5
	case slidesCount <= 20:
		workers = 10
	case slidesCount <= 50:
		workers = 15
	default:
		workers = min(20, maxWorkers)
	}
	workers = max(1, min(workers, maxWorkers))

	estimate := float64(slidesCount) / float64(workers) * avgSecondsPerSlide
	return Recommendation{
		SlidesCount:            slidesCount,
		RecommendedWorkers:     workers,
		EstimatedTimeSeconds:   estimate,
		EstimatedTimeFormatted: formatDuration(estimate),
		MaxPossibleWorkers:     maxWorkers,
		PerformanceNotes:       performanceNotes(slidesCount, workers),
	}
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fmin", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

func performanceNotes(slides, workers int) []string {
	notes := []string{}
	if slides > 20 && workers < 10 {
		notes = append(notes, "many slides; raising the worker count would speed this up")
	}
	if workers > 15 {
		notes = append(notes, "high concurrency may hit provider rate limits; monitor the error rate")
	}
	if slides < 5 && workers > 5 {
		notes = append(notes, "few slides; extra workers will not help much")
	}
	if slides > 50 {
		notes = append(notes, "consider splitting large decks into several batches")
	}
	return notes
}
