package models

import "time"

// Insight sources.
const (
	InsightSourceGemini   = "gemini"
	InsightSourceFallback = "fallback"
)

// InsightSummary is a natural-language monthly summary with recommendations.
// Source records whether the text came from the model or the static fallback.
type InsightSummary struct {
	Month           string    `json:"month"` // "2025-08"
	Headline        string    `json:"headline"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	Source          string    `json:"source"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// AlertEvaluation summarises one alert evaluator run.
type AlertEvaluation struct {
	Evaluated int       `json:"evaluated"`
	Created   int       `json:"created"`
	Deduped   int       `json:"deduped"`
	RanAt     time.Time `json:"ran_at"`
}
