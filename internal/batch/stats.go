package batch

import (
	"log/slog"
	"time"
)

// Stats are the batch-level counters reported to the operator.
type Stats struct {
	RunID string `json:"run_id"`

	// Phase 1
	Total           int `json:"total"`
	Successful      int `json:"successful"`
	Failed          int `json:"failed"`
	SchemaWarnings  int `json:"schema_warnings"`
	LanguageInvalid int `json:"language_invalid"`
	SkippedConc     int `json:"skipped_conc"`
	DateFallbacks   int `json:"date_fallbacks"`

	// Phase 1.5
	RemovedDuplicates int `json:"removed_duplicates"`
	RemovedLanguage   int `json:"removed_language"`

	// Phase 2
	Escalated     int `json:"escalated"`
	Fixed         int `json:"fixed"`
	StillInvalid  int `json:"still_invalid"`
	FailedBatches int `json:"failed_batches"`

	MissingDates int `json:"missing_dates"`

	TransformTime time.Duration `json:"transform_time"`
	CleanupTime   time.Duration `json:"cleanup_time"`
	EscalateTime  time.Duration `json:"escalate_time"`
}

// Saved is the number of records written by phase 1.
func (s Stats) Saved() int {
	return s.Successful - s.SkippedConc
}

// Log writes the summary at Info.
func (s Stats) Log(logger *slog.Logger) {
	logger.Info("batch summary",
		"run_id", s.RunID,
		"total", s.Total,
		"successful", s.Successful,
		"failed", s.Failed,
		"skipped_conc", s.SkippedConc,
		"schema_warnings", s.SchemaWarnings,
		"invalid_before_escalation", s.LanguageInvalid,
		"date_fallbacks", s.DateFallbacks,
		"removed_duplicates", s.RemovedDuplicates,
		"removed_language", s.RemovedLanguage,
		"escalated", s.Escalated,
		"fixed", s.Fixed,
		"still_invalid", s.StillInvalid,
		"failed_batches", s.FailedBatches,
		"missing_dates", s.MissingDates,
		"transform_time", s.TransformTime.Round(time.Millisecond),
		"cleanup_time", s.CleanupTime.Round(time.Millisecond),
		"escalate_time", s.EscalateTime.Round(time.Millisecond),
	)
}
