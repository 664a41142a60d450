package corpus

import (
	"context"
	"errors"

	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/textutil"
	"github.com/jackzampolin/juris/internal/types"
)

// MissingDate is one entry of the missing-date report.
type MissingDate struct {
	File        string `json:"file"`
	ECLI        string `json:"ecli"`
	CurrentDate string `json:"currentDate"`
}

// MissingDates is the persisted audit document.
type MissingDates struct {
	Count int           `json:"count"`
	Files []MissingDate `json:"files"`
}

// AuditResult summarizes a missing-date audit.
type AuditResult struct {
	Checked  int          `json:"checked"` // valid records inspected
	Complete int          `json:"complete"`
	Skipped  int          `json:"skipped"`
	Missing  MissingDates `json:"missing"`
}

// AuditMissingDates lists valid records with no decisionDate or only a
// year. Records are not modified. The report is written when at least
// one record is missing a full date, and a stale report is removed
// otherwise.
func (r *Repository) AuditMissingDates(ctx context.Context) (AuditResult, error) {
	result := AuditResult{Missing: MissingDates{Files: []MissingDate{}}}

	skipped, err := r.Each(ctx, func(rec *types.Record) error {
		if !rec.IsValid {
			return nil
		}
		result.Checked++
		d := textutil.ParseDate(rec.DecisionDate)
		if d.IsFull() {
			result.Complete++
			return nil
		}
		ecli := rec.DecisionID
		if ecli == "" {
			ecli = "Unknown"
		}
		result.Missing.Files = append(result.Missing.Files, MissingDate{
			File:        rec.FileName,
			ECLI:        ecli,
			CurrentDate: rec.DecisionDate,
		})
		return nil
	})
	result.Skipped = skipped
	if err != nil {
		return result, err
	}
	result.Missing.Count = len(result.Missing.Files)

	if result.Missing.Count > 0 {
		if err := r.WriteReport(ctx, MissingDatesReport, result.Missing); err != nil {
			return result, err
		}
	} else if err := r.store.Delete(ctx, MissingDatesReport); err != nil && !errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("audit: remove stale report", "error", err)
	}

	r.logger.Info("missing-date audit complete",
		"checked", result.Checked,
		"complete", result.Complete,
		"missing", result.Missing.Count)
	return result, nil
}
