package batch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/juris/internal/corpus"
	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/oracle"
	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/types"
)

// Escalate is phase 2. Every record still marked invalid is sent to the
// oracle in batches under a concurrency limit. A verdict is attached to
// each record the oracle addresses; a confident valid verdict flips
// isValid. Records of a failed batch keep their verdict. The sorted list
// of records still invalid is written to the invalid-files report.
func (r *Runner) Escalate(ctx context.Context, stats *Stats) error {
	start := time.Now()
	defer func() { stats.EscalateTime += time.Since(start) }()

	var invalid []*types.Record
	if _, err := r.output.Each(ctx, func(rec *types.Record) error {
		if !rec.IsValid {
			invalid = append(invalid, rec)
		}
		return nil
	}); err != nil {
		return err
	}
	stats.Escalated = len(invalid)

	if len(invalid) > 0 && r.oracle == nil {
		r.logger.Warn("oracle unavailable, skipping escalation", "invalid", len(invalid))
	}
	if len(invalid) > 0 && r.oracle != nil {
		r.logger.Info("escalating invalid records", "records", len(invalid), "batch_size", r.batchSize, "max_concurrent", r.maxConcurrent)

		var mu sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(r.maxConcurrent)
		for i := 0; i < len(invalid); i += r.batchSize {
			batch := invalid[i:min(i+r.batchSize, len(invalid))]
			g.Go(func() error {
				fixed, ok := r.escalateBatch(ctx, batch)
				mu.Lock()
				stats.Fixed += fixed
				if !ok {
					stats.FailedBatches++
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	var still []string
	for _, rec := range invalid {
		if !rec.IsValid {
			still = append(still, rec.FileName)
		}
	}
	sort.Strings(still)
	stats.StillInvalid = len(still)

	if len(still) > 0 {
		if err := r.output.WriteReport(ctx, corpus.InvalidFilesReport, still); err != nil {
			return err
		}
	} else if err := r.output.Store().Delete(ctx, corpus.InvalidFilesReport); err != nil && !errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("remove stale invalid-files report", "error", err)
	}

	r.logger.Info("escalation complete",
		"escalated", stats.Escalated,
		"fixed", stats.Fixed,
		"still_invalid", stats.StillInvalid,
		"failed_batches", stats.FailedBatches)
	return nil
}

// escalateBatch returns the number of records turned valid and whether the
// oracle answered. Each batch touches only its own records.
func (r *Runner) escalateBatch(ctx context.Context, batch []*types.Record) (int, bool) {
	items := make([]oracle.BatchItem, len(batch))
	for i, rec := range batch {
		items[i] = oracle.NewBatchItem(rec)
	}

	verdicts, err := r.oracle.ValidateBatch(ctx, items)
	if err != nil {
		r.logger.Warn("oracle batch failed, keeping verdicts", "records", len(batch), "first", batch[0].FileName, "error", err)
		return 0, false
	}

	fixed := 0
	for _, rec := range batch {
		v, ok := verdicts[rec.FileName]
		if !ok {
			continue
		}
		validated := v.Valid && v.Confidence >= language.OracleOverrideConfidence
		rec.LLMValidation = &types.LLMValidation{
			Validated:   validated,
			Confidence:  v.Confidence,
			Explanation: v.Explanation,
		}
		rec.IsValid = validated
		if err := r.output.Save(ctx, rec); err != nil {
			r.logger.Warn("save escalated record", "file", rec.FileName, "error", err)
			rec.IsValid = false
			continue
		}
		if validated {
			fixed++
		}
		r.logger.Debug("oracle verdict", "file", rec.FileName, "validated", validated, "confidence", v.Confidence)
	}
	return fixed, true
}
