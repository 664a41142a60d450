// Package batch orchestrates a full corpus run: transform every raw
// document, remove duplicates and the excluded language, escalate the
// remaining language failures to the oracle, and audit decision dates.
//
// The phases run strictly in that order. Only escalation is concurrent
// with itself; the corpus passes never overlap with any write.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/juris/internal/corpus"
	"github.com/jackzampolin/juris/internal/jobs"
	"github.com/jackzampolin/juris/internal/oracle"
	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/transform"
	"github.com/jackzampolin/juris/internal/types"
)

const (
	DefaultBatchSize     = 10
	DefaultMaxConcurrent = 5
)

// BatchOracle gives verdicts for a batch of records. Files it leaves out
// keep their previous verdict.
type BatchOracle interface {
	ValidateBatch(ctx context.Context, items []oracle.BatchItem) (map[string]oracle.BatchVerdict, error)
}

// Config wires a Runner.
type Config struct {
	Input       store.Store
	Output      *corpus.Repository
	Transformer *transform.Transformer

	// Oracle is optional. Without it escalation is skipped and every
	// invalid record is reported as still invalid.
	Oracle BatchOracle

	// ExcludedLanguage is removed after dedup. Empty disables the strip.
	ExcludedLanguage types.Language

	Workers       int
	BatchSize     int
	MaxConcurrent int

	// Clean removes everything from the output store before transforming.
	Clean bool

	Logger *slog.Logger
}

// Runner executes the phases. Each phase is also exposed on its own.
type Runner struct {
	input         store.Store
	output        *corpus.Repository
	transformer   *transform.Transformer
	oracle        BatchOracle
	excluded      types.Language
	workers       int
	batchSize     int
	maxConcurrent int
	clean         bool
	logger        *slog.Logger
}

// NewRunner validates cfg and creates a runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Input == nil {
		return nil, fmt.Errorf("batch: input store is required")
	}
	if cfg.Output == nil {
		return nil, fmt.Errorf("batch: output repository is required")
	}
	if cfg.Transformer == nil {
		return nil, fmt.Errorf("batch: transformer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Runner{
		input:         cfg.Input,
		output:        cfg.Output,
		transformer:   cfg.Transformer,
		oracle:        cfg.Oracle,
		excluded:      cfg.ExcludedLanguage,
		workers:       cfg.Workers,
		batchSize:     batchSize,
		maxConcurrent: maxConcurrent,
		clean:         cfg.Clean,
		logger:        logger.With("component", "batch"),
	}, nil
}

// Run executes every phase in order.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", stats.RunID)
	logger.Info("batch run starting")

	if err := r.TransformAll(ctx, &stats); err != nil {
		return stats, fmt.Errorf("transform phase: %w", err)
	}
	if err := r.Cleanup(ctx, &stats); err != nil {
		return stats, fmt.Errorf("cleanup phase: %w", err)
	}
	if err := r.Escalate(ctx, &stats); err != nil {
		return stats, fmt.Errorf("escalation phase: %w", err)
	}
	if err := r.Audit(ctx, &stats); err != nil {
		return stats, fmt.Errorf("audit: %w", err)
	}

	stats.Log(logger)
	return stats, nil
}

// TransformOne reads one raw document, transforms it and writes the record
// unless it is a conclusion.
func (r *Runner) TransformOne(ctx context.Context, name string) (*transform.Result, error) {
	data, err := r.input.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	result, err := r.transformer.Transform(ctx, name, data)
	if err != nil {
		return nil, err
	}
	if !result.ShouldPersist() {
		r.logger.Debug("skipping conclusion", "file", name)
		return result, nil
	}
	if err := r.output.Save(ctx, result.Record); err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	return result, nil
}

// Record adds one phase-1 outcome to stats.
func (s *Stats) Record(result *transform.Result, err error) {
	if err != nil {
		s.Failed++
		return
	}
	s.Successful++
	if len(result.Violations) > 0 {
		s.SchemaWarnings++
	}
	if result.DateFromFallback {
		s.DateFallbacks++
	}
	if !result.ShouldPersist() {
		s.SkippedConc++
		return
	}
	if !result.Record.IsValid {
		s.LanguageInvalid++
	}
}

// TransformAll is phase 1. Documents are processed on the worker pool and
// a failing document never stops the others.
func (r *Runner) TransformAll(ctx context.Context, stats *Stats) error {
	start := time.Now()
	defer func() { stats.TransformTime += time.Since(start) }()

	if r.clean {
		if err := r.cleanOutput(ctx); err != nil {
			return err
		}
	}

	names, err := r.input.List(ctx)
	if err != nil {
		return fmt.Errorf("list input: %w", err)
	}
	units := make([]*jobs.WorkUnit, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, ".json") {
			units = append(units, &jobs.WorkUnit{ID: name, Name: name})
		}
	}
	r.logger.Info("transform phase starting", "documents", len(units))

	pool := jobs.NewCPUWorkerPool(jobs.CPUWorkerPoolConfig{
		Name:        "transform",
		Logger:      r.logger,
		WorkerCount: r.workers,
		Handler: func(ctx context.Context, unit *jobs.WorkUnit) (any, error) {
			return r.TransformOne(ctx, unit.Name)
		},
	})

	err = pool.Run(ctx, units, func(wr jobs.WorkResult) {
		stats.Total++
		result, _ := wr.Value.(*transform.Result)
		if wr.Err != nil {
			r.logger.Warn("document failed", "file", wr.Unit.Name, "error", wr.Err)
		}
		stats.Record(result, wr.Err)
	})
	if err != nil {
		return err
	}

	r.logger.Info("transform phase complete",
		"total", stats.Total,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped_conc", stats.SkippedConc,
		"language_invalid", stats.LanguageInvalid)
	return nil
}

func (r *Runner) cleanOutput(ctx context.Context) error {
	names, err := r.output.Store().List(ctx)
	if err != nil {
		return fmt.Errorf("list output: %w", err)
	}
	for _, name := range names {
		if err := r.output.Store().Delete(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("clean output: %w", err)
		}
	}
	r.logger.Info("output cleaned", "removed", len(names))
	return nil
}

// Cleanup is phase 1.5: alias dedup, then the language strip.
func (r *Runner) Cleanup(ctx context.Context, stats *Stats) error {
	start := time.Now()
	defer func() { stats.CleanupTime += time.Since(start) }()

	dedup, err := r.output.Dedup(ctx)
	if err != nil {
		return err
	}
	stats.RemovedDuplicates += len(dedup.Removed)

	if r.excluded == "" {
		return nil
	}
	strip, err := r.output.StripLanguage(ctx, r.excluded)
	if err != nil {
		return err
	}
	stats.RemovedLanguage += len(strip.Removed)
	return nil
}

// Audit runs the missing-date audit.
func (r *Runner) Audit(ctx context.Context, stats *Stats) error {
	result, err := r.output.AuditMissingDates(ctx)
	if err != nil {
		return err
	}
	stats.MissingDates = result.Missing.Count
	return nil
}
