// Package corpus implements the corpus-level passes over persisted
// records: alias deduplication, language stripping, the missing-date
// audit and keyword export.
//
// The passes delete records by filename and must not run concurrently
// with each other or with escalation writes. Callers order them.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/types"
)

// Report file names. They live beside the records but are never
// enumerated as records.
const (
	InvalidFilesReport = "invalid_files.json"
	MissingDatesReport = "missing_dates.json"
)

// IsReport reports whether name is one of the auxiliary report files.
func IsReport(name string) bool {
	return name == InvalidFilesReport || name == MissingDatesReport
}

// Repository gives typed access to canonical records held in a Store.
type Repository struct {
	store  store.Store
	logger *slog.Logger
}

// NewRepository wraps s. A nil logger uses slog.Default().
func NewRepository(s store.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  s,
		logger: logger.With("component", "corpus"),
	}
}

// Store returns the underlying store.
func (r *Repository) Store() store.Store {
	return r.store
}

// Names lists record filenames in lexicographic order.
func (r *Repository) Names(ctx context.Context) ([]string, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, name := range all {
		if !strings.HasSuffix(name, ".json") || IsReport(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Load reads and decodes one record.
func (r *Repository) Load(ctx context.Context, name string) (*types.Record, error) {
	data, err := r.store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	var rec types.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if rec.FileName == "" {
		rec.FileName = name
	}
	return &rec, nil
}

// Save encodes rec and writes it under its FileName.
func (r *Repository) Save(ctx context.Context, rec *types.Record) error {
	if rec.FileName == "" {
		return fmt.Errorf("save record: empty file name")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.FileName, err)
	}
	return r.store.Write(ctx, rec.FileName, data)
}

// Delete removes one record.
func (r *Repository) Delete(ctx context.Context, name string) error {
	return r.store.Delete(ctx, name)
}

// WriteReport writes an auxiliary JSON report.
func (r *Repository) WriteReport(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report %s: %w", name, err)
	}
	return r.store.Write(ctx, name, data)
}

// Each loads every record in name order and calls fn. Unreadable
// records are logged and skipped. Iteration stops at the first error
// returned by fn or when ctx is done.
func (r *Repository) Each(ctx context.Context, fn func(*types.Record) error) (skipped int, err error) {
	names, err := r.Names(ctx)
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}
		rec, err := r.Load(ctx, name)
		if err != nil {
			r.logger.Warn("skipping unreadable record", "file", name, "error", err)
			skipped++
			continue
		}
		if err := fn(rec); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}
