package corpus

import (
	"context"
	"errors"

	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/types"
)

// StripResult summarizes a language strip pass.
type StripResult struct {
	Scanned int      `json:"scanned"`
	Skipped int      `json:"skipped"`
	Removed []string `json:"removed"`
}

// StripLanguage deletes every record whose declared language is lang,
// regardless of its validity.
func (r *Repository) StripLanguage(ctx context.Context, lang types.Language) (StripResult, error) {
	var result StripResult

	names, err := r.Names(ctx)
	if err != nil {
		return result, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := r.Load(ctx, name)
		if err != nil {
			r.logger.Warn("strip: skipping unreadable record", "file", name, "error", err)
			result.Skipped++
			continue
		}
		result.Scanned++
		if rec.LanguageMetadata != lang {
			continue
		}
		if err := r.Delete(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("strip: delete failed", "file", name, "error", err)
			continue
		}
		result.Removed = append(result.Removed, name)
	}

	r.logger.Info("language strip complete",
		"language", lang,
		"scanned", result.Scanned,
		"removed", len(result.Removed))
	return result, nil
}
