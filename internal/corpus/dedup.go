package corpus

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/jackzampolin/juris/internal/store"
)

// Removal describes one record deleted by the dedup pass.
type Removal struct {
	File       string `json:"file"`
	DecisionID string `json:"decisionId"`
	AliasOf    string `json:"aliasOf"` // decisionId of the surviving record
}

// DedupResult summarizes a dedup pass.
type DedupResult struct {
	Scanned int       `json:"scanned"`
	Skipped int       `json:"skipped"`
	Removed []Removal `json:"removed"`
}

type indexEntry struct {
	name    string
	id      string
	aliases []string
}

func (e *indexEntry) claims(id string) bool {
	return id != "" && slices.Contains(e.aliases, id)
}

// Dedup deletes records whose decisionId is declared as an ECLI alias by
// another record. Records are scanned in filename order and the
// declaring record wins. For mutual alias pairs the record with the
// lexicographically smaller decisionId survives whichever side is
// scanned first. A target already scanned in this pass is left alone.
// Running Dedup again on its own output removes nothing.
func (r *Repository) Dedup(ctx context.Context) (DedupResult, error) {
	var result DedupResult

	names, err := r.Names(ctx)
	if err != nil {
		return result, err
	}

	entries := make([]*indexEntry, 0, len(names))
	byID := make(map[string]*indexEntry, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := r.Load(ctx, name)
		if err != nil {
			r.logger.Warn("dedup: skipping unreadable record", "file", name, "error", err)
			result.Skipped++
			continue
		}
		e := &indexEntry{name: name, id: rec.DecisionID}
		for _, alias := range rec.EcliAlias {
			if strings.HasPrefix(alias, "ECLI:") && alias != rec.DecisionID {
				e.aliases = append(e.aliases, alias)
			}
		}
		entries = append(entries, e)
		if e.id == "" {
			continue
		}
		if prev, ok := byID[e.id]; ok {
			r.logger.Debug("dedup: duplicate primary id", "id", e.id, "kept", prev.name, "file", name)
			continue
		}
		byID[e.id] = e
	}
	result.Scanned = len(entries)

	removed := make(map[string]bool)
	processed := make(map[string]bool)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if removed[e.name] {
			continue
		}
		processed[e.name] = true

		for _, alias := range e.aliases {
			target, ok := byID[alias]
			if !ok || target.name == e.name || removed[target.name] || processed[target.name] {
				continue
			}

			loser, winner := target, e
			if target.claims(e.id) && target.id < e.id {
				loser, winner = e, target
			}
			if !r.remove(ctx, loser, winner, removed, &result) {
				continue
			}
			if loser == e {
				break
			}
		}
	}

	r.logger.Info("dedup complete",
		"scanned", result.Scanned,
		"skipped", result.Skipped,
		"removed", len(result.Removed))
	return result, nil
}

func (r *Repository) remove(ctx context.Context, loser, winner *indexEntry, removed map[string]bool, result *DedupResult) bool {
	err := r.Delete(ctx, loser.name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("dedup: delete failed", "file", loser.name, "error", err)
		return false
	}
	removed[loser.name] = true
	result.Removed = append(result.Removed, Removal{
		File:       loser.name,
		DecisionID: loser.id,
		AliasOf:    winner.id,
	})
	r.logger.Info("removed duplicate",
		"file", loser.name,
		"id", loser.id,
		"alias_of", winner.id,
		"kept", winner.name)
	return true
}
