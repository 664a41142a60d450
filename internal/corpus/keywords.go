package corpus

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jackzampolin/juris/internal/types"
)

// KeywordRow is one distinct thesaurus keyword.
type KeywordRow struct {
	Keyword  string
	Type     string // "Cassation" or "Utu"
	Language types.Language
}

// Keywords collects distinct (keyword, type, language) rows from the
// cassation and UTU thesaurus lists, in first-seen order.
func (r *Repository) Keywords(ctx context.Context) ([]KeywordRow, error) {
	type key struct {
		kw, typ string
		lang    types.Language
	}
	seen := make(map[key]struct{})
	var rows []KeywordRow

	add := func(kw, typ string, lang types.Language) {
		if kw == "" {
			return
		}
		k := key{kw, typ, lang}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		rows = append(rows, KeywordRow{Keyword: kw, Type: typ, Language: lang})
	}

	_, err := r.Each(ctx, func(rec *types.Record) error {
		for _, s := range rec.Summaries {
			for _, kw := range s.KeywordsCassation {
				add(kw, "Cassation", rec.LanguageMetadata)
			}
			for _, kw := range s.KeywordsUtu {
				add(kw, "Utu", rec.LanguageMetadata)
			}
		}
		return nil
	})
	return rows, err
}

// WriteKeywordsCSV writes rows with a keyword,type,language header.
func WriteKeywordsCSV(w io.Writer, rows []KeywordRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"keyword", "type", "language"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Keyword, row.Type, string(row.Language)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
