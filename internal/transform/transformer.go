// Package transform converts raw Juportal documents into canonical
// decision records.
//
// Each section is classified once from its legend and dispatched on the
// resulting mapping.SectionKind. Partial extraction is the normal case:
// unknown labels, unparseable dates and unclassified sections leave the
// corresponding fields empty.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/juris/internal/mapping"
	"github.com/jackzampolin/juris/internal/schema"
	"github.com/jackzampolin/juris/internal/textutil"
	"github.com/jackzampolin/juris/internal/types"
)

const (
	// Source is the publisher recorded on every record.
	Source = "juportal.be"

	// DefaultJurisdiction applies when the decision id carries no country.
	DefaultJurisdiction = "BE"

	// ConclusionType marks an opinion of the public prosecutor rather than
	// a judgment. Such records are transformed but never persisted.
	ConclusionType = "CONC"
)

// ErrMalformedInput is returned for documents that are not JSON objects
// carrying a sections list.
var ErrMalformedInput = errors.New("malformed input document")

// DateFallback extracts a YYYY-MM-DD date from free legend text. It is
// consulted only when neither the legend patterns nor the ECLI produce a
// full date.
type DateFallback interface {
	ExtractDate(ctx context.Context, legend string, lang types.Language) (string, error)
}

// LanguageChecker sets the language verdict of a finished record.
type LanguageChecker interface {
	Validate(ctx context.Context, rec *types.Record) bool
}

// Config configures a Transformer. Only Mapper is required in practice;
// a nil Mapper uses the built-in alias table.
type Config struct {
	Mapper       *mapping.Mapper
	DateFallback DateFallback    // optional
	Language     LanguageChecker // optional; nil marks every record valid
	Schema       *schema.Validator
	Logger       *slog.Logger
}

// Transformer is safe for concurrent use once constructed.
type Transformer struct {
	mapper       *mapping.Mapper
	dateFallback DateFallback
	language     LanguageChecker
	schema       *schema.Validator
	logger       *slog.Logger
}

// Result is the outcome of one transformation.
type Result struct {
	Record *types.Record

	// Violations are advisory schema findings. The record is still written.
	Violations []schema.Violation

	// DateFromFallback is set when the decision date came from DateFallback.
	DateFromFallback bool
}

// ShouldPersist reports whether the record belongs in the output store.
func (r *Result) ShouldPersist() bool {
	return r.Record != nil && r.Record.DecisionTypeCode != ConclusionType
}

// New creates a transformer.
func New(cfg Config) *Transformer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.Mapper
	if m == nil {
		m = mapping.Default()
	}
	v := cfg.Schema
	if v == nil {
		v = schema.MustCompile(schema.Record)
	}
	return &Transformer{
		mapper:       m,
		dateFallback: cfg.DateFallback,
		language:     cfg.Language,
		schema:       v,
		logger:       logger.With("component", "transform"),
	}
}

// Decode parses a raw document. A missing sections key is malformed.
func Decode(data []byte) (*types.RawDocument, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if _, ok := keys["sections"]; !ok {
		return nil, fmt.Errorf("%w: missing sections", ErrMalformedInput)
	}
	var doc types.RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return &doc, nil
}

// Transform decodes and transforms one raw document named name.
func (t *Transformer) Transform(ctx context.Context, name string, data []byte) (*Result, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return t.TransformDocument(ctx, name, doc)
}

// TransformDocument builds the canonical record for doc.
func (t *Transformer) TransformDocument(ctx context.Context, name string, doc *types.RawDocument) (*Result, error) {
	info := textutil.ParseFileName(name)
	rec := types.NewRecord(name, info.Language)
	rec.Source = Source
	rec.DecisionID = info.ECLI
	if rec.DecisionID == "" && strings.HasPrefix(strings.TrimSpace(doc.Title), "ECLI:") {
		rec.DecisionID = strings.TrimSpace(doc.Title)
	}

	st := &state{}
	for _, section := range doc.Sections {
		if section.Legend != "" {
			st.legends = append(st.legends, section.Legend)
		}
		switch kind := t.mapper.ClassifySection(section.Legend); kind {
		case mapping.SectionDecisionCard:
			t.decisionCard(section, rec, st)
		case mapping.SectionNoticeCard:
			t.noticeCard(section, rec)
		case mapping.SectionFullText:
			t.fullText(section, rec)
		case mapping.SectionRelatedPublications:
			t.relatedPublications(section, rec)
		case mapping.SectionUnclassified:
		default:
			panic(fmt.Sprintf("unhandled section kind %v", kind))
		}
	}

	t.deriveIdentity(rec)

	result := &Result{Record: rec}
	result.DateFromFallback = t.resolveDate(ctx, rec, st)

	if t.language != nil {
		rec.IsValid = t.language.Validate(ctx, rec)
	} else {
		rec.IsValid = true
	}

	violations, err := t.schema.ValidateValue(rec)
	if err != nil {
		return nil, fmt.Errorf("schema check %s: %w", name, err)
	}
	if len(violations) > 0 {
		result.Violations = violations
		t.logger.Warn("record does not conform to schema",
			"file", name,
			"violations", schema.Summary(violations))
	}

	return result, nil
}

// deriveIdentity fills the fields computed from the final decision id.
func (t *Transformer) deriveIdentity(rec *types.Record) {
	rec.Jurisdiction = DefaultJurisdiction
	if parts, ok := textutil.ParseECLI(rec.DecisionID); ok {
		rec.Jurisdiction = parts.Country
		rec.CourtCode = parts.Court
		rec.DecisionTypeCode = parts.Type
	}
	rec.URLOfficialPublication = textutil.BuildURLFromECLI(rec.DecisionID, rec.LanguageMetadata)
}

// resolveDate applies the date priority: a full legend date, then a full
// ECLI date, then the ECLI year, then the optional fallback over legends
// with a date preposition. The fallback runs whenever no full date is known,
// including when neither source gave a year. It reports whether it was used.
func (t *Transformer) resolveDate(ctx context.Context, rec *types.Record, st *state) bool {
	date := st.legendDate
	if !date.IsFull() {
		fromECLI := textutil.DateFromECLI(rec.DecisionID)
		if fromECLI.IsFull() || date.IsZero() {
			date = fromECLI
		}
	}
	rec.DecisionDate = date.Value
	if date.IsFull() || t.dateFallback == nil {
		return false
	}

	for _, legend := range st.legends {
		if !textutil.HasDatePreposition(legend) {
			continue
		}
		value, err := t.dateFallback.ExtractDate(ctx, legend, rec.LanguageMetadata)
		if err != nil {
			t.logger.Debug("date fallback failed", "file", rec.FileName, "error", err)
			return false
		}
		if textutil.IsCalendarDate(value) {
			rec.DecisionDate = value
			t.logger.Info("date recovered by fallback", "file", rec.FileName, "date", value)
			return true
		}
	}
	return false
}
