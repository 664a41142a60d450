package language

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/juris/internal/types"
)

// Thresholds tuned on the Juportal corpus.
const (
	MinSampleLength          = 30
	SampleMatchThreshold     = 0.5
	AfrikaansDutchThreshold  = 0.3
	ShortSampleLength        = 100
	DocumentMatchRatio       = 0.4
	OracleOverrideConfidence = 0.8
)

// Request is what the oracle sees of a record.
type Request struct {
	FileName string
	Language types.Language
	Samples  []string
}

// Verdict is the oracle's answer.
type Verdict struct {
	Valid            bool
	DetectedLanguage string
	Confidence       float64
	Explanation      string
}

// Oracle is an optional second opinion for records that fail the
// statistical check.
type Oracle interface {
	ValidateLanguage(ctx context.Context, req Request) (Verdict, error)
}

// Config configures a Validator. Oracle may be nil.
type Config struct {
	Detector Detector
	Oracle   Oracle
	Logger   *slog.Logger
}

// Validator votes over text samples of a record.
type Validator struct {
	detector Detector
	oracle   Oracle
	logger   *slog.Logger
}

// Result details one validation.
type Result struct {
	Valid      bool
	Samples    int // every non-empty sample, short ones included
	Matched    int
	Ratio      float64
	Overridden bool
	Verdict    *Verdict
}

// NewValidator creates a validator. A nil detector selects lingua.
func NewValidator(cfg Config) *Validator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	detector := cfg.Detector
	if detector == nil {
		detector = NewLinguaDetector()
	}
	return &Validator{
		detector: detector,
		oracle:   cfg.Oracle,
		logger:   logger.With("component", "language"),
	}
}

// Validate reports whether the record's text matches its declared language.
func (v *Validator) Validate(ctx context.Context, rec *types.Record) bool {
	return v.Check(ctx, rec).Valid
}

// Check runs the sample vote and, on failure, the oracle override.
func (v *Validator) Check(ctx context.Context, rec *types.Record) Result {
	if rec.LanguageMetadata == "" {
		return Result{}
	}
	expected := rec.LanguageMetadata.ISOCode()

	res := Result{}
	for _, sample := range Samples(rec) {
		res.Samples++
		// Too short to detect reliably; counts as a non-match.
		if utf8.RuneCountInString(sample) < MinSampleLength {
			continue
		}
		if v.sampleMatches(strings.ToLower(sample), expected) {
			res.Matched++
		}
	}

	if res.Samples == 0 {
		res.Valid = true
		return res
	}
	res.Ratio = float64(res.Matched) / float64(res.Samples)
	res.Valid = res.Ratio >= DocumentMatchRatio
	if res.Valid || v.oracle == nil {
		return res
	}

	verdict, err := v.oracle.ValidateLanguage(ctx, Request{
		FileName: rec.FileName,
		Language: rec.LanguageMetadata,
		Samples:  Samples(rec),
	})
	if err != nil {
		v.logger.Warn("language oracle failed, keeping statistical verdict", "file", rec.FileName, "error", err)
		return res
	}
	res.Verdict = &verdict
	if verdict.Valid && verdict.Confidence >= OracleOverrideConfidence {
		res.Valid = true
		res.Overridden = true
		v.logger.Debug("language oracle override", "file", rec.FileName, "confidence", verdict.Confidence)
	}
	return res
}

// sampleMatches applies the per-sample rule, including the Dutch/Afrikaans
// leniency.
func (v *Validator) sampleMatches(sample, expected string) bool {
	detections := v.detector.Detect(sample)
	if len(detections) == 0 {
		return false
	}

	if expected == "nl" && detections[0].Code == "af" {
		if utf8.RuneCountInString(sample) < ShortSampleLength {
			return true
		}
		for _, d := range detections {
			if d.Code == "nl" && d.Probability >= AfrikaansDutchThreshold {
				return true
			}
		}
		return false
	}

	for _, d := range detections {
		if d.Code == expected && d.Probability >= SampleMatchThreshold {
			return true
		}
	}
	return false
}

// Samples returns the text slices voted on, in a fixed order.
func Samples(rec *types.Record) []string {
	var samples []string
	add := func(s string, limit int) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		samples = append(samples, Truncate(s, limit))
	}

	add(rec.FullText, 500)
	for _, s := range rec.Summaries {
		add(s.Summary, 200)
		add(s.KeywordsFree, 200)
		add(strings.Join(firstN(s.KeywordsCassation, 5), " "), 0)
		add(strings.Join(firstN(s.KeywordsUtu, 5), " "), 0)
		add(strings.Join(firstN(s.LegalBasis, 3), " "), 0)
	}
	add(rec.Chamber, 0)
	add(rec.FieldOfLaw, 0)
	add(rec.OpinionPublicAttorney, 200)
	return samples
}

// Truncate cuts s to limit runes; a zero limit keeps everything.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == limit {
			return s[:pos]
		}
		i++
	}
	return s
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
