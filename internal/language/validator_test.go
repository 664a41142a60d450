package language

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/juris/internal/types"
)

// fakeDetector answers from the first keyword found in the text.
type fakeDetector map[string][]Detection

func (f fakeDetector) Detect(text string) []Detection {
	for key, detections := range f {
		if strings.Contains(text, key) {
			return detections
		}
	}
	return nil
}

type fakeOracle struct {
	verdict Verdict
	err     error
	calls   int
}

func (o *fakeOracle) ValidateLanguage(ctx context.Context, req Request) (Verdict, error) {
	o.calls++
	return o.verdict, o.err
}

var detections = fakeDetector{
	"frans":     {{Code: "fr", Probability: 0.95}},
	"nederland": {{Code: "nl", Probability: 0.9}},
	"engels":    {{Code: "en", Probability: 0.99}},
	"afrikort":  {{Code: "af", Probability: 0.8}, {Code: "nl", Probability: 0.1}},
	"afrilang":  {{Code: "af", Probability: 0.6}, {Code: "nl", Probability: 0.35}},
	"afrigeen":  {{Code: "af", Probability: 0.9}, {Code: "nl", Probability: 0.05}},
	"zwak":      {{Code: "fr", Probability: 0.45}, {Code: "nl", Probability: 0.4}},
}

func pad(s string, n int) string {
	for len(s) < n {
		s += " x"
	}
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rec  *types.Record
		want bool
	}{
		{
			name: "no samples is valid",
			rec:  types.NewRecord("a_DE.json", types.LanguageDE),
			want: true,
		},
		{
			name: "only short samples is invalid",
			rec:  &types.Record{LanguageMetadata: types.LanguageFR, Chamber: "engels 1"},
			want: false,
		},
		{
			name: "short sample counts against the ratio",
			rec: &types.Record{
				LanguageMetadata: types.LanguageFR,
				FullText:         pad("frans", 60),
				Summaries:        []types.Summary{{Summary: pad("engels", 60)}},
				Chamber:          "engels kamer",
			},
			want: false,
		},
		{
			name: "missing language is invalid",
			rec:  &types.Record{FullText: pad("frans", 60)},
			want: false,
		},
		{
			name: "matching text",
			rec:  &types.Record{LanguageMetadata: types.LanguageFR, FullText: pad("frans", 60)},
			want: true,
		},
		{
			name: "every sample in another language",
			rec: &types.Record{
				LanguageMetadata: types.LanguageFR,
				FullText:         pad("engels", 60),
				FieldOfLaw:       pad("engels", 40),
			},
			want: false,
		},
		{
			name: "ratio at forty percent passes",
			rec: &types.Record{
				LanguageMetadata: types.LanguageNL,
				FullText:         pad("nederland", 60),
				Chamber:          pad("engels", 40),
				FieldOfLaw:       pad("nederland", 40),
				Summaries: []types.Summary{
					{Summary: pad("engels", 40), KeywordsFree: pad("engels", 40)},
				},
			},
			want: true,
		},
		{
			name: "low probability does not match",
			rec:  &types.Record{LanguageMetadata: types.LanguageFR, FullText: pad("zwak", 60)},
			want: false,
		},
		{
			name: "short afrikaans flagged dutch passes",
			rec:  &types.Record{LanguageMetadata: types.LanguageNL, FullText: pad("afrikort", 50)},
			want: true,
		},
		{
			name: "long afrikaans with dutch runner-up passes",
			rec:  &types.Record{LanguageMetadata: types.LanguageNL, FullText: pad("afrilang", 150)},
			want: true,
		},
		{
			name: "long afrikaans without dutch fails",
			rec:  &types.Record{LanguageMetadata: types.LanguageNL, FullText: pad("afrigeen", 150)},
			want: false,
		},
		{
			name: "afrikaans leniency only applies to dutch",
			rec:  &types.Record{LanguageMetadata: types.LanguageFR, FullText: pad("afrikort", 50)},
			want: false,
		},
	}
	v := NewValidator(Config{Detector: detections})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Validate(context.Background(), tt.rec); got != tt.want {
				t.Errorf("Validate() = %v, want %v (%+v)", got, tt.want, v.Check(context.Background(), tt.rec))
			}
		})
	}
}

func TestValidate_Oracle(t *testing.T) {
	invalid := &types.Record{LanguageMetadata: types.LanguageFR, FullText: pad("engels", 60)}

	tests := []struct {
		name           string
		oracle         *fakeOracle
		want           bool
		wantOverridden bool
	}{
		{"confident override", &fakeOracle{verdict: Verdict{Valid: true, Confidence: 0.8}}, true, true},
		{"low confidence keeps verdict", &fakeOracle{verdict: Verdict{Valid: true, Confidence: 0.79}}, false, false},
		{"oracle disagrees", &fakeOracle{verdict: Verdict{Valid: false, Confidence: 0.95}}, false, false},
		{"oracle error is swallowed", &fakeOracle{err: errors.New("timeout")}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(Config{Detector: detections, Oracle: tt.oracle})
			res := v.Check(context.Background(), invalid)
			if res.Valid != tt.want || res.Overridden != tt.wantOverridden {
				t.Errorf("Check() = %+v, want valid=%v overridden=%v", res, tt.want, tt.wantOverridden)
			}
			if tt.oracle.calls != 1 {
				t.Errorf("oracle calls = %d, want 1", tt.oracle.calls)
			}
		})
	}

	t.Run("valid records skip the oracle", func(t *testing.T) {
		o := &fakeOracle{}
		v := NewValidator(Config{Detector: detections, Oracle: o})
		v.Validate(context.Background(), &types.Record{LanguageMetadata: types.LanguageFR, FullText: pad("frans", 60)})
		if o.calls != 0 {
			t.Errorf("oracle calls = %d, want 0", o.calls)
		}
	})
}

func TestSamples(t *testing.T) {
	rec := &types.Record{
		FullText: strings.Repeat("é", 600),
		Summaries: []types.Summary{{
			Summary:           "résumé",
			KeywordsCassation: []string{"a", "b", "c", "d", "e", "f"},
			LegalBasis:        []string{"1", "2", "3", "4"},
		}},
		Chamber:               "  ",
		OpinionPublicAttorney: "avis",
	}
	got := Samples(rec)
	want := []string{strings.Repeat("é", 500), "résumé", "a b c d e", "1 2 3", "avis"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Samples() = %q, want %q", got, want)
	}
}
