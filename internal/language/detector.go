// Package language checks that a record's text is written in its declared
// language.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detection is one candidate language with its probability.
type Detection struct {
	Code        string // lowercase ISO 639-1
	Probability float64
}

// Detector ranks candidate languages for a text, most probable first.
type Detector interface {
	Detect(text string) []Detection
}

// candidateLanguages covers the corpus languages plus the ones legal text
// is commonly confused with or quotes.
var candidateLanguages = []lingua.Language{
	lingua.French,
	lingua.Dutch,
	lingua.German,
	lingua.Afrikaans,
	lingua.English,
	lingua.Latin,
	lingua.Italian,
	lingua.Spanish,
}

// LinguaDetector is a Detector backed by lingua's n-gram models.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds the detector. Models load lazily on first use.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidateLanguages...).
			Build(),
	}
}

// Detect implements Detector.
func (d *LinguaDetector) Detect(text string) []Detection {
	values := d.detector.ComputeLanguageConfidenceValues(text)
	out := make([]Detection, 0, len(values))
	for _, v := range values {
		out = append(out, Detection{
			Code:        strings.ToLower(v.Language().IsoCode639_1().String()),
			Probability: v.Value(),
		})
	}
	return out
}
