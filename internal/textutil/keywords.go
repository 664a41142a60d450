package textutil

import (
	"strings"

	"github.com/jackzampolin/juris/internal/types"
)

// KeywordKind selects the splitting rule of MergeKeywordValues.
type KeywordKind int

const (
	KeywordCassation KeywordKind = iota
	KeywordUtu
	KeywordFree
	KeywordLegalBasis
)

// stopMarkers open the next labelled block of a notice.
var stopMarkers = []string{
	"Thésaurus", "Thesaurus",
	"Mots libres", "Vrije woorden", "Freie Wörter",
	"Bases légales", "Wettelijke bepalingen", "Rechtsgrundlage",
}

// IsStopMarker reports whether a paragraph text starts a new labelled block:
// it names another field or is shaped like a label ending in a colon.
func IsStopMarker(text string) bool {
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, ":") {
		return true
	}
	for _, marker := range stopMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// MergeKeywordValues gathers the values that follow the label at start,
// up to the next stop marker. Thesaurus keywords and legal bases are split
// on <br> tags of the paragraph markup; free keywords are split on ; , and
// newlines. Placeholder fragments are dropped.
func MergeKeywordValues(paragraphs []types.RawParagraph, start int, kind KeywordKind) []string {
	var values []string
	for i := start + 1; i < len(paragraphs); i++ {
		p := paragraphs[i]
		text := strings.TrimSpace(p.Text)
		if IsStopMarker(text) {
			break
		}

		switch kind {
		case KeywordFree:
			values = append(values, SplitList(text)...)
		default:
			if HasBreaks(p.HTML) {
				values = append(values, SplitBreaks(p.HTML)...)
			} else if cleaned := CleanText(text); !isPlaceholder(cleaned) {
				values = append(values, cleaned)
			}
		}
	}
	return values
}

// ExtractLegalBasis is MergeKeywordValues for legal-basis citations.
func ExtractLegalBasis(paragraphs []types.RawParagraph, start int) []string {
	return MergeKeywordValues(paragraphs, start, KeywordLegalBasis)
}
