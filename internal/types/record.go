package types

import "strings"

// Language is the declared language of a decision.
type Language string

const (
	LanguageFR Language = "FR"
	LanguageNL Language = "NL"
	LanguageDE Language = "DE"
)

// ParseLanguage converts a language tag (any case) to a Language.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToUpper(strings.TrimSpace(s))) {
	case LanguageFR:
		return LanguageFR, true
	case LanguageNL:
		return LanguageNL, true
	case LanguageDE:
		return LanguageDE, true
	default:
		return "", false
	}
}

// ISOCode returns the lowercase ISO 639-1 code.
func (l Language) ISOCode() string {
	return strings.ToLower(string(l))
}

// Record is the canonical decision record written to the output store.
type Record struct {
	FileName         string   `json:"fileName"`
	DecisionID       string   `json:"decisionId"`
	Source           string   `json:"source"`
	Jurisdiction     string   `json:"jurisdiction"`
	CourtCode        string   `json:"courtCode"`
	DecisionTypeCode string   `json:"decisionTypeCode"`
	DecisionDate     string   `json:"decisionDate"`
	LanguageMetadata Language `json:"languageMetadata"`

	RolNumber  string   `json:"rolNumber"`
	Case       string   `json:"case"`
	Chamber    string   `json:"chamber"`
	FieldOfLaw string   `json:"fieldOfLaw"`
	Versions   []string `json:"versions"`
	EcliAlias  []string `json:"ecliAlias"`

	URLOfficialPublication string `json:"urlOfficialPublication"`
	URLPdf                 string `json:"urlPdf"`
	FullText               string `json:"fullText"`
	FullHTML               string `json:"fullHtml"`

	Summaries []Summary `json:"summaries"`

	Citing                []string `json:"citing"`
	Precedent             []string `json:"precedent"`
	CitedIn               []string `json:"citedIn"`
	SeeMoreRecently       []string `json:"seeMoreRecently"`
	PrecededBy            []string `json:"precededBy"`
	FollowedBy            []string `json:"followedBy"`
	Rectification         []string `json:"rectification"`
	RelatedCase           []string `json:"relatedCase"`
	OpinionPublicAttorney string   `json:"opinionPublicAttorney"`

	IsValid       bool           `json:"isValid"`
	LLMValidation *LLMValidation `json:"llmValidation,omitempty"`
}

// Summary is one notice ("fiche") attached to a decision.
// KeywordsFree is a single joined string, unlike the other keyword lists.
type Summary struct {
	SummaryID         string   `json:"summaryId"`
	Summary           string   `json:"summary"`
	KeywordsCassation []string `json:"keywordsCassation"`
	KeywordsUtu       []string `json:"keywordsUtu"`
	KeywordsFree      string   `json:"keywordsFree"`
	LegalBasis        []string `json:"legalBasis"`
}

// HasContent reports whether the summary carries any text or keyword.
func (s Summary) HasContent() bool {
	return s.Summary != "" || s.KeywordsFree != "" ||
		len(s.KeywordsCassation) > 0 || len(s.KeywordsUtu) > 0 || len(s.LegalBasis) > 0
}

// LLMValidation records the oracle's second opinion on language consistency.
type LLMValidation struct {
	Validated   bool    `json:"validated"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// NewRecord returns an empty record with every list initialized so the
// serialized form always carries arrays rather than nulls.
func NewRecord(fileName string, lang Language) *Record {
	return &Record{
		FileName:         fileName,
		LanguageMetadata: lang,
		Versions:         []string{},
		EcliAlias:        []string{},
		Summaries:        []Summary{},
		Citing:           []string{},
		Precedent:        []string{},
		CitedIn:          []string{},
		SeeMoreRecently:  []string{},
		PrecededBy:       []string{},
		FollowedBy:       []string{},
		Rectification:    []string{},
		RelatedCase:      []string{},
	}
}

// AppendUnique appends values not already present, preserving first-seen order.
func AppendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(values))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
