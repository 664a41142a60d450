package mapping

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type rule struct {
	field   FieldKind
	pattern *regexp.Regexp
}

// Mapper is immutable after construction and safe for concurrent use.
type Mapper struct {
	rules []rule
}

// New compiles every alias of the table into a case-insensitive prefix
// pattern in which colons are optional.
func New(t Table) *Mapper {
	m := &Mapper{rules: make([]rule, 0, len(t.Aliases))}
	for _, a := range t.Aliases {
		quoted := regexp.QuoteMeta(norm.NFC.String(a.Label))
		quoted = strings.ReplaceAll(quoted, ":", ":?")
		m.rules = append(m.rules, rule{
			field:   a.Field,
			pattern: regexp.MustCompile(`(?i)^` + quoted),
		})
	}
	return m
}

// Default returns a mapper over the built-in alias list.
func Default() *Mapper {
	return New(DefaultTable())
}

// LoadOrDefault builds a mapper from the table at path. An empty path or an
// unreadable table degrades to the built-in alias list.
func LoadOrDefault(path string, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return Default()
	}
	t, err := LoadTable(path)
	if err != nil {
		logger.Warn("mapping table unavailable, using built-in aliases", "path", path, "error", err)
		return Default()
	}
	if len(t.Skipped) > 0 {
		logger.Debug("mapping table rows skipped", "path", path, "fields", t.Skipped)
	}
	if len(t.Aliases) == 0 {
		logger.Warn("mapping table has no aliases, using built-in aliases", "path", path)
		return Default()
	}
	logger.Info("mapping table loaded", "path", path, "aliases", len(t.Aliases))
	return New(t)
}

// IdentifyField returns the first field whose alias matches the start of
// the label text.
func (m *Mapper) IdentifyField(text string) FieldKind {
	text = strings.TrimSpace(text)
	if text == "" {
		return FieldNone
	}
	text = norm.NFC.String(text)
	for _, r := range m.rules {
		if r.pattern.MatchString(text) {
			return r.field
		}
	}
	return FieldNone
}

var (
	decisionCardPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*Jugement/arrêt\s+du\s+(\d{1,2})\s+(\p{L}+)\s+(\d{4})`),
		regexp.MustCompile(`(?i)^\s*(?:Vonnis/arrest|Beschikking)\s+van\s+(\d{1,2})\s+(\p{L}+)\s+(\d{4})`),
		regexp.MustCompile(`(?i)^\s*Urteil\s+vom\s+(\d{1,2})\s+(\p{L}+)\s+(\d{4})`),
	}
	noticeRangePattern  = regexp.MustCompile(`(?i)^\s*Fiches?\s+(\d+)\s*[-–]\s*(\d+)`)
	noticeSinglePattern = regexp.MustCompile(`(?i)^\s*Fiche\s+(\d+)`)
	noticeBarePattern   = regexp.MustCompile(`(?i)^\s*Fiche\s*$`)

	fullTextPhrases = []string{
		"texte de la décision",
		"texte des conclusions",
		"tekst van de beslissing",
		"tekst van de conclusie",
		"text der entscheidung",
	}
	relatedPublicationPhrases = []string{
		"publication(s) liée(s)",
		"gerelateerde publicatie(s)",
		"verwandte veröffentlichung(en)",
	}
)

// maxNoticeRange bounds the expansion of a "Fiches N-M" legend.
const maxNoticeRange = 1000

// ClassifySection derives the role of a section from its legend.
func (m *Mapper) ClassifySection(legend string) SectionKind {
	legend = norm.NFC.String(strings.TrimSpace(legend))
	if legend == "" {
		return SectionUnclassified
	}
	for _, p := range decisionCardPatterns {
		if p.MatchString(legend) {
			return SectionDecisionCard
		}
	}
	if noticeRangePattern.MatchString(legend) || noticeSinglePattern.MatchString(legend) || noticeBarePattern.MatchString(legend) {
		return SectionNoticeCard
	}
	lower := strings.ToLower(legend)
	for _, phrase := range fullTextPhrases {
		if strings.Contains(lower, phrase) {
			return SectionFullText
		}
	}
	for _, phrase := range relatedPublicationPhrases {
		if strings.Contains(lower, phrase) {
			return SectionRelatedPublications
		}
	}
	return SectionUnclassified
}

// ExtractNoticeNumbers returns the notice numbers named by a legend. A range
// expands to every number from N to M inclusive; a bare "Fiche" yields "1".
func (m *Mapper) ExtractNoticeNumbers(legend string) []string {
	legend = strings.TrimSpace(legend)
	if match := noticeRangePattern.FindStringSubmatch(legend); match != nil {
		start, err1 := strconv.Atoi(match[1])
		end, err2 := strconv.Atoi(match[2])
		if err1 == nil && err2 == nil {
			if end < start || end-start > maxNoticeRange {
				return []string{strconv.Itoa(start)}
			}
			numbers := make([]string, 0, end-start+1)
			for n := start; n <= end; n++ {
				numbers = append(numbers, strconv.Itoa(n))
			}
			return numbers
		}
	}
	if match := noticeSinglePattern.FindStringSubmatch(legend); match != nil {
		return []string{match[1]}
	}
	if noticeBarePattern.MatchString(legend) {
		return []string{"1"}
	}
	return nil
}
