package transform

import (
	"strings"

	"github.com/jackzampolin/juris/internal/mapping"
	"github.com/jackzampolin/juris/internal/textutil"
	"github.com/jackzampolin/juris/internal/types"
)

// state carries cross-section facts to the post-processing step.
type state struct {
	legendDate textutil.Date
	legends    []string
}

var (
	// Paragraphs of a full-text section that are download artifacts.
	pdfArtifactPrefixes = []string{"document pdf", "pdf document"}

	// Bare labels repeated inside the full-text section.
	fullTextLabels = map[string]bool{
		"texte de la décision":    true,
		"texte des conclusions":   true,
		"tekst van de beslissing": true,
		"tekst van de conclusie":  true,
		"text der entscheidung":   true,
	}

	noticePlaceholders = map[string]bool{"": true, "-": true, ":": true, "–": true}
)

func paragraphText(paragraphs []types.RawParagraph, i int) string {
	if i < 0 || i >= len(paragraphs) {
		return ""
	}
	return strings.TrimSpace(paragraphs[i].Text)
}

// decisionCard reads labelled values from the paragraph after each label.
// A label seen twice keeps the later value.
func (t *Transformer) decisionCard(section types.RawSection, rec *types.Record, st *state) {
	paragraphs := section.Paragraphs
	for i := range paragraphs {
		text := paragraphText(paragraphs, i)
		if text == "" {
			continue
		}
		value := paragraphText(paragraphs, i+1)

		switch field := t.mapper.IdentifyField(text); field {
		case mapping.FieldECLI:
			if strings.HasPrefix(value, "ECLI:") {
				rec.DecisionID = value
			}
		case mapping.FieldRolNumber:
			if value != "" {
				rec.RolNumber = value
			}
		case mapping.FieldChamber:
			if value != "" {
				rec.Chamber = value
			}
		case mapping.FieldFieldOfLaw:
			if value != "" {
				rec.FieldOfLaw = value
			}
		case mapping.FieldCase:
			if value != "" {
				rec.Case = value
			}
		case mapping.FieldVersions:
			if versions := textutil.ParseVersions(paragraphs, i); len(versions) > 0 {
				rec.Versions = versions
			}
		case mapping.FieldECLIAlias:
			if value == "" {
				continue
			}
			aliases := []string{}
			for _, alias := range textutil.FormatECLIAlias(value) {
				if strings.HasPrefix(alias, "ECLI:") {
					aliases = types.AppendUnique(aliases, alias)
				}
			}
			rec.EcliAlias = aliases
		case mapping.FieldNone,
			mapping.FieldKeywordsCassation,
			mapping.FieldKeywordsUtu,
			mapping.FieldKeywordsFree,
			mapping.FieldLegalBasis:
			// Not part of the decision card.
		}
	}

	if !st.legendDate.IsFull() {
		if d, ok := textutil.DateFromLegend(section.Legend, rec.LanguageMetadata); ok {
			st.legendDate = d
		}
	}
}

// noticeCard builds one summary per notice section. The first paragraph
// is always the summary text; keyword fields are gathered from the rest
// and deduplicated across repeated labels.
func (t *Transformer) noticeCard(section types.RawSection, rec *types.Record) {
	paragraphs := section.Paragraphs

	summaryID := "1"
	if numbers := t.mapper.ExtractNoticeNumbers(section.Legend); len(numbers) > 0 {
		summaryID = numbers[0]
	}

	var summaryText string
	if first := paragraphText(paragraphs, 0); !noticePlaceholders[first] {
		summaryText = first
	}

	var cassation, utu, free, basis []string
	for i := 1; i < len(paragraphs); i++ {
		text := paragraphText(paragraphs, i)
		if text == "" {
			continue
		}
		switch t.mapper.IdentifyField(text) {
		case mapping.FieldKeywordsCassation:
			cassation = append(cassation, textutil.MergeKeywordValues(paragraphs, i, textutil.KeywordCassation)...)
		case mapping.FieldKeywordsUtu:
			utu = append(utu, textutil.MergeKeywordValues(paragraphs, i, textutil.KeywordUtu)...)
		case mapping.FieldKeywordsFree:
			free = append(free, textutil.MergeKeywordValues(paragraphs, i, textutil.KeywordFree)...)
		case mapping.FieldLegalBasis:
			basis = append(basis, textutil.ExtractLegalBasis(paragraphs, i)...)
		}
	}

	summary := types.Summary{
		SummaryID:         summaryID,
		Summary:           summaryText,
		KeywordsCassation: types.AppendUnique([]string{}, cassation...),
		KeywordsUtu:       types.AppendUnique([]string{}, utu...),
		KeywordsFree:      strings.Join(types.AppendUnique(nil, free...), " "),
		LegalBasis:        types.AppendUnique([]string{}, basis...),
	}
	if summary.HasContent() {
		rec.Summaries = append(rec.Summaries, summary)
	}
}

func isFullTextArtifact(text string) bool {
	lower := strings.ToLower(text)
	for _, prefix := range pdfArtifactPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return fullTextLabels[strings.TrimSuffix(lower, ":")]
}

// fullText joins the body paragraphs. The "<>" placeholder means no text.
func (t *Transformer) fullText(section types.RawSection, rec *types.Record) {
	var texts, htmls []string
	for _, p := range section.Paragraphs {
		text := strings.TrimSpace(p.Text)
		if text == "" || isFullTextArtifact(text) {
			continue
		}
		texts = append(texts, text)
		if h := strings.TrimSpace(p.HTML); h != "" {
			htmls = append(htmls, h)
		}
	}

	cleaned := textutil.RemovePDFSuffix(textutil.CleanText(strings.Join(texts, " ")))
	switch cleaned {
	case "<>":
		rec.FullText = ""
		rec.FullHTML = ""
	case "":
	default:
		rec.FullText = cleaned
		rec.FullHTML = textutil.RemovePDFSuffix(strings.Join(htmls, "\n"))
	}

	if url := textutil.PDFURL(section.Paragraphs); url != "" {
		rec.URLPdf = url
	}
}

// relatedPublications collects ECLI references under each relation label
// up to the next label.
func (t *Transformer) relatedPublications(section types.RawSection, rec *types.Record) {
	paragraphs := section.Paragraphs
	for i := range paragraphs {
		kind := t.mapper.IdentifyRelation(paragraphText(paragraphs, i))
		if kind == mapping.RelationNone {
			continue
		}
		if kind == mapping.RelationOpinion {
			if i+1 < len(paragraphs) {
				rec.OpinionPublicAttorney = paragraphText(paragraphs, i+1)
			}
			continue
		}

		values := t.relatedECLIs(paragraphs, i)
		if len(values) == 0 {
			continue
		}
		if target := relationTarget(rec, kind); target != nil {
			*target = values
		}
	}
}

func (t *Transformer) relatedECLIs(paragraphs []types.RawParagraph, start int) []string {
	values := []string{}
	for i := start + 1; i < len(paragraphs); i++ {
		text := paragraphText(paragraphs, i)
		if t.mapper.IdentifyRelation(text) != mapping.RelationNone {
			break
		}
		if strings.Contains(text, "ECLI") {
			values = types.AppendUnique(values, text)
		}
		for _, link := range paragraphs[i].Links {
			if linkText := strings.TrimSpace(link.Text); strings.Contains(linkText, "ECLI") {
				values = types.AppendUnique(values, linkText)
			}
		}
	}
	return values
}

func relationTarget(rec *types.Record, kind mapping.RelationKind) *[]string {
	switch kind {
	case mapping.RelationCiting:
		return &rec.Citing
	case mapping.RelationPrecedent:
		return &rec.Precedent
	case mapping.RelationCitedIn:
		return &rec.CitedIn
	case mapping.RelationSeeMoreRecently:
		return &rec.SeeMoreRecently
	case mapping.RelationPrecededBy:
		return &rec.PrecededBy
	case mapping.RelationFollowedBy:
		return &rec.FollowedBy
	case mapping.RelationRectification:
		return &rec.Rectification
	case mapping.RelationRelatedCase:
		return &rec.RelatedCase
	case mapping.RelationNone, mapping.RelationOpinion:
		return nil
	}
	return nil
}
