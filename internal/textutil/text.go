package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/jackzampolin/juris/internal/types"
)

const juportalBaseURL = "https://juportal.be"

var (
	pdfSuffixPattern = regexp.MustCompile(`(?i)\s*(?:Document\s+PDF|PDF\s+document)\s+ECLI:[A-Z]{2}:[A-Z0-9]+:\d{4}:[\w.\-]+\s*$`)
	breakPattern     = regexp.MustCompile(`(?i)<br\s*/?>`)
	listSeparators   = regexp.MustCompile(`[;,\n]`)
)

// CleanText collapses whitespace runs into single spaces and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripTags returns the text content of an HTML fragment with entities decoded.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// RemovePDFSuffix drops a trailing "Document PDF ECLI:..." link sentence.
func RemovePDFSuffix(s string) string {
	return strings.TrimSpace(pdfSuffixPattern.ReplaceAllString(s, ""))
}

// HasBreaks reports whether markup encodes a list with <br> separators.
func HasBreaks(markup string) bool {
	return breakPattern.MatchString(markup)
}

// SplitBreaks splits markup on <br> tags and returns the cleaned, non-placeholder fragments.
func SplitBreaks(markup string) []string {
	var out []string
	for _, part := range breakPattern.Split(markup, -1) {
		if cleaned := CleanText(StripTags(part)); !isPlaceholder(cleaned) {
			out = append(out, cleaned)
		}
	}
	return out
}

// SplitList splits on semicolons, commas and newlines.
func SplitList(s string) []string {
	var out []string
	for _, part := range listSeparators.Split(s, -1) {
		if part = strings.TrimSpace(part); !isPlaceholder(part) {
			out = append(out, part)
		}
	}
	return out
}

func isPlaceholder(s string) bool {
	return s == "" || s == "-" || s == "–"
}

// FormatECLIAlias splits an alias paragraph into its trimmed, non-empty
// fragments. Fragments are kept even when they do not look like an ECLI;
// callers that need ECLIs filter on the prefix.
func FormatECLIAlias(text string) []string {
	var out []string
	for _, part := range listSeparators.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildURLFromECLI returns the official publication URL, or "" without an ECLI.
func BuildURLFromECLI(ecli string, lang types.Language) string {
	ecli = strings.TrimSpace(ecli)
	if ecli == "" {
		return ""
	}
	if lang == "" {
		lang = types.LanguageFR
	}
	return juportalBaseURL + "/content/" + ecli + "/" + strings.ToUpper(string(lang))
}

// PDFURL returns the first link into the document archive, made absolute.
func PDFURL(paragraphs []types.RawParagraph) string {
	for _, p := range paragraphs {
		for _, link := range p.Links {
			if !strings.Contains(link.Href, "/JUPORTAwork/") {
				continue
			}
			if strings.HasPrefix(link.Href, "/") {
				return juportalBaseURL + link.Href
			}
			return link.Href
		}
	}
	return ""
}

var translationMarkers = []string{"traduction", "origineel", "version", "vertaling", "übersetzung"}

// ParseVersions collects version entries from the four paragraphs after a
// versions label: link texts and paragraph texts naming a translation.
func ParseVersions(paragraphs []types.RawParagraph, start int) []string {
	var versions []string
	end := min(start+5, len(paragraphs))
	for i := start + 1; i < end; i++ {
		p := paragraphs[i]
		for _, link := range p.Links {
			if text := strings.TrimSpace(link.Text); hasTranslationMarker(text) {
				versions = types.AppendUnique(versions, text)
			}
		}
		if text := strings.TrimSpace(p.Text); hasTranslationMarker(text) {
			versions = types.AppendUnique(versions, text)
		}
	}
	return versions
}

func hasTranslationMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range translationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
