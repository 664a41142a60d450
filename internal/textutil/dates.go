// Package textutil holds the language-aware parsing helpers used by the
// transformer: dates, ECLI parts, keyword merging and text cleanup.
package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/juris/internal/types"
)

// Precision describes how much of a date is known.
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionDay
)

// Date is either a full YYYY-MM-DD date or a bare YYYY year.
type Date struct {
	Value     string
	Precision Precision
}

// IsFull reports whether the date carries a day.
func (d Date) IsFull() bool { return d.Precision == PrecisionDay }

// IsZero reports whether nothing is known.
func (d Date) IsZero() bool { return d.Precision == PrecisionNone }

var (
	yearOnlyPattern = regexp.MustCompile(`^\d{4}$`)
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	ecliEmbeddedDatePattern = regexp.MustCompile(`:(\d{4}):.*?\.(\d{8})\.`)
	ecliYearPattern         = regexp.MustCompile(`:(\d{4}):`)

	legendDatePatterns = map[types.Language]*regexp.Regexp{
		types.LanguageFR: regexp.MustCompile(`(?i)\bdu\s+(\d{1,2})(?:er)?\s+(\p{L}+)\s+(\d{4})`),
		types.LanguageNL: regexp.MustCompile(`(?i)\bvan\s+(\d{1,2})\s+(\p{L}+)\s+(\d{4})`),
		types.LanguageDE: regexp.MustCompile(`(?i)\bvom\s+(\d{1,2})\.?\s+(\p{L}+)\s+(\d{4})`),
	}
)

var months = map[types.Language]map[string]int{
	types.LanguageFR: {
		"janvier": 1, "février": 2, "fevrier": 2, "mars": 3, "avril": 4, "mai": 5, "juin": 6,
		"juillet": 7, "août": 8, "aout": 8, "septembre": 9, "octobre": 10, "novembre": 11,
		"décembre": 12, "decembre": 12,
	},
	types.LanguageNL: {
		"januari": 1, "februari": 2, "maart": 3, "april": 4, "mei": 5, "juni": 6,
		"juli": 7, "augustus": 8, "september": 9, "oktober": 10, "november": 11, "december": 12,
	},
	types.LanguageDE: {
		"januar": 1, "februar": 2, "märz": 3, "maerz": 3, "april": 4, "mai": 5, "juni": 6,
		"juli": 7, "august": 8, "september": 9, "oktober": 10, "november": 11, "dezember": 12,
	},
}

// ParseDate classifies an already-resolved date string.
func ParseDate(value string) Date {
	value = strings.TrimSpace(value)
	switch {
	case yearOnlyPattern.MatchString(value):
		return Date{Value: value, Precision: PrecisionYear}
	case IsCalendarDate(value):
		return Date{Value: value, Precision: PrecisionDay}
	default:
		return Date{}
	}
}

// IsCalendarDate reports whether value is a real YYYY-MM-DD date.
func IsCalendarDate(value string) bool {
	if !isoDatePattern.MatchString(value) {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// DateFromECLI reads the YYYYMMDD group embedded in an ECLI tail. A missing
// or impossible date falls back to the ECLI year.
func DateFromECLI(ecli string) Date {
	if ecli == "" {
		return Date{}
	}
	if match := ecliEmbeddedDatePattern.FindStringSubmatch(ecli); match != nil {
		if t, err := time.Parse("20060102", match[2]); err == nil {
			return Date{Value: t.Format("2006-01-02"), Precision: PrecisionDay}
		}
	}
	if match := ecliYearPattern.FindStringSubmatch(ecli); match != nil {
		return Date{Value: match[1], Precision: PrecisionYear}
	}
	return Date{}
}

// DateFromLegend parses "du 22 juin 2007", "van 3 maart 2015" or
// "vom 12 März 2019" depending on the language. It never falls back.
func DateFromLegend(legend string, lang types.Language) (Date, bool) {
	pattern, ok := legendDatePatterns[lang]
	if !ok {
		pattern = legendDatePatterns[types.LanguageFR]
		lang = types.LanguageFR
	}
	match := pattern.FindStringSubmatch(legend)
	if match == nil {
		return Date{}, false
	}
	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])
	month, ok := months[lang][norm.NFC.String(strings.ToLower(match[2]))]
	if !ok {
		return Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return Date{}, false
	}
	return Date{Value: t.Format("2006-01-02"), Precision: PrecisionDay}, true
}

var datePrepositionPattern = regexp.MustCompile(`(?i)\b(?:du|van|vom)\b`)

// HasDatePreposition reports whether a legend could carry a spelled-out date.
func HasDatePreposition(legend string) bool {
	return datePrepositionPattern.MatchString(legend)
}
