package textutil

import (
	"regexp"

	"github.com/jackzampolin/juris/internal/types"
)

// ECLIParts are the fixed leading components of an ECLI.
type ECLIParts struct {
	Country string
	Court   string
	Year    string
	Type    string
}

var ecliPartsPattern = regexp.MustCompile(`^ECLI:([A-Z]{2}):([A-Z0-9]+):(\d{4}):([A-Z]+)`)

// ParseECLI splits an ECLI into country, court, year and decision type.
func ParseECLI(ecli string) (ECLIParts, bool) {
	match := ecliPartsPattern.FindStringSubmatch(ecli)
	if match == nil {
		return ECLIParts{}, false
	}
	return ECLIParts{Country: match[1], Court: match[2], Year: match[3], Type: match[4]}, true
}

// FileInfo is what a raw document's name says about it.
type FileInfo struct {
	Language types.Language
	ECLI     string
}

var (
	fileNamePattern     = regexp.MustCompile(`^[A-Za-z0-9.\-]+_([A-Z]{2})_([A-Z0-9]+)_(\d{4})_([A-Z]+)\.([^_]+)_[A-Z]{2}\.json$`)
	fileLanguagePattern = regexp.MustCompile(`_(FR|NL|DE)\.json$`)
)

// ParseFileName reads the language suffix (FR when absent) and, when the
// name follows host_COUNTRY_COURT_YEAR_TYPE.rest_LANG.json exactly, the ECLI.
func ParseFileName(name string) FileInfo {
	info := FileInfo{Language: types.LanguageFR}
	if match := fileLanguagePattern.FindStringSubmatch(name); match != nil {
		info.Language = types.Language(match[1])
	}
	if match := fileNamePattern.FindStringSubmatch(name); match != nil {
		info.ECLI = "ECLI:" + match[1] + ":" + match[2] + ":" + match[3] + ":" + match[4] + "." + match[5]
	}
	return info
}
