package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Alias is one literal label that denotes a field. Language is informative
// only; matching ignores it.
type Alias struct {
	Field    FieldKind
	Language string
	Label    string
}

// Table is an ordered alias list. Row order decides ties.
type Table struct {
	Aliases []Alias
	// Skipped holds field names found in the source that are not known fields.
	Skipped []string
}

// yamlTable is the on-disk YAML layout:
//
//	fields:
//	  - field: rolNumber
//	    labels:
//	      FR: ["No Rôle:"]
//	      NL: ["Rolnummer:"]
type yamlTable struct {
	Fields []struct {
		Field  string              `yaml:"field"`
		Labels map[string][]string `yaml:"labels"`
	} `yaml:"fields"`
}

// languageOrder fixes the iteration order of per-language label lists.
var languageOrder = map[string]int{"FR": 0, "NL": 1, "DE": 2}

// LoadTable reads an alias table, choosing the format from the extension.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open mapping table: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	case ".csv":
		return ParseCSV(f)
	default:
		return Table{}, fmt.Errorf("unsupported mapping table format: %s", path)
	}
}

// ParseYAML decodes the YAML alias table layout.
func ParseYAML(r io.Reader) (Table, error) {
	var raw yamlTable
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Table{}, fmt.Errorf("failed to decode mapping table: %w", err)
	}

	var t Table
	for _, row := range raw.Fields {
		kind, ok := ParseFieldKind(strings.TrimSpace(row.Field))
		if !ok {
			t.Skipped = append(t.Skipped, row.Field)
			continue
		}
		langs := make([]string, 0, len(row.Labels))
		for lang := range row.Labels {
			langs = append(langs, lang)
		}
		sort.Slice(langs, func(i, j int) bool {
			oi, iok := languageOrder[strings.ToUpper(langs[i])]
			oj, jok := languageOrder[strings.ToUpper(langs[j])]
			if iok != jok {
				return iok
			}
			if oi != oj {
				return oi < oj
			}
			return langs[i] < langs[j]
		})
		for _, lang := range langs {
			for _, label := range row.Labels[lang] {
				if label = strings.TrimSpace(label); label != "" {
					t.Aliases = append(t.Aliases, Alias{Field: kind, Language: strings.ToUpper(lang), Label: label})
				}
			}
		}
	}
	return t, nil
}

// ParseCSV decodes the spreadsheet export layout: one row per field, the
// field name in the first cell and labels in the remaining cells. Rows whose
// first cell is empty or "---" are separators.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var t Table
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read mapping table: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || name == "---" {
			continue
		}
		kind, ok := ParseFieldKind(name)
		if !ok {
			t.Skipped = append(t.Skipped, name)
			continue
		}
		for _, cell := range row[1:] {
			label := strings.TrimSpace(strings.Trim(strings.TrimSpace(cell), `"`))
			if label != "" {
				t.Aliases = append(t.Aliases, Alias{Field: kind, Label: label})
			}
		}
	}
	return t, nil
}

// DefaultTable is the built-in alias list used when no table is configured
// or the configured one cannot be read.
func DefaultTable() Table {
	rows := []struct {
		field  FieldKind
		labels [3][]string // FR, NL, DE
	}{
		{FieldECLI, [3][]string{{"No ECLI:"}, {"ECLI nr:"}, {"ECLI-Nummer:"}}},
		{FieldRolNumber, [3][]string{{"No Rôle:", "No Arrêt/No Rôle:"}, {"Rolnummer:", "Arrest- Rolnummer:"}, {"Aktenzeichen:"}}},
		{FieldChamber, [3][]string{{"Chambre:"}, {"Kamer:"}, {"Kammer:"}}},
		{FieldFieldOfLaw, [3][]string{{"Domaine juridique:"}, {"Rechtsgebied:"}, {"Rechtsgebiet:"}}},
		{FieldCase, [3][]string{{"Affaire:"}, {"Zaak:"}, {"Sache:"}}},
		{FieldVersions, [3][]string{{"Version(s):"}, {"Versie(s):"}, {"Version(en):"}}},
		{FieldECLIAlias, [3][]string{{"ECLI Alias:", "Alias ECLI:"}, {"ECLI-alias:"}, {"ECLI-Alias:"}}},
		{FieldKeywordsCassation, [3][]string{{"Thésaurus Cassation:"}, {"Thesaurus CAS:"}, {"Thesaurus CASS:"}}},
		{FieldKeywordsUtu, [3][]string{{"Thésaurus UTU:"}, {"UTU-thesaurus:"}, {"UTU Thesaurus:"}}},
		{FieldKeywordsFree, [3][]string{{"Mots libres:"}, {"Vrije woorden:"}, {"Freie Wörter:"}}},
		{FieldLegalBasis, [3][]string{{"Bases légales:"}, {"Wettelijke bepalingen:"}, {"Rechtsgrundlage:"}}},
	}

	langs := [3]string{"FR", "NL", "DE"}
	var t Table
	for _, row := range rows {
		for i, labels := range row.labels {
			for _, label := range labels {
				t.Aliases = append(t.Aliases, Alias{Field: row.field, Language: langs[i], Label: label})
			}
		}
	}
	return t
}
