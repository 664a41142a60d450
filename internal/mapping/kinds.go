// Package mapping classifies section legends and paragraph labels of raw
// Juportal documents into canonical field, section and relation kinds.
package mapping

// FieldKind is a canonical record field addressed by a paragraph label.
type FieldKind int

const (
	FieldNone FieldKind = iota
	FieldECLI
	FieldRolNumber
	FieldChamber
	FieldFieldOfLaw
	FieldCase
	FieldVersions
	FieldECLIAlias
	FieldKeywordsCassation
	FieldKeywordsUtu
	FieldKeywordsFree
	FieldLegalBasis
)

var fieldNames = map[FieldKind]string{
	FieldECLI:              "ecli",
	FieldRolNumber:         "rolNumber",
	FieldChamber:           "chamber",
	FieldFieldOfLaw:        "fieldOfLaw",
	FieldCase:              "case",
	FieldVersions:          "versions",
	FieldECLIAlias:         "ecliAlias",
	FieldKeywordsCassation: "keywordsCassation",
	FieldKeywordsUtu:       "keywordsUtu",
	FieldKeywordsFree:      "keywordsFree",
	FieldLegalBasis:        "legalBasis",
}

func (f FieldKind) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "none"
}

// ParseFieldKind resolves a canonical field name as used in alias tables.
func ParseFieldKind(name string) (FieldKind, bool) {
	for kind, n := range fieldNames {
		if n == name {
			return kind, true
		}
	}
	return FieldNone, false
}

// SectionKind is the role of a section, derived once from its legend.
type SectionKind int

const (
	SectionUnclassified SectionKind = iota
	SectionDecisionCard
	SectionNoticeCard
	SectionFullText
	SectionRelatedPublications
)

func (s SectionKind) String() string {
	switch s {
	case SectionDecisionCard:
		return "decision_card"
	case SectionNoticeCard:
		return "notice_card"
	case SectionFullText:
		return "full_text"
	case SectionRelatedPublications:
		return "related_publications"
	default:
		return "unclassified"
	}
}

// RelationKind is a cross-reference list in the related publications section.
type RelationKind int

const (
	RelationNone RelationKind = iota
	RelationCiting
	RelationPrecedent
	RelationCitedIn
	RelationSeeMoreRecently
	RelationPrecededBy
	RelationFollowedBy
	RelationRectification
	RelationRelatedCase
	RelationOpinion
)

func (r RelationKind) String() string {
	switch r {
	case RelationCiting:
		return "citing"
	case RelationPrecedent:
		return "precedent"
	case RelationCitedIn:
		return "citedIn"
	case RelationSeeMoreRecently:
		return "seeMoreRecently"
	case RelationPrecededBy:
		return "precededBy"
	case RelationFollowedBy:
		return "followedBy"
	case RelationRectification:
		return "rectification"
	case RelationRelatedCase:
		return "relatedCase"
	case RelationOpinion:
		return "opinionPublicAttorney"
	default:
		return "none"
	}
}
