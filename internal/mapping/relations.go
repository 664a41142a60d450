package mapping

import "strings"

type relationLabel struct {
	phrase string
	kind   RelationKind
}

// relationLabels are matched as lowercase substrings, in order.
var relationLabels = []relationLabel{
	{"citant:", RelationCiting},
	{"citeert:", RelationCiting},
	{"précédents:", RelationPrecedent},
	{"precedenten:", RelationPrecedent},
	{"conclusion m.p.:", RelationOpinion},
	{"conclusie o.m.:", RelationOpinion},
	{"cité par:", RelationCitedIn},
	{"geciteerd door:", RelationCitedIn},
	{"voir plus récemment:", RelationSeeMoreRecently},
	{"zie ook recenter:", RelationSeeMoreRecently},
	{"précédé par:", RelationPrecededBy},
	{"voorafgegaan door:", RelationPrecededBy},
	{"suivi par:", RelationFollowedBy},
	{"gevolgd door:", RelationFollowedBy},
	{"rectification:", RelationRectification},
	{"verbonden dossier:", RelationRelatedCase},
}

// IdentifyRelation returns the cross-reference list a label paragraph opens.
func (m *Mapper) IdentifyRelation(text string) RelationKind {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return RelationNone
	}
	for _, l := range relationLabels {
		if strings.Contains(lower, l.phrase) {
			return l.kind
		}
	}
	return RelationNone
}
