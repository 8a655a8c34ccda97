package results

// Display categories for the backend's match-type codes.
const (
	LabelVectorSearch    = "Vector Search"
	LabelPharmacological = "Pharmacological Match"
	LabelTherapeuticAlt  = "Therapeutic Alternative"
	LabelRelated         = "Related"
)

// MatchLabel maps a backend match-type code to its display category. The
// mapping is total: unknown and absent codes fall through to Related and
// never produce an error.
func MatchLabel(matchType string) string {
	switch matchType {
	case "exact":
		return LabelVectorSearch
	case "pharmacologic":
		return LabelPharmacological
	case "therapeutic_alternative":
		return LabelTherapeuticAlt
	default:
		return LabelRelated
	}
}
