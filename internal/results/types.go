// Package results turns raw drug-search payloads into the canonical
// group / manufacturer / variant model the presentation layer consumes.
package results

// Variant is one concrete sellable unit (manufacturer, form, strength)
// after normalization. Empty strings mean the backend had no value.
type Variant struct {
	NDC          string
	Label        string
	DosageForm   string
	Strength     string
	Manufacturer string
	IsGeneric    bool
	Similarity   *float64
	DEASchedule  string
}

// ManufacturerGroup partitions a group's variants by manufacturer. Every
// variant belongs to exactly one ManufacturerGroup when the backend sent
// grouping data.
type ManufacturerGroup struct {
	Manufacturer string
	Variants     []Variant
}

// DrugGroup is one canonical result group. Manufacturers may be empty, in
// which case the presentation layer falls back to the flat Variants list.
type DrugGroup struct {
	ID             string
	Title          string
	IsGeneric      bool
	GCNSeqno       string
	Indication     string
	DrugClass      string
	DosageForms    []string
	MatchType      string
	MatchReason    string
	BestSimilarity *float64
	Manufacturers  []ManufacturerGroup
	Variants       []Variant
}

// Grouped reports whether the backend sent an explicit manufacturer
// partition for this group.
func (g DrugGroup) Grouped() bool {
	return len(g.Manufacturers) > 0
}

// VariantCount is the number of variants reachable through the group's
// display tree: the manufacturer partition when present, the flat list
// otherwise.
func (g DrugGroup) VariantCount() int {
	if !g.Grouped() {
		return len(g.Variants)
	}
	count := 0
	for _, mg := range g.Manufacturers {
		count += len(mg.Variants)
	}
	return count
}

// MatchLabel is the display category for the group's match type. The
// stored MatchType code itself is never rewritten.
func (g DrugGroup) MatchLabel() string {
	return MatchLabel(g.MatchType)
}
