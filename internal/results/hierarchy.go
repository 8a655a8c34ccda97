package results

import (
	"github.com/rmharte/rxq/internal/api"
)

// BuildGroup assembles one canonical DrugGroup from a raw record. Backend
// order is authoritative: manufacturer groups and variants keep their
// input order and no re-grouping or sorting happens client-side. When the
// record carries no manufacturer grouping, Manufacturers stays empty and
// the flat Variants list is the display source.
func BuildGroup(raw api.GroupRecord) DrugGroup {
	group := DrugGroup{
		ID:             raw.GroupID,
		Title:          ResolveTitle(raw),
		IsGeneric:      NormalizeBool(raw.IsGeneric),
		GCNSeqno:       raw.GCNSeqno,
		Indication:     CleanText(raw.Indication),
		DrugClass:      raw.DrugClass,
		DosageForms:    ensureStrings(raw.DosageForms),
		MatchType:      raw.MatchType,
		MatchReason:    CleanText(raw.MatchReason),
		BestSimilarity: raw.BestSimilarity,
		Variants:       NormalizeVariants(raw.Variants),
		Manufacturers:  make([]ManufacturerGroup, 0, len(raw.ManufacturerGroups)),
	}

	for _, mg := range raw.ManufacturerGroups {
		group.Manufacturers = append(group.Manufacturers, ManufacturerGroup{
			Manufacturer: mg.Manufacturer,
			Variants:     NormalizeVariants(mg.Variants),
		})
	}
	return group
}

// BuildGroups maps a full result sequence, preserving backend ranking.
func BuildGroups(raws []api.GroupRecord) []DrugGroup {
	groups := make([]DrugGroup, 0, len(raws))
	for _, raw := range raws {
		groups = append(groups, BuildGroup(raw))
	}
	return groups
}
