package results_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/results"
)

func TestBuildGroup_FlatVariants(t *testing.T) {
	group := results.BuildGroup(api.GroupRecord{
		GroupID:     "metformin-500",
		GenericName: "metformin",
		IsGeneric:   "true",
		MatchType:   "exact",
		Variants: []api.VariantRecord{
			{NDC: ptr("00093104801"), Label: "Metformin 500mg"},
			{NDC: ptr("00093104901"), Label: "Metformin 850mg"},
		},
	})

	assert.False(t, group.Grouped())
	assert.True(t, group.IsGeneric)
	assert.Equal(t, 2, group.VariantCount())
	assert.Equal(t, "Metformin 500mg", group.Variants[0].Label)
	assert.Equal(t, "Vector Search", group.MatchLabel())
}

func TestBuildGroup_ManufacturerSectionsKeepOrder(t *testing.T) {
	group := results.BuildGroup(api.GroupRecord{
		GroupID:   "insulin-glargine",
		BrandName: "Lantus",
		ManufacturerGroups: []api.ManufacturerRecord{
			{Manufacturer: "Sanofi", Variants: []api.VariantRecord{
				{Label: "Lantus 100u/mL vial"},
				{Label: "Lantus SoloStar pen"},
			}},
			{Manufacturer: "Winthrop", Variants: []api.VariantRecord{
				{Label: "Insulin glargine 100u/mL"},
			}},
		},
	})

	require.True(t, group.Grouped())
	require.Len(t, group.Manufacturers, 2)
	assert.Equal(t, "Sanofi", group.Manufacturers[0].Manufacturer)
	assert.Equal(t, "Winthrop", group.Manufacturers[1].Manufacturer)
	assert.Equal(t, "Lantus 100u/mL vial", group.Manufacturers[0].Variants[0].Label)
	assert.Equal(t, 3, group.VariantCount())
}

func TestBuildGroup_SectionsTakePrecedenceOverFlat(t *testing.T) {
	group := results.BuildGroup(api.GroupRecord{
		GroupID: "g-1",
		ManufacturerGroups: []api.ManufacturerRecord{
			{Manufacturer: "Teva", Variants: []api.VariantRecord{{Label: "a"}, {Label: "b"}}},
		},
		Variants: []api.VariantRecord{{Label: "stale flat entry"}},
	})

	assert.True(t, group.Grouped())
	assert.Equal(t, 2, group.VariantCount())
}

func TestBuildGroup_DosageFormsNeverNil(t *testing.T) {
	group := results.BuildGroup(api.GroupRecord{GroupID: "g-1"})

	assert.NotNil(t, group.DosageForms)
	assert.NotNil(t, group.Variants)
	assert.NotNil(t, group.Manufacturers)
}

func TestBuildGroups_PreservesBackendOrder(t *testing.T) {
	best := 55.2
	better := 99.1
	groups := results.BuildGroups([]api.GroupRecord{
		{GroupID: "first", BestSimilarity: &best},
		{GroupID: "second", BestSimilarity: &better},
		{GroupID: "third"},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "first", groups[0].ID)
	assert.Equal(t, "second", groups[1].ID)
	assert.Equal(t, "third", groups[2].ID)
}
