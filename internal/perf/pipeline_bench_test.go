package perf_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/display"
	"github.com/rmharte/rxq/internal/results"
)

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func benchmarkVariants(groupIdx, count int) []api.VariantRecord {
	variants := make([]api.VariantRecord, 0, count)
	for i := range count {
		strength := fmt.Sprintf("%dmg", (i%8+1)*10)
		form := "tablet"
		if i%3 == 0 {
			form = "capsule"
		}
		variant := api.VariantRecord{
			NDC:             strPtr(fmt.Sprintf("%05d%04d%02d", groupIdx, i, i%100)),
			Label:           fmt.Sprintf("Benchmarkol %d %s", groupIdx, strength),
			DosageForm:      form,
			Strength:        strength,
			Manufacturer:    fmt.Sprintf("Maker %d", i%4),
			IsGeneric:       i%2 == 0,
			SimilarityScore: floatPtr(90 - float64(i%10)*2),
		}
		if i%11 == 0 {
			variant.IsGeneric = "true"
		}
		variants = append(variants, variant)
	}
	return variants
}

func benchmarkGroups(count int) []api.GroupRecord {
	matchTypes := []string{"exact", "pharmacologic", "therapeutic_alternative", "fuzzy"}

	groups := make([]api.GroupRecord, 0, count)
	for i := range count {
		group := api.GroupRecord{
			GroupID:     fmt.Sprintf("group-%d", i),
			DisplayName: fmt.Sprintf("Benchmarkol %d", i),
			BrandName:   fmt.Sprintf("Benchmax %d", i),
			GenericName: fmt.Sprintf("benchmarkol %d", i),
			IsGeneric:   i%2 == 0,
			DrugClass:   "HMG-CoA reductase inhibitor",
			Indication:  "Benchmark fixture for the search pipeline with a wrapped indication line",
			DosageForms: []string{"tablet", "capsule"},
			MatchType:   matchTypes[i%len(matchTypes)],
		}
		if i%3 == 0 {
			// Every third group carries manufacturer sections instead of a
			// flat variant list.
			group.ManufacturerGroups = []api.ManufacturerRecord{
				{Manufacturer: "Maker 0", Variants: benchmarkVariants(i, 4)},
				{Manufacturer: "Maker 1", Variants: benchmarkVariants(i, 3)},
			}
		} else {
			group.Variants = benchmarkVariants(i, 6)
		}
		groups = append(groups, group)
	}
	return groups
}

func setupPipelineServer(b *testing.B, groupCount int) *api.Client {
	b.Helper()

	groups := benchmarkGroups(groupCount)
	payload, err := json.Marshal(api.SearchResponse{
		Success:      true,
		Results:      groups,
		TotalResults: len(groups),
	})
	if err != nil {
		b.Fatalf("marshal search payload: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	b.Cleanup(server.Close)

	return api.NewClient(server.URL)
}

func runPipeline(b *testing.B, client *api.Client) {
	b.Helper()

	resp, err := client.Search(context.Background(), api.SearchRequest{
		Query:      "benchmarkol",
		MaxResults: 100,
	})
	if err != nil {
		b.Fatalf("search: %v", err)
	}

	groups := results.BuildGroups(resp.Results)
	if len(groups) == 0 {
		b.Fatalf("pipeline produced no groups")
	}
	if err := display.PrintGroupsJSON(io.Discard, groups); err != nil {
		b.Fatalf("print groups json: %v", err)
	}
}

func BenchmarkSearchPipeline_200Groups(b *testing.B) {
	client := setupPipelineServer(b, 200)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		runPipeline(b, client)
	}
}
