package api

import (
	"fmt"
	"net/http"
)

// SearchRequest is the body of a POST /search call.
type SearchRequest struct {
	Query      string         `json:"query"`
	MaxResults int            `json:"max_results"`
	Filters    *SearchFilters `json:"filters,omitempty"`
}

// SearchFilters narrows a search server-side. All fields are optional.
type SearchFilters struct {
	IsGeneric   *bool  `json:"is_generic,omitempty"`
	DosageForm  string `json:"dosage_form,omitempty"`
	DEASchedule string `json:"dea_schedule,omitempty"`
}

// SearchResponse is the top-level response from the drug-search service.
type SearchResponse struct {
	Success      bool          `json:"success"`
	Results      []GroupRecord `json:"results"`
	TotalResults int           `json:"total_results"`
	Metrics      *Metrics      `json:"metrics"`
	QueryInfo    *QueryInfo    `json:"query_info"`
	Message      string        `json:"message"`
	Error        string        `json:"error"`
	Timestamp    string        `json:"timestamp"`
}

// GroupRecord is one raw result group as the backend sends it. Field
// representations are not trustworthy: is_generic may be a bool or the
// strings "true"/"false", name fields may be empty, and the collections
// may be absent entirely. Normalization happens in the results package.
type GroupRecord struct {
	GroupID            string               `json:"group_id"`
	DisplayName        string               `json:"display_name"`
	BrandName          string               `json:"brand_name"`
	GenericName        string               `json:"generic_name"`
	IsGeneric          any                  `json:"is_generic"`
	GCNSeqno           string               `json:"gcn_seqno"`
	Indication         string               `json:"indication"`
	DrugClass          string               `json:"drug_class"`
	DosageForms        []string             `json:"dosage_forms"`
	MatchType          string               `json:"match_type"`
	MatchReason        string               `json:"match_reason"`
	BestSimilarity     *float64             `json:"best_similarity"`
	Variants           []VariantRecord      `json:"variants"`
	ManufacturerGroups []ManufacturerRecord `json:"manufacturer_groups"`
}

// ManufacturerRecord is the backend's explicit grouping of variants by
// manufacturer within one result group.
type ManufacturerRecord struct {
	Manufacturer string          `json:"manufacturer"`
	Variants     []VariantRecord `json:"variants"`
}

// VariantRecord is one raw sellable unit within a result group.
type VariantRecord struct {
	NDC             *string  `json:"ndc"`
	Label           string   `json:"label"`
	DosageForm      string   `json:"dosage_form"`
	Strength        string   `json:"strength"`
	Manufacturer    string   `json:"manufacturer"`
	IsGeneric       any      `json:"is_generic"`
	SimilarityScore *float64 `json:"similarity_score"`
	DEASchedule     *string  `json:"dea_schedule"`
}

// Metrics is the per-request telemetry block. Stages the backend skipped
// are nil and simply not displayed.
type Metrics struct {
	TotalLatencyMS float64       `json:"total_latency_ms"`
	LLM            *StageMetrics `json:"llm"`
	Embedding      *StageMetrics `json:"embedding"`
	SearchIndex    *StageMetrics `json:"redis"`
}

// StageMetrics describes one pipeline stage. Only a subset of fields is
// populated per stage.
type StageMetrics struct {
	LatencyMS    float64 `json:"latency_ms"`
	Model        string  `json:"model,omitempty"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	CostEstimate float64 `json:"cost_estimate,omitempty"`
	Dimensions   int     `json:"dimensions,omitempty"`
	ResultsCount int     `json:"results_count,omitempty"`
}

// QueryInfo describes how the backend interpreted the query.
type QueryInfo struct {
	Original    string         `json:"original"`
	Expanded    string         `json:"expanded"`
	SearchTerms []string       `json:"search_terms"`
	Filters     map[string]any `json:"filters"`
	Corrections []string       `json:"corrections"`
	Message     string         `json:"message"`
}

// DrugDetailResponse is the response from GET /drugs/{ndc}.
type DrugDetailResponse struct {
	Success   bool           `json:"success"`
	Drug      *DrugDetail    `json:"drug"`
	Error     string         `json:"error"`
	Metrics   *LookupMetrics `json:"metrics"`
	Timestamp string         `json:"timestamp"`
}

// DrugDetail is the full record for a single NDC.
type DrugDetail struct {
	NDC               string       `json:"ndc"`
	DrugName          string       `json:"drug_name"`
	BrandName         string       `json:"brand_name"`
	GenericName       string       `json:"generic_name"`
	GCNSeqno          string       `json:"gcn_seqno"`
	IsGeneric         any          `json:"is_generic"`
	DosageForm        string       `json:"dosage_form"`
	DEASchedule       *string      `json:"dea_schedule"`
	Indication        string       `json:"indication"`
	DrugClass         string       `json:"drug_class"`
	AlternativesCount int          `json:"alternatives_count"`
	Pricing           *PricingInfo `json:"pricing"`
}

// PricingInfo is a placeholder block until the pricing service is wired up
// backend-side.
type PricingInfo struct {
	Available bool   `json:"available"`
	Note      string `json:"note"`
}

// AlternativesResponse is the response from GET /drugs/{ndc}/alternatives.
type AlternativesResponse struct {
	Success      bool           `json:"success"`
	Drug         *DrugDetail    `json:"drug"`
	Alternatives *Alternatives  `json:"alternatives"`
	Error        string         `json:"error"`
	Metrics      *LookupMetrics `json:"metrics"`
	Timestamp    string         `json:"timestamp"`
}

// Alternatives holds same-GCN options split by generic status.
type Alternatives struct {
	GenericOptions []AlternativeOption `json:"generic_options"`
	BrandOptions   []AlternativeOption `json:"brand_options"`
	TotalCount     int                 `json:"total_count"`
}

// AlternativeOption is one substitutable drug record.
type AlternativeOption struct {
	NDC         *string `json:"ndc"`
	DrugName    string  `json:"drug_name"`
	BrandName   string  `json:"brand_name"`
	GenericName string  `json:"generic_name"`
	GCNSeqno    string  `json:"gcn_seqno"`
	IsGeneric   any     `json:"is_generic"`
	DosageForm  string  `json:"dosage_form"`
}

// LookupMetrics is the telemetry block on the single-drug endpoints.
type LookupMetrics struct {
	TotalLatencyMS float64 `json:"total_latency_ms"`
	LookupMS       float64 `json:"redis_lookup_ms,omitempty"`
	CountMS        float64 `json:"alternatives_count_ms,omitempty"`
	EnrichmentMS   float64 `json:"aurora_enrichment_ms,omitempty"`
}

// Error is a failed response from the service: either a non-2xx status or
// a 2xx body carrying success=false. Message holds the backend's own error
// text when it sent one.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d from drug-search service", e.StatusCode)
}

// NotFound reports whether the failure was a 404.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
