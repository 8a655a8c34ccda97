package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/results"
)

// Styles for terminal output.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	genericTag   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))  // green
	brandTag     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))  // magenta
	scheduleTag  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))  // red
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))             // yellow
	dimStyle     = lipgloss.NewStyle().Faint(true)
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	exactStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	pharmaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	therapeuticStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// GroupJSON is the JSON output shape for one result group. Grouped
// variants appear under manufacturers; the flat list is only populated
// when the backend sent no manufacturer partition.
type GroupJSON struct {
	ID             string             `json:"group_id"`
	Title          string             `json:"title"`
	MatchType      string             `json:"match_type"`
	MatchLabel     string             `json:"match_label"`
	MatchReason    string             `json:"match_reason,omitempty"`
	IsGeneric      bool               `json:"is_generic"`
	GCNSeqno       string             `json:"gcn_seqno,omitempty"`
	Indication     string             `json:"indication,omitempty"`
	DrugClass      string             `json:"drug_class,omitempty"`
	DosageForms    []string           `json:"dosage_forms"`
	BestSimilarity *float64           `json:"best_similarity,omitempty"`
	VariantCount   int                `json:"variant_count"`
	Manufacturers  []ManufacturerJSON `json:"manufacturers,omitempty"`
	Variants       []VariantJSON      `json:"variants,omitempty"`
}

// ManufacturerJSON is one manufacturer section in JSON output.
type ManufacturerJSON struct {
	Manufacturer string        `json:"manufacturer"`
	Variants     []VariantJSON `json:"variants"`
}

// VariantJSON is the JSON output shape for one variant.
type VariantJSON struct {
	NDC          string   `json:"ndc,omitempty"`
	Label        string   `json:"label"`
	DosageForm   string   `json:"dosage_form,omitempty"`
	Strength     string   `json:"strength,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	IsGeneric    bool     `json:"is_generic"`
	Similarity   *float64 `json:"similarity,omitempty"`
	DEASchedule  string   `json:"dea_schedule,omitempty"`
}

// DrugJSON is the JSON output shape for a single-drug record.
type DrugJSON struct {
	NDC               string `json:"ndc"`
	DrugName          string `json:"drug_name"`
	BrandName         string `json:"brand_name,omitempty"`
	GenericName       string `json:"generic_name,omitempty"`
	GCNSeqno          string `json:"gcn_seqno,omitempty"`
	IsGeneric         bool   `json:"is_generic"`
	DosageForm        string `json:"dosage_form,omitempty"`
	DEASchedule       string `json:"dea_schedule,omitempty"`
	Indication        string `json:"indication,omitempty"`
	DrugClass         string `json:"drug_class,omitempty"`
	AlternativesCount int    `json:"alternatives_count"`
	PricingNote       string `json:"pricing_note,omitempty"`
}

// AlternativesJSON is the JSON output shape for an alternatives lookup.
type AlternativesJSON struct {
	Drug           DrugJSON      `json:"drug"`
	GenericOptions []VariantJSON `json:"generic_options"`
	BrandOptions   []VariantJSON `json:"brand_options"`
	TotalCount     int           `json:"total_count"`
}

// PrintGroups renders a full result tree to the writer. The one-shot CLI
// has no expansion state, so everything prints open.
func PrintGroups(w io.Writer, query string, groups []results.DrugGroup) {
	fmt.Fprintf(w, "\n%s — %s\n\n",
		headerStyle.Render(fmt.Sprintf("Results for %q", query)),
		cyanStyle.Render(fmt.Sprintf("%d groups", len(groups))),
	)

	for _, g := range groups {
		printGroup(w, g)
		fmt.Fprintln(w)
	}
}

// PrintGroupsJSON renders a result tree as JSON.
func PrintGroupsJSON(w io.Writer, groups []results.DrugGroup) error {
	out := make([]GroupJSON, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupJSON(g))
	}
	return json.NewEncoder(w).Encode(out)
}

// PrintSearchMeta prints the dim telemetry/query-interpretation footer.
// Absent blocks are simply not displayed.
func PrintSearchMeta(w io.Writer, resp *api.SearchResponse) {
	if resp == nil {
		return
	}
	if qi := resp.QueryInfo; qi != nil {
		if qi.Expanded != "" && qi.Expanded != qi.Original {
			fmt.Fprintf(w, "%s\n", dimStyle.Render("Interpreted as: "+qi.Expanded))
		}
		if len(qi.Corrections) > 0 {
			fmt.Fprintf(w, "%s\n", dimStyle.Render("Corrections: "+strings.Join(qi.Corrections, ", ")))
		}
	}
	if m := resp.Metrics; m != nil {
		parts := []string{fmt.Sprintf("total %.0fms", m.TotalLatencyMS)}
		if m.LLM != nil {
			parts = append(parts, fmt.Sprintf("llm %.0fms", m.LLM.LatencyMS))
		}
		if m.Embedding != nil {
			parts = append(parts, fmt.Sprintf("embedding %.0fms", m.Embedding.LatencyMS))
		}
		if m.SearchIndex != nil {
			parts = append(parts, fmt.Sprintf("index %.0fms", m.SearchIndex.LatencyMS))
		}
		fmt.Fprintf(w, "%s\n", dimStyle.Render("Latency: "+strings.Join(parts, " | ")))
	}
}

// PrintDrugDetail renders one drug record.
func PrintDrugDetail(w io.Writer, resp *api.DrugDetailResponse) {
	d := resp.Drug
	if d == nil {
		PrintWarning(w, "No drug record in response.")
		return
	}

	fmt.Fprintf(w, "\n  %s %s\n", titleStyle.Render(drugTitle(d)), genericBrandTag(results.NormalizeBool(d.IsGeneric)))

	var meta []string
	if d.NDC != "" {
		meta = append(meta, "NDC "+d.NDC)
	}
	if d.DosageForm != "" {
		meta = append(meta, d.DosageForm)
	}
	if s := results.Deref(d.DEASchedule); s != "" {
		meta = append(meta, scheduleTag.Render("DEA "+s))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(meta, " | "))
	}

	if d.DrugClass != "" {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("Class:"), d.DrugClass)
	}
	if ind := results.CleanText(d.Indication); ind != "" {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("Indication:"), ind)
	}
	if d.GCNSeqno != "" {
		fmt.Fprintf(w, "  %s %s\n", dimStyle.Render("GCN:"), d.GCNSeqno)
	}
	fmt.Fprintf(w, "  %s\n", cyanStyle.Render(fmt.Sprintf("%d alternatives available", d.AlternativesCount)))
	if d.Pricing != nil && !d.Pricing.Available && d.Pricing.Note != "" {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Pricing: "+d.Pricing.Note))
	}
	fmt.Fprintln(w)
}

// PrintDrugDetailJSON renders one drug record as JSON.
func PrintDrugDetailJSON(w io.Writer, resp *api.DrugDetailResponse) error {
	if resp.Drug == nil {
		return json.NewEncoder(w).Encode(nil)
	}
	return json.NewEncoder(w).Encode(toDrugJSON(resp.Drug))
}

// PrintAlternatives renders the generic/brand option sections for a drug.
func PrintAlternatives(w io.Writer, resp *api.AlternativesResponse) {
	if resp.Drug == nil || resp.Alternatives == nil {
		PrintWarning(w, "No alternatives in response.")
		return
	}

	fmt.Fprintf(w, "\n%s\n\n", headerStyle.Render(
		fmt.Sprintf("Alternatives for %s (NDC %s)", drugTitle(resp.Drug), resp.Drug.NDC),
	))

	printOptionSection(w, "Generic options", resp.Alternatives.GenericOptions)
	printOptionSection(w, "Brand options", resp.Alternatives.BrandOptions)
	fmt.Fprintf(w, "  %s\n\n", cyanStyle.Render(fmt.Sprintf("%d total", resp.Alternatives.TotalCount)))
}

// PrintAlternativesJSON renders an alternatives lookup as JSON.
func PrintAlternativesJSON(w io.Writer, resp *api.AlternativesResponse) error {
	if resp.Drug == nil || resp.Alternatives == nil {
		return json.NewEncoder(w).Encode(nil)
	}
	out := AlternativesJSON{
		Drug:           toDrugJSON(resp.Drug),
		GenericOptions: toOptionJSON(resp.Alternatives.GenericOptions),
		BrandOptions:   toOptionJSON(resp.Alternatives.BrandOptions),
		TotalCount:     resp.Alternatives.TotalCount,
	}
	return json.NewEncoder(w).Encode(out)
}

// PrintError prints a styled error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render(msg))
}

// PrintWarning prints a styled warning message.
func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render(msg))
}

func printGroup(w io.Writer, g results.DrugGroup) {
	fmt.Fprintf(w, "  %s %s %s\n",
		titleStyle.Render(g.Title),
		MatchTag(g.MatchLabel()),
		genericBrandTag(g.IsGeneric),
	)

	var meta []string
	if s := FormatScore(g.BestSimilarity); s != "" {
		meta = append(meta, scoreStyle.Render("best "+s))
	}
	if g.DrugClass != "" {
		meta = append(meta, g.DrugClass)
	}
	if len(g.DosageForms) > 0 {
		meta = append(meta, strings.Join(g.DosageForms, ", "))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(strings.Join(meta, " | ")))
	}
	if g.Indication != "" {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(wordWrap(g.Indication, 72, "    ")))
	}
	if g.MatchReason != "" {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(g.MatchReason))
	}

	if g.Grouped() {
		for _, mg := range g.Manufacturers {
			fmt.Fprintf(w, "    %s\n", cyanStyle.Render(ManufacturerName(mg.Manufacturer)))
			for _, v := range mg.Variants {
				printVariant(w, v, "      ")
			}
		}
		return
	}
	for _, v := range g.Variants {
		printVariant(w, v, "    ")
	}
}

func printVariant(w io.Writer, v results.Variant, indent string) {
	label := v.Label
	if label == "" {
		label = "Unlabeled variant"
	}

	parts := []string{label}
	if v.Strength != "" {
		parts = append(parts, v.Strength)
	}
	if v.DosageForm != "" {
		parts = append(parts, v.DosageForm)
	}
	if v.NDC != "" {
		parts = append(parts, dimStyle.Render("NDC "+v.NDC))
	}
	if v.DEASchedule != "" {
		parts = append(parts, scheduleTag.Render("DEA "+v.DEASchedule))
	}
	if s := FormatScore(v.Similarity); s != "" {
		parts = append(parts, scoreStyle.Render(s))
	}
	fmt.Fprintf(w, "%s• %s\n", indent, strings.Join(parts, "  "))
}

func printOptionSection(w io.Writer, header string, options []api.AlternativeOption) {
	if len(options) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", titleStyle.Render(fmt.Sprintf("%s (%d):", header, len(options))))
	for _, o := range options {
		name := results.CleanText(o.DrugName)
		if name == "" {
			name = results.CleanText(o.BrandName)
		}
		if name == "" {
			name = results.CleanText(o.GenericName)
		}
		if name == "" {
			name = "Medication"
		}
		parts := []string{name}
		if o.DosageForm != "" {
			parts = append(parts, o.DosageForm)
		}
		if ndc := results.Deref(o.NDC); ndc != "" {
			parts = append(parts, dimStyle.Render("NDC "+ndc))
		}
		fmt.Fprintf(w, "    • %s\n", strings.Join(parts, "  "))
	}
	fmt.Fprintln(w)
}

// MatchTag renders a colored match-category tag.
func MatchTag(label string) string {
	switch label {
	case results.LabelVectorSearch:
		return exactStyle.Render("[" + label + "]")
	case results.LabelPharmacological:
		return pharmaStyle.Render("[" + label + "]")
	case results.LabelTherapeuticAlt:
		return therapeuticStyle.Render("[" + label + "]")
	default:
		return dimStyle.Render("[" + label + "]")
	}
}

// FormatScore renders a similarity score, "" when absent.
func FormatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *score)
}

// ManufacturerName fills the display fallback for a blank manufacturer.
func ManufacturerName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Unknown manufacturer"
	}
	return name
}

func genericBrandTag(isGeneric bool) string {
	if isGeneric {
		return genericTag.Render("GENERIC")
	}
	return brandTag.Render("BRAND")
}

func drugTitle(d *api.DrugDetail) string {
	for _, candidate := range []string{d.DrugName, d.BrandName, d.GenericName, d.NDC} {
		if cleaned := results.CleanText(candidate); cleaned != "" {
			return cleaned
		}
	}
	return "Medication"
}

func toGroupJSON(g results.DrugGroup) GroupJSON {
	out := GroupJSON{
		ID:             g.ID,
		Title:          g.Title,
		MatchType:      g.MatchType,
		MatchLabel:     g.MatchLabel(),
		MatchReason:    g.MatchReason,
		IsGeneric:      g.IsGeneric,
		GCNSeqno:       g.GCNSeqno,
		Indication:     g.Indication,
		DrugClass:      g.DrugClass,
		DosageForms:    g.DosageForms,
		BestSimilarity: g.BestSimilarity,
		VariantCount:   g.VariantCount(),
	}
	if g.Grouped() {
		out.Manufacturers = make([]ManufacturerJSON, 0, len(g.Manufacturers))
		for _, mg := range g.Manufacturers {
			out.Manufacturers = append(out.Manufacturers, ManufacturerJSON{
				Manufacturer: mg.Manufacturer,
				Variants:     toVariantJSON(mg.Variants),
			})
		}
		return out
	}
	out.Variants = toVariantJSON(g.Variants)
	return out
}

func toVariantJSON(variants []results.Variant) []VariantJSON {
	out := make([]VariantJSON, 0, len(variants))
	for _, v := range variants {
		out = append(out, VariantJSON{
			NDC:          v.NDC,
			Label:        v.Label,
			DosageForm:   v.DosageForm,
			Strength:     v.Strength,
			Manufacturer: v.Manufacturer,
			IsGeneric:    v.IsGeneric,
			Similarity:   v.Similarity,
			DEASchedule:  v.DEASchedule,
		})
	}
	return out
}

func toOptionJSON(options []api.AlternativeOption) []VariantJSON {
	out := make([]VariantJSON, 0, len(options))
	for _, o := range options {
		out = append(out, VariantJSON{
			NDC:        results.Deref(o.NDC),
			Label:      results.CleanText(o.DrugName),
			DosageForm: o.DosageForm,
			IsGeneric:  results.NormalizeBool(o.IsGeneric),
		})
	}
	return out
}

func toDrugJSON(d *api.DrugDetail) DrugJSON {
	out := DrugJSON{
		NDC:               d.NDC,
		DrugName:          results.CleanText(d.DrugName),
		BrandName:         results.CleanText(d.BrandName),
		GenericName:       results.CleanText(d.GenericName),
		GCNSeqno:          d.GCNSeqno,
		IsGeneric:         results.NormalizeBool(d.IsGeneric),
		DosageForm:        d.DosageForm,
		DEASchedule:       results.Deref(d.DEASchedule),
		Indication:        results.CleanText(d.Indication),
		DrugClass:         d.DrugClass,
		AlternativesCount: d.AlternativesCount,
	}
	if d.Pricing != nil {
		out.PricingNote = d.Pricing.Note
	}
	return out
}

func wordWrap(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n"+indent)
}
