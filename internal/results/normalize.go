package results

import (
	"html"
	"strings"

	"github.com/rmharte/rxq/internal/api"
)

// titlePlaceholder is the last resort when a group carries no usable name.
const titlePlaceholder = "Medication"

// NormalizeBool coerces the backend's loosely typed boolean fields. A
// native bool passes through; text is true iff it case-insensitively
// equals "true"; anything else, including absent, is false.
func NormalizeBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

// ResolveTitle picks a group's display title from an ordered candidate
// list: brand name, display name, generic name, group ID. First non-empty
// wins; a group with none of them gets the literal placeholder.
func ResolveTitle(raw api.GroupRecord) string {
	for _, candidate := range []string{raw.BrandName, raw.DisplayName, raw.GenericName, raw.GroupID} {
		if cleaned := CleanText(candidate); cleaned != "" {
			return cleaned
		}
	}
	return titlePlaceholder
}

// NormalizeVariant maps one raw variant record into its canonical shape.
func NormalizeVariant(raw api.VariantRecord) Variant {
	return Variant{
		NDC:          Deref(raw.NDC),
		Label:        CleanText(raw.Label),
		DosageForm:   raw.DosageForm,
		Strength:     raw.Strength,
		Manufacturer: raw.Manufacturer,
		IsGeneric:    NormalizeBool(raw.IsGeneric),
		Similarity:   raw.SimilarityScore,
		DEASchedule:  Deref(raw.DEASchedule),
	}
}

// NormalizeVariants maps a raw variant sequence in order. An absent
// sequence becomes an empty one, never nil, so downstream code never
// branches on presence.
func NormalizeVariants(raws []api.VariantRecord) []Variant {
	variants := make([]Variant, 0, len(raws))
	for _, raw := range raws {
		variants = append(variants, NormalizeVariant(raw))
	}
	return variants
}

// Deref safely dereferences a string pointer, returning "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CleanText unescapes HTML entities and normalizes whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func ensureStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
