package importer

import "strings"

// danishHeaderHints maps logical fields to substrings commonly seen in
// Danish wholesaler export headers. Suppliers vary their header text from
// release to release, so detection degrades gracefully: a partial mapping
// is acceptable and unmapped fields simply parse empty.
var danishHeaderHints = map[string][]string{
	FieldSKU:              {"varenr", "artikelnr", "varenummer", "artikel", "vare nr"},
	FieldName:             {"beskrivelse", "betegnelse", "varetekst", "navn", "tekst"},
	FieldCostPrice:        {"indkøb", "kostpris", "nettopris", "netto"},
	FieldListPrice:        {"listepris", "vejl", "salgspris", "udsalg"},
	FieldGrossPrice:       {"bruttopris", "brutto"},
	FieldDiscountPct:      {"rabat"},
	FieldUnit:             {"enhed", "salgsenhed"},
	FieldCategory:         {"varegruppe", "kategori", "gruppe"},
	FieldSubCategory:      {"undergruppe", "underkategori"},
	FieldManufacturer:     {"fabrikat", "producent", "mærke", "leverandør"},
	FieldEAN:              {"ean", "stregkode"},
	FieldMinOrderQuantity: {"min. antal", "minimum", "bestillingsenhed"},
}

// detectionOrder fixes the field iteration order so detection is
// deterministic when two fields could claim the same column.
var detectionOrder = []string{
	FieldSKU, FieldName, FieldCostPrice, FieldListPrice, FieldGrossPrice,
	FieldDiscountPct, FieldUnit, FieldCategory, FieldSubCategory,
	FieldManufacturer, FieldEAN, FieldMinOrderQuantity,
}

// DetectColumnMappings infers a column mapping from an arbitrary header row
// and a supplier's known header names per logical field. Matching order:
// exact case-insensitive match, then substring match against known names,
// then the Danish-language heuristics.
func DetectColumnMappings(headers []string, known map[string][]string) map[string]ColumnRef {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	detected := make(map[string]ColumnRef)
	taken := make(map[int]struct{})

	claim := func(field string, idx int) {
		if _, used := taken[idx]; used {
			return
		}
		if _, done := detected[field]; done {
			return
		}
		detected[field] = ByIndex(idx)
		taken[idx] = struct{}{}
	}

	// Pass 1: exact matches against the supplier's known header names.
	for _, field := range detectionOrder {
		for _, name := range known[field] {
			target := strings.ToLower(strings.TrimSpace(name))
			for idx, h := range normalized {
				if h == target {
					claim(field, idx)
				}
			}
		}
	}

	// Pass 2: substring matches against the known names.
	for _, field := range detectionOrder {
		if _, done := detected[field]; done {
			continue
		}
		for _, name := range known[field] {
			target := strings.ToLower(strings.TrimSpace(name))
			if target == "" {
				continue
			}
			for idx, h := range normalized {
				if strings.Contains(h, target) {
					claim(field, idx)
				}
			}
		}
	}

	// Pass 3: Danish-language heuristics.
	for _, field := range detectionOrder {
		if _, done := detected[field]; done {
			continue
		}
		for _, hint := range danishHeaderHints[field] {
			for idx, h := range normalized {
				if strings.Contains(h, hint) {
					claim(field, idx)
				}
			}
		}
	}

	return detected
}
