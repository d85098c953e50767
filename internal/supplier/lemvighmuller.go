package supplier

import (
	"strings"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/platform/logger"
)

// LemvighMullerCode is the registry code for the Lemvigh-Müller adapter.
const LemvighMullerCode = "lm"

// Cost prices derived from gross price and discount may exceed the gross
// price slightly through rounding; anything above this tolerance gets a
// row warning.
const costGrossTolerance = 1.01

// LemvighMullerAdapter handles Lemvigh-Müller's price files: ISO-8859-1
// encoded in most exports, but some arrive as Windows-1252 without any
// label change. ParseFile measures the empty-SKU ratio under the primary
// encoding and re-parses with the fallback when the file looks garbled,
// keeping whichever result has fewer empty SKUs.
type LemvighMullerAdapter struct {
	*BaseAdapter

	// FallbackEncoding is tried when the primary parse looks garbled.
	FallbackEncoding string
	// EmptySKUFallbackRatio triggers the fallback parse when exceeded.
	// The 0.5 default mirrors long-observed behavior; it is a heuristic,
	// not a tuned constant.
	EmptySKUFallbackRatio float64
}

// NewLemvighMullerAdapter creates the Lemvigh-Müller adapter.
func NewLemvighMullerAdapter(engine *importer.Engine, log *logger.Logger) *LemvighMullerAdapter {
	info := Info{
		Code:             LemvighMullerCode,
		DisplayName:      "Lemvigh-Müller",
		SupportedFormats: []importer.Format{importer.FormatCSV, importer.FormatAPI},
		DefaultEncoding:  "ISO-8859-1",
		DefaultDelimiter: ';',
		Features:         []string{"ftp_sync", "api_sync", "price_file", "discount_pricing"},
	}

	defaults := importer.Config{
		Format:    importer.FormatCSV,
		Delimiter: ';',
		Encoding:  "ISO-8859-1",
		HasHeader: true,
		Mappings: map[string]importer.ColumnRef{
			importer.FieldSKU:          importer.ByName("Artikelnr"),
			importer.FieldName:         importer.ByName("Varetekst"),
			importer.FieldGrossPrice:   importer.ByName("Bruttopris"),
			importer.FieldDiscountPct:  importer.ByName("Rabat %"),
			importer.FieldListPrice:    importer.ByName("Vejl. pris"),
			importer.FieldUnit:         importer.ByName("Enhed"),
			importer.FieldCategory:     importer.ByName("Varegruppe"),
			importer.FieldManufacturer: importer.ByName("Fabrikat"),
			importer.FieldEAN:          importer.ByName("EAN"),
		},
	}

	known := map[string][]string{
		importer.FieldSKU:          {"Artikelnr", "LM varenr", "Artikelnummer"},
		importer.FieldName:         {"Varetekst", "Betegnelse"},
		importer.FieldGrossPrice:   {"Bruttopris", "Brutto"},
		importer.FieldDiscountPct:  {"Rabat %", "Rabat"},
		importer.FieldListPrice:    {"Vejl. pris", "Vejledende"},
		importer.FieldUnit:         {"Enhed"},
		importer.FieldCategory:     {"Varegruppe", "Gruppe"},
		importer.FieldManufacturer: {"Fabrikat"},
		importer.FieldEAN:          {"EAN", "Stregkode"},
	}

	adapter := &LemvighMullerAdapter{
		BaseAdapter:           NewBaseAdapter(info, defaults, known, lemvighMullerCategories, engine, log),
		FallbackEncoding:      "windows-1252",
		EmptySKUFallbackRatio: 0.5,
	}
	adapter.apiSync = true
	adapter.ftpSync = true
	return adapter
}

// NormalizeSKU strips the "LM" article prefix.
func (a *LemvighMullerAdapter) NormalizeSKU(raw string) string {
	sku := strings.TrimSpace(raw)
	upper := strings.ToUpper(sku)
	if strings.HasPrefix(upper, "LM-") {
		return sku[3:]
	}
	if strings.HasPrefix(upper, "LM") {
		return sku[2:]
	}
	return sku
}

// TransformRow applies SKU and category normalization plus the
// derived-cost cross-check against the gross price.
func (a *LemvighMullerAdapter) TransformRow(row importer.ParsedRow) importer.ParsedRow {
	row.SKU = a.NormalizeSKU(row.SKU)
	row.Category = a.MapCategory(row.Category, row.SubCategory)

	if row.CostPrice != nil && row.GrossPrice != nil && *row.GrossPrice > 0 {
		if *row.CostPrice > *row.GrossPrice*costGrossTolerance {
			row.AddWarning("cost price exceeds gross price beyond rounding tolerance")
		}
	}

	return row
}

// ParseFile parses under the primary encoding, measures the empty-SKU
// ratio and retries with the fallback encoding when the result looks
// garbled. The parse with fewer empty SKUs wins.
func (a *LemvighMullerAdapter) ParseFile(data []byte, override *importer.Config) []importer.ParsedRow {
	rows := a.parseWith(a, data, override)

	ratio := emptySKURatio(rows)
	if ratio <= a.EmptySKUFallbackRatio || a.FallbackEncoding == "" {
		return rows
	}

	a.log.Warn("price file looks garbled, retrying with fallback encoding",
		"supplier_code", LemvighMullerCode,
		"empty_sku_ratio", ratio,
		"fallback_encoding", a.FallbackEncoding,
	)

	fallbackCfg := a.DefaultConfig()
	if override != nil {
		fallbackCfg = fallbackCfg.Merge(*override)
	}
	fallbackCfg = fallbackCfg.Merge(importer.Config{Encoding: a.FallbackEncoding})
	retried := a.parseWith(a, data, &fallbackCfg)

	if countEmptySKUs(retried) < countEmptySKUs(rows) {
		return retried
	}
	return rows
}

// ValidateCredentials checks the fields Basic Auth against LM's API needs.
func (a *LemvighMullerAdapter) ValidateCredentials(creds credentials.Credentials) bool {
	return creds.Username != "" && creds.Password != "" && creds.CustomerNumber != ""
}

func emptySKURatio(rows []importer.ParsedRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	return float64(countEmptySKUs(rows)) / float64(len(rows))
}

func countEmptySKUs(rows []importer.ParsedRow) int {
	count := 0
	for _, row := range rows {
		if row.SKU == "" {
			count++
		}
	}
	return count
}

// lemvighMullerCategories maps LM's group names to the internal categories.
var lemvighMullerCategories = map[string]string{
	"Installationskabler":      "Kabler",
	"Kabler og ledninger":      "Kabler",
	"Sikringer":                "Sikringer",
	"Sikringsmateriel":         "Sikringer",
	"Afbrydermateriel":         "Afbrydere og stikkontakter",
	"Stikkontakter":            "Afbrydere og stikkontakter",
	"Belysningsarmaturer":      "Belysning",
	"Lyskilder":                "Belysning",
	"Tavler og tavlemateriel":  "Tavlemateriel",
	"Føringsveje":              "Føringsveje",
	"Kabelbakker":              "Føringsveje",
	"El-varme":                 "El-varme",
	"Ventilationsmateriel":     "Ventilation",
	"Værktøj og maskiner":      "Værktøj",
	"Befæstigelsesmateriel":    "Befæstigelse",
}

var (
	_ Adapter             = (*LemvighMullerAdapter)(nil)
	_ CredentialValidator = (*LemvighMullerAdapter)(nil)
)
