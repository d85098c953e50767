package supplier

import (
	"strings"

	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/platform/logger"
)

// SolarCode is the registry code for the Solar Danmark adapter.
const SolarCode = "solar"

// SolarAdapter handles Solar's price file exports: Windows-1252 encoded,
// semicolon delimited, with a combined category/subcategory taxonomy.
type SolarAdapter struct {
	*BaseAdapter
}

// NewSolarAdapter creates the Solar adapter.
func NewSolarAdapter(engine *importer.Engine, log *logger.Logger) *SolarAdapter {
	info := Info{
		Code:             SolarCode,
		DisplayName:      "Solar Danmark",
		SupportedFormats: []importer.Format{importer.FormatCSV, importer.FormatAPI},
		DefaultEncoding:  "windows-1252",
		DefaultDelimiter: ';',
		Features:         []string{"ftp_sync", "api_sync", "price_file"},
	}

	defaults := importer.Config{
		Format:    importer.FormatCSV,
		Delimiter: ';',
		Encoding:  "windows-1252",
		HasHeader: true,
		Mappings: map[string]importer.ColumnRef{
			importer.FieldSKU:          importer.ByName("Varenr."),
			importer.FieldName:         importer.ByName("Beskrivelse"),
			importer.FieldCostPrice:    importer.ByName("Nettopris"),
			importer.FieldListPrice:    importer.ByName("Listepris"),
			importer.FieldUnit:         importer.ByName("Enhed"),
			importer.FieldCategory:     importer.ByName("Varegruppe"),
			importer.FieldSubCategory:  importer.ByName("Undergruppe"),
			importer.FieldManufacturer: importer.ByName("Fabrikat"),
			importer.FieldEAN:          importer.ByName("EAN-nr."),
		},
	}

	known := map[string][]string{
		importer.FieldSKU:          {"Varenr.", "Solar varenr", "Varenummer"},
		importer.FieldName:         {"Beskrivelse", "Varetekst"},
		importer.FieldCostPrice:    {"Nettopris", "Netto"},
		importer.FieldListPrice:    {"Listepris", "Bruttopris"},
		importer.FieldUnit:         {"Enhed", "Salgsenhed"},
		importer.FieldCategory:     {"Varegruppe"},
		importer.FieldSubCategory:  {"Undergruppe"},
		importer.FieldManufacturer: {"Fabrikat", "Producent"},
		importer.FieldEAN:          {"EAN-nr.", "EAN"},
	}

	adapter := &SolarAdapter{
		BaseAdapter: NewBaseAdapter(info, defaults, known, solarCategories, engine, log),
	}
	adapter.apiSync = true
	adapter.ftpSync = true
	return adapter
}

// NormalizeSKU strips the "SOL" article prefix and leading zeros Solar
// pads its article numbers with.
func (a *SolarAdapter) NormalizeSKU(raw string) string {
	sku := strings.TrimSpace(raw)
	upper := strings.ToUpper(sku)
	if strings.HasPrefix(upper, "SOL-") {
		sku = sku[4:]
	} else if strings.HasPrefix(upper, "SOL") {
		sku = sku[3:]
	}
	trimmed := strings.TrimLeft(sku, "0")
	if trimmed == "" && sku != "" {
		// An all-zero article number keeps a single zero.
		return "0"
	}
	return trimmed
}

// TransformRow applies Solar's SKU and category normalization.
func (a *SolarAdapter) TransformRow(row importer.ParsedRow) importer.ParsedRow {
	row.SKU = a.NormalizeSKU(row.SKU)
	row.Category = a.MapCategory(row.Category, row.SubCategory)
	return row
}

// ParseFile decodes and parses a Solar price file.
func (a *SolarAdapter) ParseFile(data []byte, override *importer.Config) []importer.ParsedRow {
	return a.parseWith(a, data, override)
}

// ValidateCredentials checks the fields Solar's cookie-session login needs.
func (a *SolarAdapter) ValidateCredentials(creds credentials.Credentials) bool {
	return creds.Username != "" && creds.Password != ""
}

// solarCategories maps Solar's group taxonomy to the internal categories.
// Combined "group > subgroup" keys are checked before single-group keys.
var solarCategories = map[string]string{
	"Kabel > Installationskabel":    "Kabler",
	"Kabel > Styrekabel":            "Kabler",
	"Kabel":                         "Kabler",
	"Sikringer":                     "Sikringer",
	"Automatsikringer":              "Sikringer",
	"Afbrydere > Tryk":              "Afbrydere og stikkontakter",
	"Afbrydere":                     "Afbrydere og stikkontakter",
	"Stikkontakter":                 "Afbrydere og stikkontakter",
	"Belysning > LED-paneler":       "Belysning",
	"Belysning":                     "Belysning",
	"Lyskilder":                     "Belysning",
	"Tavlemateriel > Kombirelæer":   "Tavlemateriel",
	"Tavlemateriel":                 "Tavlemateriel",
	"Kabelbakker og føringsveje":    "Føringsveje",
	"Rør og tilbehør":               "Føringsveje",
	"Varme > Gulvvarme":             "El-varme",
	"Varme":                         "El-varme",
	"Ventilation":                   "Ventilation",
	"Værktøj":                       "Værktøj",
	"Befæstigelse":                  "Befæstigelse",
}

var (
	_ Adapter             = (*SolarAdapter)(nil)
	_ CredentialValidator = (*SolarAdapter)(nil)
)
