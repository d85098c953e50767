package importer

import (
	"reflect"
	"testing"

	"catalog_sync_backend/platform/logger"
)

func testConfig() Config {
	return Config{
		Format:    FormatCSV,
		Delimiter: ';',
		HasHeader: true,
		Mappings: map[string]ColumnRef{
			FieldSKU:         ByName("Varenr"),
			FieldName:        ByName("Beskrivelse"),
			FieldCostPrice:   ByName("Kostpris"),
			FieldListPrice:   ByName("Listepris"),
			FieldGrossPrice:  ByName("Bruttopris"),
			FieldDiscountPct: ByName("Rabat"),
			FieldUnit:        ByName("Enhed"),
		},
	}
}

func TestParseResolvesHeaderNamesToIndices(t *testing.T) {
	content := "Varenr;Beskrivelse;Kostpris;Listepris\n1001;Kabel 3x1,5;10,50;21,00\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, testConfig())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.SKU != "1001" {
		t.Fatalf("expected sku 1001, got %q", row.SKU)
	}
	if row.Name != "Kabel 3x1,5" {
		t.Fatalf("expected quoted-free name, got %q", row.Name)
	}
	if row.CostPrice == nil || *row.CostPrice != 10.50 {
		t.Fatalf("expected cost 10.50, got %v", row.CostPrice)
	}
	if row.ListPrice == nil || *row.ListPrice != 21.00 {
		t.Fatalf("expected list 21.00, got %v", row.ListPrice)
	}
	if !row.Valid() {
		t.Fatalf("expected valid row, errors: %v", row.Errors)
	}
}

func TestParseDerivesCostFromGrossAndDiscount(t *testing.T) {
	content := "Varenr;Beskrivelse;Bruttopris;Rabat\nA1;Afbryder;1.000,00;20\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, testConfig())
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CostPrice == nil || *rows[0].CostPrice != 800.00 {
		t.Fatalf("expected derived cost 800.00, got %v", rows[0].CostPrice)
	}
}

func TestParseDefaultsUnitAndKeepsRowOrder(t *testing.T) {
	content := "Varenr;Beskrivelse\nA;Et produkt\n\nB;Andet produkt\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, testConfig())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (blank line dropped), got %d", len(rows))
	}
	if rows[0].SKU != "A" || rows[1].SKU != "B" {
		t.Fatalf("expected file order preserved, got %q then %q", rows[0].SKU, rows[1].SKU)
	}
	for _, row := range rows {
		if row.Unit != "stk" {
			t.Fatalf("expected default unit stk, got %q", row.Unit)
		}
	}
}

func TestParseRowNumbersCountPhysicalLines(t *testing.T) {
	content := "Varenr;Beskrivelse\nA;Produkt\n\nB;Andet produkt\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, testConfig())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].RowNumber != 2 {
		t.Fatalf("expected first data row on line 2, got %d", rows[0].RowNumber)
	}
	if rows[1].RowNumber != 4 {
		t.Fatalf("expected blank line to count toward line numbers, got %d", rows[1].RowNumber)
	}
}

func TestParseEmitsInvalidRowsWithErrors(t *testing.T) {
	longSKU := make([]byte, 101)
	for i := range longSKU {
		longSKU[i] = 'x'
	}
	content := "Varenr;Beskrivelse;Kostpris\n" +
		string(longSKU) + ";Produkt;10,00\n" +
		"B2;Produkt;-5,00\n" +
		"C3;Produkt;12,00\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, testConfig())
	if len(rows) != 3 {
		t.Fatalf("expected all 3 rows emitted, got %d", len(rows))
	}
	if rows[0].Valid() {
		t.Fatal("expected over-long sku to be invalid")
	}
	if rows[1].Valid() {
		t.Fatal("expected negative cost price to be invalid")
	}
	if !rows[2].Valid() {
		t.Fatalf("expected clean row to be valid, errors: %v", rows[2].Errors)
	}
}

func TestParseMissingNameMappingSilentlyDropped(t *testing.T) {
	cfg := testConfig()
	cfg.Mappings[FieldEAN] = ByName("Findes ikke")

	content := "Varenr;Beskrivelse\nA;Produkt\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, cfg)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].EAN != "" {
		t.Fatalf("expected empty ean for unresolvable mapping, got %q", rows[0].EAN)
	}
}

func TestParseIdempotent(t *testing.T) {
	content := "Varenr;Beskrivelse;Kostpris\nA;Produkt;\"1.234,56\"\nB;;10,00\n"
	engine := NewEngine(logger.New("development"))
	cfg := testConfig()

	first := engine.Parse(content, cfg)
	second := engine.Parse(content, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical results when re-parsing the same content")
	}
}

func TestParseRawSnapshotUsesHeaderNames(t *testing.T) {
	content := "Varenr;Beskrivelse\nA;Produkt\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, testConfig())
	if rows[0].Raw["Varenr"] != "A" || rows[0].Raw["Beskrivelse"] != "Produkt" {
		t.Fatalf("expected raw snapshot keyed by header, got %v", rows[0].Raw)
	}
}

func TestParseIndexMappingsWithoutHeader(t *testing.T) {
	cfg := Config{
		Delimiter:      ';',
		HasHeader:      false,
		SkipHeaderRows: 1,
		Mappings: map[string]ColumnRef{
			FieldSKU:  ByIndex(0),
			FieldName: ByIndex(1),
			// Name-based mappings cannot resolve without a header row.
			FieldCostPrice: ByName("Kostpris"),
		},
	}
	content := "junk line to skip\nA;Produkt;10,00\n"
	engine := NewEngine(logger.New("development"))

	rows := engine.Parse(content, cfg)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].SKU != "A" || rows[0].Name != "Produkt" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if rows[0].CostPrice != nil {
		t.Fatal("expected name mapping to be dropped without header")
	}
}

func TestConfigMerge(t *testing.T) {
	base := Config{
		Delimiter: ';',
		Encoding:  "ISO-8859-1",
		HasHeader: true,
		Mappings: map[string]ColumnRef{
			FieldSKU:  ByName("Varenr"),
			FieldName: ByName("Beskrivelse"),
		},
	}
	override := Config{
		Encoding: "UTF-8",
		Mappings: map[string]ColumnRef{
			FieldName: ByName("Tekst"),
			FieldEAN:  ByName("EAN"),
		},
	}

	merged := base.Merge(override)
	if merged.Encoding != "UTF-8" {
		t.Fatalf("expected override encoding to win, got %q", merged.Encoding)
	}
	if merged.Delimiter != ';' {
		t.Fatal("expected base delimiter preserved")
	}
	if name, _ := merged.Mappings[FieldName].Name(); name != "Tekst" {
		t.Fatalf("expected overridden name mapping, got %q", name)
	}
	if name, _ := merged.Mappings[FieldSKU].Name(); name != "Varenr" {
		t.Fatalf("expected base sku mapping preserved, got %q", name)
	}
	if _, ok := merged.Mappings[FieldEAN]; !ok {
		t.Fatal("expected new ean mapping merged in")
	}
	if _, ok := base.Mappings[FieldEAN]; ok {
		t.Fatal("expected base mappings untouched")
	}
}
