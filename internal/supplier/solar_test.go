package supplier

import (
	"testing"

	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/platform/logger"
)

func newSolar() *SolarAdapter {
	engine := importer.NewEngine(logger.New("development"))
	return NewSolarAdapter(engine, logger.New("development"))
}

func TestSolarNormalizeSKU(t *testing.T) {
	adapter := newSolar()
	cases := map[string]string{
		"SOL-001234": "1234",
		"SOL001234":  "1234",
		"001234":     "1234",
		"1234":       "1234",
		"000000":     "0",
		" 1234 ":     "1234",
	}
	for raw, want := range cases {
		if got := adapter.NormalizeSKU(raw); got != want {
			t.Fatalf("NormalizeSKU(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSolarParseFile(t *testing.T) {
	adapter := newSolar()

	// ø as 0xF8: Windows-1252 encoded content.
	content := []byte("Varenr.;Beskrivelse;Nettopris;Listepris;Varegruppe;Undergruppe\n" +
		"SOL-007001;Kabelr\xf8r 20mm;12,50;25,00;Kabel;Installationskabel\n")

	rows := adapter.ParseFile(content, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.SKU != "7001" {
		t.Fatalf("expected normalized sku 7001, got %q", row.SKU)
	}
	if row.Name != "Kabelrør 20mm" {
		t.Fatalf("expected decoded name, got %q", row.Name)
	}
	if row.Category != "Kabler" {
		t.Fatalf("expected mapped category Kabler, got %q", row.Category)
	}
	if row.CostPrice == nil || *row.CostPrice != 12.50 {
		t.Fatalf("expected cost 12.50, got %v", row.CostPrice)
	}
}

func TestSolarParseFileWithOverride(t *testing.T) {
	adapter := newSolar()

	content := []byte("Nummer;Tekst\nSOL-1;Afbryder\n")
	override := importer.Config{
		Mappings: map[string]importer.ColumnRef{
			importer.FieldSKU:  importer.ByName("Nummer"),
			importer.FieldName: importer.ByName("Tekst"),
		},
	}

	rows := adapter.ParseFile(content, &override)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].SKU != "1" || rows[0].Name != "Afbryder" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestSolarCapabilities(t *testing.T) {
	adapter := newSolar()
	if !adapter.SupportsAPISync() || !adapter.SupportsFTPSync() {
		t.Fatal("expected solar to support both sync paths")
	}
	if ok := adapter.ValidateCredentials(credsWith("user", "pass", "")); !ok {
		t.Fatal("expected user/pass credentials to validate")
	}
	if ok := adapter.ValidateCredentials(credsWith("user", "", "")); ok {
		t.Fatal("expected missing password to fail validation")
	}
}
