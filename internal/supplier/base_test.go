package supplier

import (
	"testing"

	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/platform/logger"
)

func newTestBase(categories map[string]string) *BaseAdapter {
	engine := importer.NewEngine(logger.New("development"))
	info := Info{Code: "test", DisplayName: "Test", DefaultDelimiter: ';'}
	defaults := importer.Config{Delimiter: ';', HasHeader: true}
	return NewBaseAdapter(info, defaults, nil, categories, engine, logger.New("development"))
}

func TestMapCategoryExactMatch(t *testing.T) {
	base := newTestBase(map[string]string{"Kabel": "Kabler"})
	if got := base.MapCategory("Kabel", ""); got != "Kabler" {
		t.Fatalf("expected Kabler, got %q", got)
	}
}

func TestMapCategorySubstringMatch(t *testing.T) {
	base := newTestBase(map[string]string{"Sikringer": "Sikringer"})
	if got := base.MapCategory("Automatsikringer og Sikringer", ""); got != "Sikringer" {
		t.Fatalf("expected substring match to Sikringer, got %q", got)
	}
}

func TestMapCategoryCombinedKeyBeforeSingle(t *testing.T) {
	base := newTestBase(map[string]string{
		"Kabel > Styrekabel": "Styrekabler",
		"Kabel":              "Kabler",
	})
	if got := base.MapCategory("Kabel", "Styrekabel"); got != "Styrekabler" {
		t.Fatalf("expected combined key to win, got %q", got)
	}
	if got := base.MapCategory("Kabel", "Andet"); got != "Kabler" {
		t.Fatalf("expected single key fallback, got %q", got)
	}
}

func TestMapCategorySubCategorySubstringFallback(t *testing.T) {
	base := newTestBase(map[string]string{"Gulvvarme": "El-varme"})
	if got := base.MapCategory("Diverse", "Gulvvarme og tilbehør"); got != "El-varme" {
		t.Fatalf("expected sub-category substring match, got %q", got)
	}
}

func TestMapCategoryFallsBackToOriginal(t *testing.T) {
	base := newTestBase(map[string]string{"Kabel": "Kabler"})
	if got := base.MapCategory("Helt ukendt gruppe", ""); got != "Helt ukendt gruppe" {
		t.Fatalf("expected original category back, got %q", got)
	}
}

func TestRegistryCaseInsensitiveLookup(t *testing.T) {
	engine := importer.NewEngine(logger.New("development"))
	log := logger.New("development")

	registry := NewRegistry()
	registry.Register("Solar", func() Adapter { return NewSolarAdapter(engine, log) })

	if !registry.Has("SOLAR") {
		t.Fatal("expected case-insensitive Has")
	}
	adapter, ok := registry.Get("sOlAr")
	if !ok {
		t.Fatal("expected case-insensitive Get")
	}
	if adapter.Info().Code != SolarCode {
		t.Fatalf("unexpected adapter: %s", adapter.Info().Code)
	}
	if _, ok := registry.Get("unknown"); ok {
		t.Fatal("expected miss for unregistered code")
	}
}

func TestDefaultRegistryHasBuiltinAdapters(t *testing.T) {
	engine := importer.NewEngine(logger.New("development"))
	registry := NewDefaultRegistry(engine, logger.New("development"))

	infos := registry.All()
	if len(infos) != 2 {
		t.Fatalf("expected 2 adapters, got %d", len(infos))
	}
	if infos[0].Code != LemvighMullerCode || infos[1].Code != SolarCode {
		t.Fatalf("expected sorted codes [lm solar], got %v", []string{infos[0].Code, infos[1].Code})
	}
}
