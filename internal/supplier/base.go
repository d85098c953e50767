package supplier

import (
	"fmt"
	"sort"
	"strings"

	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/internal/parse"
	"catalog_sync_backend/platform/logger"
)

// BaseAdapter provides the default behavior shared by all adapters:
// config assembly, category resolution, generic validation and file
// parsing through the import engine. Concrete adapters embed it and
// override selectively.
type BaseAdapter struct {
	info       Info
	defaults   importer.Config
	known      map[string][]string
	categories map[string]string
	apiSync    bool
	ftpSync    bool

	engine *importer.Engine
	log    *logger.Logger
}

// NewBaseAdapter assembles the shared adapter state.
func NewBaseAdapter(info Info, defaults importer.Config, known map[string][]string, categories map[string]string, engine *importer.Engine, log *logger.Logger) *BaseAdapter {
	return &BaseAdapter{
		info:       info,
		defaults:   defaults,
		known:      known,
		categories: categories,
		engine:     engine,
		log:        log,
	}
}

// Info returns the static adapter descriptor.
func (b *BaseAdapter) Info() Info {
	return b.info
}

// DefaultConfig returns a copy of the adapter's import defaults.
func (b *BaseAdapter) DefaultConfig() importer.Config {
	return b.defaults
}

// ColumnMappings returns the adapter's default column mappings.
func (b *BaseAdapter) ColumnMappings() map[string]importer.ColumnRef {
	return b.defaults.Mappings
}

// CategoryMap returns the supplier category table.
func (b *BaseAdapter) CategoryMap() map[string]string {
	return b.categories
}

// NormalizeSKU trims whitespace. Concrete adapters strip supplier prefixes.
func (b *BaseAdapter) NormalizeSKU(raw string) string {
	return strings.TrimSpace(raw)
}

// MapCategory resolves a supplier category to the normalized taxonomy.
// Resolution order: combined "category > subcategory" key, exact category
// key, substring match on the category, substring match on the
// sub-category, finally the original category string unchanged.
func (b *BaseAdapter) MapCategory(category, subCategory string) string {
	if len(b.categories) == 0 {
		return category
	}

	if subCategory != "" {
		combined := fmt.Sprintf("%s > %s", category, subCategory)
		if mapped, ok := b.categories[combined]; ok {
			return mapped
		}
	}
	if mapped, ok := b.categories[category]; ok {
		return mapped
	}

	// Substring passes iterate sorted keys for deterministic results.
	keys := make([]string, 0, len(b.categories))
	for key := range b.categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lowerCat := strings.ToLower(category)
	for _, key := range keys {
		if strings.Contains(lowerCat, strings.ToLower(key)) {
			return b.categories[key]
		}
	}

	if subCategory != "" {
		lowerSub := strings.ToLower(subCategory)
		for _, key := range keys {
			if strings.Contains(lowerSub, strings.ToLower(key)) {
				return b.categories[key]
			}
		}
	}

	return category
}

// ParsePrice parses a Danish-formatted price string.
func (b *BaseAdapter) ParsePrice(text string) (float64, bool) {
	return parse.Number(text)
}

// TransformRow applies the shared normalization: SKU trim and category
// mapping. Concrete adapters layer their own transformations on top.
func (b *BaseAdapter) TransformRow(row importer.ParsedRow) importer.ParsedRow {
	row.SKU = b.NormalizeSKU(row.SKU)
	row.Category = b.MapCategory(row.Category, row.SubCategory)
	return row
}

// DetectMappings infers column mappings from a header row using the
// adapter's known header table plus the shared heuristics.
func (b *BaseAdapter) DetectMappings(headers []string) map[string]importer.ColumnRef {
	return importer.DetectColumnMappings(headers, b.known)
}

// ValidateRow applies the generic supplier rules: required SKU and name,
// non-negative prices.
func (b *BaseAdapter) ValidateRow(row importer.ParsedRow) []string {
	var errs []string
	if row.SKU == "" {
		errs = append(errs, "sku is required")
	}
	if row.Name == "" {
		errs = append(errs, "name is required")
	}
	if row.CostPrice != nil && *row.CostPrice < 0 {
		errs = append(errs, "cost price must not be negative")
	}
	if row.ListPrice != nil && *row.ListPrice < 0 {
		errs = append(errs, "list price must not be negative")
	}
	return errs
}

// SupportsAPISync reports the adapter's API capability flag.
func (b *BaseAdapter) SupportsAPISync() bool {
	return b.apiSync
}

// SupportsFTPSync reports the adapter's FTP capability flag.
func (b *BaseAdapter) SupportsFTPSync() bool {
	return b.ftpSync
}

// parseWith decodes and parses file bytes, then runs the given adapter's
// TransformRow over every row. Concrete adapters call this from ParseFile
// so their overridden transforms apply.
func (b *BaseAdapter) parseWith(a Adapter, data []byte, override *importer.Config) []importer.ParsedRow {
	cfg := a.DefaultConfig()
	if override != nil {
		cfg = cfg.Merge(*override)
	}

	content := parse.DecodeBytes(data, cfg.Encoding)
	rows := b.engine.Parse(content, cfg)
	for i := range rows {
		rows[i] = a.TransformRow(rows[i])
	}
	return rows
}
