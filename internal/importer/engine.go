package importer

import (
	"fmt"
	"math"
	"strings"

	"catalog_sync_backend/internal/parse"
	"catalog_sync_backend/platform/logger"
)

// Validation limits for parsed rows.
const (
	maxSKULength  = 100
	maxNameLength = 500
	maxPrice      = 10_000_000
	defaultUnit   = "stk"
)

// Engine parses decoded catalog text into rows. It holds no per-run state;
// parsing the same content with the same config twice yields identical rows.
type Engine struct {
	log *logger.Logger
}

// NewEngine creates a new import engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Parse splits content into lines, resolves name-based column mappings
// against the header row and produces one ParsedRow per data line. Rows
// failing validation are emitted with their errors, never dropped.
func (e *Engine) Parse(content string, cfg Config) []ParsedRow {
	delimiter := cfg.Delimiter
	if delimiter == 0 {
		delimiter = ';'
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	skip := cfg.SkipHeaderRows
	if skip > len(lines) {
		skip = len(lines)
	}
	lines = lines[skip:]

	var header []string
	mappings := cfg.Mappings
	if cfg.HasHeader && len(lines) > 0 {
		header = parse.SplitLine(lines[0].text, delimiter)
		mappings = resolveMappings(cfg.Mappings, header)
		lines = lines[1:]
	} else {
		mappings = dropUnresolved(cfg.Mappings)
	}

	rows := make([]ParsedRow, 0, len(lines))
	for _, line := range lines {
		fields := parse.SplitLine(line.text, delimiter)
		row := e.parseRow(fields, header, mappings)
		row.RowNumber = line.number
		validateRow(&row)
		rows = append(rows, row)
	}

	return rows
}

func (e *Engine) parseRow(fields, header []string, mappings map[string]ColumnRef) ParsedRow {
	get := func(field string) string {
		ref, ok := mappings[field]
		if !ok {
			return ""
		}
		idx, ok := ref.Index()
		if !ok || idx < 0 || idx >= len(fields) {
			return ""
		}
		return fields[idx]
	}

	row := ParsedRow{
		SKU:          strings.TrimSpace(get(FieldSKU)),
		Name:         strings.TrimSpace(get(FieldName)),
		Unit:         strings.TrimSpace(get(FieldUnit)),
		Category:     strings.TrimSpace(get(FieldCategory)),
		SubCategory:  strings.TrimSpace(get(FieldSubCategory)),
		Manufacturer: strings.TrimSpace(get(FieldManufacturer)),
		EAN:          strings.TrimSpace(get(FieldEAN)),
	}

	if row.Unit == "" {
		row.Unit = defaultUnit
	}

	row.CostPrice = parsePrice(get(FieldCostPrice))
	row.ListPrice = parsePrice(get(FieldListPrice))
	row.GrossPrice = parsePrice(get(FieldGrossPrice))
	row.DiscountPct = parsePrice(get(FieldDiscountPct))

	if moq, ok := parse.Number(get(FieldMinOrderQuantity)); ok && moq > 0 {
		row.MinOrderQuantity = int(moq)
	}

	// Derive cost price from gross price and discount when the file carries
	// no explicit cost column.
	if row.CostPrice == nil && row.GrossPrice != nil && row.DiscountPct != nil {
		cost := Round2(*row.GrossPrice * (1 - *row.DiscountPct/100))
		row.CostPrice = &cost
	}

	row.Raw = rawSnapshot(fields, header)
	return row
}

// validateRow applies the generic field rules. Violations accumulate as
// row-level errors; the row itself is kept.
func validateRow(row *ParsedRow) {
	if row.SKU == "" {
		row.AddError("sku is required")
	} else if len(row.SKU) > maxSKULength {
		row.AddError(fmt.Sprintf("sku exceeds %d characters", maxSKULength))
	}

	if row.Name == "" {
		row.AddError("name is required")
	} else if len(row.Name) > maxNameLength {
		row.AddError(fmt.Sprintf("name exceeds %d characters", maxNameLength))
	}

	validatePrice(row, FieldCostPrice, row.CostPrice)
	validatePrice(row, FieldListPrice, row.ListPrice)
}

func validatePrice(row *ParsedRow, field string, price *float64) {
	if price == nil {
		return
	}
	if *price < 0 {
		row.AddError(fmt.Sprintf("%s must not be negative", field))
	} else if *price >= maxPrice {
		row.AddError(fmt.Sprintf("%s exceeds the allowed maximum", field))
	}
}

// resolveMappings converts name-based refs to index-based refs against the
// actual header row (case-insensitive, trimmed). Index-based refs pass
// through unchanged; unresolvable names are silently dropped.
func resolveMappings(mappings map[string]ColumnRef, header []string) map[string]ColumnRef {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	resolved := make(map[string]ColumnRef, len(mappings))
	for field, ref := range mappings {
		if _, ok := ref.Index(); ok {
			resolved[field] = ref
			continue
		}
		name, _ := ref.Name()
		if i, ok := index[strings.ToLower(strings.TrimSpace(name))]; ok {
			resolved[field] = ByIndex(i)
		}
	}
	return resolved
}

// dropUnresolved keeps only index-based refs. Without a header row a
// name-based mapping cannot be resolved.
func dropUnresolved(mappings map[string]ColumnRef) map[string]ColumnRef {
	resolved := make(map[string]ColumnRef, len(mappings))
	for field, ref := range mappings {
		if _, ok := ref.Index(); ok {
			resolved[field] = ref
		}
	}
	return resolved
}

func rawSnapshot(fields, header []string) map[string]string {
	raw := make(map[string]string, len(fields))
	for i, value := range fields {
		key := fmt.Sprintf("col_%d", i)
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			key = strings.TrimSpace(header[i])
		}
		raw[key] = value
	}
	return raw
}

func parsePrice(text string) *float64 {
	value, ok := parse.Number(text)
	if !ok {
		return nil
	}
	return &value
}

// sourceLine is one non-blank line with its physical, 1-based line number
// in the file. Row errors report these numbers, so blank lines must not
// shift them.
type sourceLine struct {
	text   string
	number int
}

func splitLines(content string) []sourceLine {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var lines []sourceLine
	for i, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, sourceLine{text: line, number: i + 1})
	}
	return lines
}

// Round2 rounds to two decimals, the resolution of all catalog prices.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
