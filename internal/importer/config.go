// Package importer turns raw decoded catalog text into validated rows using
// a column-mapping configuration.
package importer

// Format identifies the shape of a supplier export.
type Format string

const (
	FormatCSV Format = "csv"
	FormatXML Format = "xml"
	FormatAPI Format = "api"
)

// Logical field names used in column mappings.
const (
	FieldSKU              = "sku"
	FieldName             = "name"
	FieldCostPrice        = "cost_price"
	FieldListPrice        = "list_price"
	FieldGrossPrice       = "gross_price"
	FieldDiscountPct      = "discount_pct"
	FieldUnit             = "unit"
	FieldCategory         = "category"
	FieldSubCategory      = "sub_category"
	FieldManufacturer     = "manufacturer"
	FieldEAN              = "ean"
	FieldMinOrderQuantity = "min_order_quantity"
)

// ColumnRef locates a logical field in a supplier file: either by header
// name (resolved to an index against the actual header row before parsing)
// or by a fixed column index.
type ColumnRef struct {
	name    string
	index   int
	byIndex bool
}

// ByName references a column by its header text.
func ByName(name string) ColumnRef {
	return ColumnRef{name: name}
}

// ByIndex references a column by position.
func ByIndex(index int) ColumnRef {
	return ColumnRef{index: index, byIndex: true}
}

// Index returns the resolved column index, if this ref carries one.
func (r ColumnRef) Index() (int, bool) {
	return r.index, r.byIndex
}

// Name returns the header name, if this ref carries one.
func (r ColumnRef) Name() (string, bool) {
	if r.byIndex {
		return "", false
	}
	return r.name, true
}

// Config is immutable per import run. It is assembled from adapter defaults
// merged with caller overrides (override wins, column mappings merge
// key-by-key).
type Config struct {
	Format         Format
	Delimiter      rune
	Encoding       string
	SkipHeaderRows int
	HasHeader      bool
	Mappings       map[string]ColumnRef
}

// Merge returns a copy of the config with the override applied on top.
// Scalar fields from the override win when set; column mappings are merged
// key-by-key with override entries replacing base entries.
func (c Config) Merge(override Config) Config {
	merged := c
	if override.Format != "" {
		merged.Format = override.Format
	}
	if override.Delimiter != 0 {
		merged.Delimiter = override.Delimiter
	}
	if override.Encoding != "" {
		merged.Encoding = override.Encoding
	}
	if override.SkipHeaderRows != 0 {
		merged.SkipHeaderRows = override.SkipHeaderRows
	}
	if override.HasHeader {
		merged.HasHeader = true
	}

	if len(override.Mappings) > 0 {
		mappings := make(map[string]ColumnRef, len(c.Mappings)+len(override.Mappings))
		for field, ref := range c.Mappings {
			mappings[field] = ref
		}
		for field, ref := range override.Mappings {
			mappings[field] = ref
		}
		merged.Mappings = mappings
	}

	return merged
}
