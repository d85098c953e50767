package importer

// ParsedRow is the typed result of parsing one data line. Rows with
// validation errors are still emitted so callers can report every rejected
// line; a row with a non-empty Errors list must never be treated as valid.
type ParsedRow struct {
	// RowNumber is the physical 1-based line number in the source file,
	// blank lines included.
	RowNumber int
	// Raw is the header→raw value snapshot for audit and debugging.
	Raw map[string]string

	SKU              string
	Name             string
	CostPrice        *float64
	ListPrice        *float64
	GrossPrice       *float64
	DiscountPct      *float64
	Unit             string
	Category         string
	SubCategory      string
	Manufacturer     string
	EAN              string
	MinOrderQuantity int

	Errors   []string
	Warnings []string
}

// AddError appends a row-level validation error.
func (r *ParsedRow) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning appends an advisory message that does not invalidate the row.
func (r *ParsedRow) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Valid reports whether the row passed all validations.
func (r *ParsedRow) Valid() bool {
	return len(r.Errors) == 0
}
