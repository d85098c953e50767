// Package supplier defines the capability interface each supplier adapter
// implements and the runtime registry mapping supplier codes to adapter
// factories. Adapters translate supplier-specific export formats into the
// normalized row model.
package supplier

import (
	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/importer"
)

// Info is the static descriptor for one adapter. Never mutated.
type Info struct {
	Code             string
	DisplayName      string
	SupportedFormats []importer.Format
	DefaultEncoding  string
	DefaultDelimiter rune
	Features         []string
}

// Adapter is the capability interface each supplier implements.
type Adapter interface {
	// Info returns the static adapter descriptor.
	Info() Info
	// DefaultConfig returns the adapter's import defaults. Callers merge
	// their overrides on top (override wins, mappings merge key-by-key).
	DefaultConfig() importer.Config
	// ColumnMappings returns the adapter's default column mappings.
	ColumnMappings() map[string]importer.ColumnRef
	// CategoryMap returns the supplier category → normalized category table.
	CategoryMap() map[string]string
	// NormalizeSKU cleans a raw supplier article number.
	NormalizeSKU(raw string) string
	// MapCategory resolves a supplier category (and optional sub-category)
	// to the normalized taxonomy, falling back to the original string.
	MapCategory(category, subCategory string) string
	// ParsePrice parses a price string in the supplier's number format.
	ParsePrice(text string) (float64, bool)
	// TransformRow applies supplier-specific normalization to a parsed row.
	TransformRow(row importer.ParsedRow) importer.ParsedRow
	// ParseFile decodes raw file bytes and produces transformed rows.
	ParseFile(data []byte, override *importer.Config) []importer.ParsedRow
	// DetectMappings infers column mappings from an arbitrary header row.
	DetectMappings(headers []string) map[string]importer.ColumnRef
	// ValidateRow returns supplier-specific validation errors for a row.
	ValidateRow(row importer.ParsedRow) []string
	// SupportsAPISync reports whether the supplier exposes a live API.
	SupportsAPISync() bool
	// SupportsFTPSync reports whether the supplier offers FTP file pickup.
	SupportsFTPSync() bool
}

// CredentialValidator is implemented by adapters that can verify a
// credential set without a network round trip.
type CredentialValidator interface {
	ValidateCredentials(creds credentials.Credentials) bool
}
