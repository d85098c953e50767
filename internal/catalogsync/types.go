// Package catalogsync orchestrates adapter selection, file processing, row
// validation against an existing-catalog snapshot and price-delta
// computation. It is stateless; persistence belongs to the caller.
package catalogsync

import (
	"github.com/google/uuid"

	"catalog_sync_backend/internal/importer"
)

// CatalogEntry is one known catalog row in the caller-supplied snapshot.
type CatalogEntry struct {
	ID        uuid.UUID
	CostPrice *float64
	ListPrice *float64
}

// Snapshot maps a supplier SKU to its known catalog entry.
type Snapshot map[string]CatalogEntry

// ValidatedRow extends a parsed row with its classification against the
// existing catalog. Never persisted by this package.
type ValidatedRow struct {
	importer.ParsedRow
	IsValid           bool
	ExistingProductID *uuid.UUID
	IsUpdate          bool
}

// PriceChange records a cost price movement for one SKU. Old and new list
// prices are carried for callers that want to surface list movements, but
// only cost price differences trigger emission.
type PriceChange struct {
	SupplierProductID uuid.UUID
	SupplierSKU       string
	ProductName       string
	OldCostPrice      *float64
	NewCostPrice      *float64
	OldListPrice      *float64
	NewListPrice      *float64
	ChangePercentage  float64
}

// Status is the terminal state of one import execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry_run"
)

// RowError pairs a row number with one of its validation messages.
type RowError struct {
	Row     int
	Message string
}

// ImportResult is the terminal summary object for one import execution.
// Zero matched rows is a valid completed result, distinct from a failure.
// Rows carries the classified rows so callers can persist the valid ones;
// it is excluded from events and reports.
type ImportResult struct {
	BatchID         uuid.UUID
	SupplierCode    string
	TotalRows       int
	NewProducts     int
	UpdatedProducts int
	SkippedRows     int
	Errors          []RowError
	PriceChanges    []PriceChange
	Rows            []ValidatedRow
	Status          Status
}
