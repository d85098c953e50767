package catalogsync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"catalog_sync_backend/internal/events"
	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/internal/parse"
	"catalog_sync_backend/internal/supplier"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Service is the sync engine facade. It resolves the supplier adapter,
// parses files, classifies rows against a catalog snapshot and computes
// price deltas. Persistence and retrieval stay with the caller.
type Service struct {
	registry *supplier.Registry
	engine   *importer.Engine
	bus      events.Bus
	log      *logger.Logger
}

// New creates the sync service. The bus may be nil when no subscribers
// exist, for example in one-shot CLI runs.
func New(registry *supplier.Registry, engine *importer.Engine, bus events.Bus, log *logger.Logger) *Service {
	return &Service{registry: registry, engine: engine, bus: bus, log: log}
}

// RunParams are the inputs for one import execution.
type RunParams struct {
	// BatchID, when set, is used for the result and the published events.
	// Callers that pre-create a batch record pass its ID here; otherwise a
	// fresh one is generated.
	BatchID      uuid.UUID
	SupplierCode string
	Data         []byte
	Override     *importer.Config
	Snapshot     Snapshot
	DryRun       bool
	SourceFile   string
}

// ProcessFile parses raw file bytes for the supplier. When an adapter is
// registered the adapter's full pipeline runs; otherwise the bare engine
// parses with the caller-supplied config, which must then carry mappings.
func (s *Service) ProcessFile(code string, data []byte, override *importer.Config) ([]importer.ParsedRow, error) {
	if adapter, ok := s.registry.Get(code); ok {
		return adapter.ParseFile(data, override), nil
	}

	if override == nil || len(override.Mappings) == 0 {
		return nil, apperr.Config(fmt.Sprintf("no adapter registered for %q and no column mappings supplied", code))
	}

	s.log.Info("no adapter registered, parsing with generic engine", "supplier_code", code)

	content := parse.DecodeBytes(data, override.Encoding)
	return s.engine.Parse(content, *override), nil
}

// DetectMappings infers column mappings from a header row. A registered
// adapter contributes its known header table; otherwise only the shared
// heuristics apply.
func (s *Service) DetectMappings(code string, headers []string) map[string]importer.ColumnRef {
	if adapter, ok := s.registry.Get(code); ok {
		return adapter.DetectMappings(headers)
	}
	return importer.DetectColumnMappings(headers, nil)
}

// ValidateRows classifies parsed rows against the snapshot: rows whose SKU
// exists in the snapshot become updates, the rest inserts. Row order is
// preserved and invalid rows are kept so callers can report them.
func (s *Service) ValidateRows(rows []importer.ParsedRow, snapshot Snapshot) []ValidatedRow {
	validated := make([]ValidatedRow, 0, len(rows))
	for _, row := range rows {
		v := ValidatedRow{ParsedRow: row, IsValid: row.Valid()}
		if row.SKU != "" {
			if entry, ok := snapshot[row.SKU]; ok {
				id := entry.ID
				v.ExistingProductID = &id
				v.IsUpdate = true
			}
		}
		validated = append(validated, v)
	}
	return validated
}

// ComputePriceChanges emits one PriceChange per valid update row whose
// cost price differs from the snapshot's. Both the old and the new cost
// price must be present; list price movement alone never triggers a
// change, but the list prices are carried on the record. Costs compare
// at two-decimal resolution, so sub-cent drift from a storage round trip
// is not a change.
func (s *Service) ComputePriceChanges(rows []ValidatedRow, snapshot Snapshot) []PriceChange {
	var changes []PriceChange
	for _, row := range rows {
		if !row.IsValid || !row.IsUpdate || row.CostPrice == nil {
			continue
		}
		entry, ok := snapshot[row.SKU]
		if !ok || entry.CostPrice == nil {
			continue
		}
		oldCost := importer.Round2(*entry.CostPrice)
		newCost := importer.Round2(*row.CostPrice)
		if oldCost == newCost {
			continue
		}

		changes = append(changes, PriceChange{
			SupplierProductID: entry.ID,
			SupplierSKU:       row.SKU,
			ProductName:       row.Name,
			OldCostPrice:      entry.CostPrice,
			NewCostPrice:      row.CostPrice,
			OldListPrice:      entry.ListPrice,
			NewListPrice:      row.ListPrice,
			ChangePercentage:  changePercentage(oldCost, newCost),
		})
	}
	return changes
}

// RunImport executes the full pipeline: parse, validate, compute deltas
// and summarize. Dry runs produce the identical summary under the dry_run
// status so callers can preview an import without side effects.
func (s *Service) RunImport(ctx context.Context, params RunParams) (ImportResult, error) {
	batchID := params.BatchID
	if batchID == uuid.Nil {
		batchID = uuid.New()
	}
	log := s.log.WithBatchID(batchID.String()).WithSupplier(params.SupplierCode)

	result := ImportResult{
		BatchID:      batchID,
		SupplierCode: params.SupplierCode,
		Status:       StatusCompleted,
	}
	if params.DryRun {
		result.Status = StatusDryRun
	}

	rows, err := s.ProcessFile(params.SupplierCode, params.Data, params.Override)
	if err != nil {
		result.Status = StatusFailed
		log.SupplierError(params.SupplierCode, "catalogsync.RunImport", err)
		return result, err
	}

	validated := s.ValidateRows(rows, params.Snapshot)
	result.Rows = validated
	result.TotalRows = len(validated)

	for _, row := range validated {
		if !row.IsValid {
			result.SkippedRows++
			for _, msg := range row.Errors {
				result.Errors = append(result.Errors, RowError{Row: row.RowNumber, Message: msg})
			}
			continue
		}
		if row.IsUpdate {
			result.UpdatedProducts++
		} else {
			result.NewProducts++
		}
	}

	result.PriceChanges = s.ComputePriceChanges(validated, params.Snapshot)

	log.ImportEvent(params.SupplierCode, result.TotalRows, result.NewProducts,
		result.UpdatedProducts, result.SkippedRows, string(result.Status))

	s.publish(ctx, params, result)
	return result, nil
}

func (s *Service) publish(ctx context.Context, params RunParams, result ImportResult) {
	if s.bus == nil {
		return
	}

	completed := events.NewImportCompleted()
	completed.BatchID = result.BatchID.String()
	completed.SupplierCode = result.SupplierCode
	completed.Status = string(result.Status)
	completed.TotalRows = result.TotalRows
	completed.NewProducts = result.NewProducts
	completed.UpdatedProducts = result.UpdatedProducts
	completed.SkippedRows = result.SkippedRows
	completed.PriceChanges = len(result.PriceChanges)
	completed.SourceFile = params.SourceFile
	s.bus.Publish(ctx, completed)

	if len(result.PriceChanges) > 0 {
		detected := events.NewPriceChangesDetected()
		detected.BatchID = result.BatchID.String()
		detected.SupplierCode = result.SupplierCode
		detected.Count = len(result.PriceChanges)
		s.bus.Publish(ctx, detected)
	}
}

// changePercentage computes the relative cost movement. A zero old price
// has no meaningful baseline, so the percentage is reported as 0.
func changePercentage(oldPrice, newPrice float64) float64 {
	if oldPrice == 0 {
		return 0
	}
	return importer.Round2((newPrice - oldPrice) / oldPrice * 100)
}
