// Package catalog persists supplier products and import batches.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog_sync_backend/internal/catalogsync"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Repository is the Postgres access layer for the product catalog.
type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewRepository creates a catalog repository.
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Snapshot loads the supplier's current catalog keyed by SKU. The sync
// engine classifies incoming rows against this map.
func (r *Repository) Snapshot(ctx context.Context, supplierID uuid.UUID) (catalogsync.Snapshot, error) {
	const query = `
		SELECT id, supplier_sku, cost_price, list_price
		FROM supplier_products
		WHERE supplier_id = $1`

	rows, err := r.pool.Query(ctx, query, supplierID)
	if err != nil {
		r.log.DatabaseError("load catalog snapshot", err)
		return nil, apperr.Transient("load catalog snapshot failed", err)
	}
	defer rows.Close()

	snapshot := make(catalogsync.Snapshot)
	for rows.Next() {
		var entry catalogsync.CatalogEntry
		var sku string
		if err := rows.Scan(&entry.ID, &sku, &entry.CostPrice, &entry.ListPrice); err != nil {
			return nil, apperr.Transient("scan catalog snapshot failed", err)
		}
		snapshot[sku] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("read catalog snapshot failed", err)
	}
	return snapshot, nil
}

// UpsertProducts writes the valid rows of an import in one batch. Rows
// with validation errors must already be filtered out by the caller.
func (r *Repository) UpsertProducts(ctx context.Context, supplierID uuid.UUID, rows []catalogsync.ValidatedRow) error {
	const query = `
		INSERT INTO supplier_products (
			supplier_id, supplier_sku, name, cost_price, list_price, unit,
			category, sub_category, manufacturer, ean, min_order_quantity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (supplier_id, supplier_sku) DO UPDATE SET
			name = EXCLUDED.name,
			cost_price = EXCLUDED.cost_price,
			list_price = EXCLUDED.list_price,
			unit = EXCLUDED.unit,
			category = EXCLUDED.category,
			sub_category = EXCLUDED.sub_category,
			manufacturer = EXCLUDED.manufacturer,
			ean = EXCLUDED.ean,
			min_order_quantity = EXCLUDED.min_order_quantity,
			updated_at = now()`

	batch := &pgx.Batch{}
	for _, row := range rows {
		if !row.IsValid {
			continue
		}
		batch.Queue(query,
			supplierID, row.SKU, row.Name, row.CostPrice, row.ListPrice, row.Unit,
			nullable(row.Category), nullable(row.SubCategory),
			nullable(row.Manufacturer), nullable(row.EAN),
			row.MinOrderQuantity,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			r.log.DatabaseError("upsert supplier products", err)
			return apperr.Transient("upsert supplier products failed", err)
		}
	}
	return nil
}

// CreateBatch records the start of an import run.
func (r *Repository) CreateBatch(ctx context.Context, batchID, supplierID uuid.UUID, supplierCode, sourceFile string) error {
	const query = `
		INSERT INTO import_batches (id, supplier_id, supplier_code, status, source_file)
		VALUES ($1, $2, $3, 'running', $4)`

	if _, err := r.pool.Exec(ctx, query, batchID, supplierID, supplierCode, nullable(sourceFile)); err != nil {
		r.log.DatabaseError("create import batch", err)
		return apperr.Transient("create import batch failed", err)
	}
	return nil
}

// FinishBatch stores the final counters and status of an import run.
func (r *Repository) FinishBatch(ctx context.Context, result catalogsync.ImportResult) error {
	const query = `
		UPDATE import_batches
		SET status = $2, total_rows = $3, new_products = $4,
		    updated_products = $5, skipped_rows = $6, price_changes = $7,
		    finished_at = $8
		WHERE id = $1`

	_, err := r.pool.Exec(ctx, query,
		result.BatchID, string(result.Status), result.TotalRows,
		result.NewProducts, result.UpdatedProducts, result.SkippedRows,
		len(result.PriceChanges), time.Now(),
	)
	if err != nil {
		r.log.DatabaseError("finish import batch", err)
		return apperr.Transient("finish import batch failed", err)
	}
	return nil
}

// RecentBatches returns the latest import runs for a supplier, newest
// first.
func (r *Repository) RecentBatches(ctx context.Context, supplierID uuid.UUID, limit int) ([]BatchSummary, error) {
	const query = `
		SELECT id, supplier_code, status, total_rows, new_products,
		       updated_products, skipped_rows, price_changes, source_file,
		       started_at, finished_at
		FROM import_batches
		WHERE supplier_id = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, supplierID, limit)
	if err != nil {
		r.log.DatabaseError("list import batches", err)
		return nil, apperr.Transient("list import batches failed", err)
	}
	defer rows.Close()

	var batches []BatchSummary
	for rows.Next() {
		var b BatchSummary
		var sourceFile *string
		if err := rows.Scan(&b.ID, &b.SupplierCode, &b.Status, &b.TotalRows,
			&b.NewProducts, &b.UpdatedProducts, &b.SkippedRows, &b.PriceChanges,
			&sourceFile, &b.StartedAt, &b.FinishedAt); err != nil {
			return nil, apperr.Transient("scan import batch failed", err)
		}
		b.SourceFile = deref(sourceFile)
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// BatchSummary is one import batch row as read back for reporting.
type BatchSummary struct {
	ID              uuid.UUID
	SupplierCode    string
	Status          string
	TotalRows       int
	NewProducts     int
	UpdatedProducts int
	SkippedRows     int
	PriceChanges    int
	SourceFile      string
	StartedAt       time.Time
	FinishedAt      *time.Time
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
