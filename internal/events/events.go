// Package events re-exports the platform event bus and defines the domain
// events published by the sync engine.
package events

import (
	platformevents "catalog_sync_backend/platform/events"
	"catalog_sync_backend/platform/logger"
)

// Bus is a type alias to the platform bus interface.
type Bus = platformevents.Bus

// Handler is a type alias to the platform handler interface.
type Handler = platformevents.Handler

// HandlerFunc is a type alias to the platform handler func adapter.
type HandlerFunc = platformevents.HandlerFunc

// Event is a type alias to the platform event interface.
type Event = platformevents.Event

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// Event names.
const (
	EventImportCompleted      = "catalog.import_completed"
	EventPriceChangesDetected = "catalog.price_changes_detected"
)

// ImportCompleted is published after every import run, including dry runs.
type ImportCompleted struct {
	platformevents.BaseEvent
	BatchID         string
	SupplierCode    string
	Status          string
	TotalRows       int
	NewProducts     int
	UpdatedProducts int
	SkippedRows     int
	PriceChanges    int
	SourceFile      string
}

// EventName returns the event identifier.
func (ImportCompleted) EventName() string { return EventImportCompleted }

// NewImportCompleted creates the event with the current timestamp.
func NewImportCompleted() ImportCompleted {
	return ImportCompleted{BaseEvent: platformevents.NewBaseEvent()}
}

// PriceChangesDetected is published when an import run found cost price
// movements against the existing catalog.
type PriceChangesDetected struct {
	platformevents.BaseEvent
	BatchID      string
	SupplierCode string
	Count        int
}

// EventName returns the event identifier.
func (PriceChangesDetected) EventName() string { return EventPriceChangesDetected }

// NewPriceChangesDetected creates the event with the current timestamp.
func NewPriceChangesDetected() PriceChangesDetected {
	return PriceChangesDetected{BaseEvent: platformevents.NewBaseEvent()}
}
