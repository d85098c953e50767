package supplier

import (
	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/platform/logger"
)

// NewDefaultRegistry builds a registry with every built-in adapter
// registered. The supplier set is small and known at compile time, so
// explicit registrations keep dispatch type-safe.
func NewDefaultRegistry(engine *importer.Engine, log *logger.Logger) *Registry {
	registry := NewRegistry()
	registry.Register(SolarCode, func() Adapter { return NewSolarAdapter(engine, log) })
	registry.Register(LemvighMullerCode, func() Adapter { return NewLemvighMullerAdapter(engine, log) })
	return registry
}
