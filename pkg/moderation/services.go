package moderation

import (
	"context"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
)

// Services bundles the moderation core built over one store
type Services struct {
	Store  database.Store
	Schema *SchemaProbe
	Filter *WordFilter
	Warns  *WarnLedger
	Audit  *AuditSink
}

// NewServices wires the filter, ledger and audit sink over store
func NewServices(store database.Store, filterTTL time.Duration) *Services {
	schema := NewSchemaProbe()
	return &Services{
		Store:  store,
		Schema: schema,
		Filter: NewWordFilter(store, schema, filterTTL),
		Warns:  NewWarnLedger(store, schema),
		Audit:  NewAuditSink(store, schema),
	}
}

// StoreStatus reports the store connection for status surfaces
func (s *Services) StoreStatus(ctx context.Context) (string, bool) {
	return s.Store.Status(ctx)
}

// Close flushes pending audit entries and closes the store
func (s *Services) Close(ctx context.Context) error {
	s.Audit.Flush()
	return s.Store.Close(ctx)
}
