package moderation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
)

// SchemaProbe remembers which optional columns a table lacks. A table starts
// in the current shape and drops a column on the first schema mismatch naming
// it; the column never comes back while the process runs.
type SchemaProbe struct {
	mu      sync.RWMutex
	missing map[string]map[string]bool
}

// NewSchemaProbe creates a probe with every table in the current shape
func NewSchemaProbe() *SchemaProbe {
	return &SchemaProbe{missing: make(map[string]map[string]bool)}
}

// Legacy reports whether table is known to lack guild_id
func (p *SchemaProbe) Legacy(table string) bool {
	return p.Missing(table, models.ColGuildID)
}

// MarkLegacy switches table to the guild-less shape
func (p *SchemaProbe) MarkLegacy(table string, cause error) {
	p.MarkMissing(table, models.ColGuildID, cause)
}

// Missing reports whether column is known to be absent from table
func (p *SchemaProbe) Missing(table, column string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.missing[table][column]
}

// MarkMissing records that table has no column
func (p *SchemaProbe) MarkMissing(table, column string, cause error) {
	p.mu.Lock()
	if p.missing[table] == nil {
		p.missing[table] = make(map[string]bool)
	}
	already := p.missing[table][column]
	p.missing[table][column] = true
	p.mu.Unlock()

	if !already {
		schemaFallbacks.WithLabelValues(table, column).Inc()
		logger.Warn(fmt.Sprintf("La tabla '%s' no tiene la columna %s, se omite: %v", table, column, cause), "Schema")
	}
}

// mismatchColumn returns the column named by a schema mismatch. Mismatches
// that do not name a column report ok=false.
func mismatchColumn(err error) (string, bool) {
	var mismatch *database.SchemaMismatchError
	if !errors.As(err, &mismatch) || mismatch.Column == "" {
		return "", false
	}
	return mismatch.Column, true
}

// missingGuildColumn reports whether err is a mismatch on guild_id
func missingGuildColumn(err error) bool {
	col, ok := mismatchColumn(err)
	return ok && col == models.ColGuildID
}

func shapeLabel(legacy bool) string {
	if legacy {
		return "legacy"
	}
	return "scoped"
}
