package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	apperrors "github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/google/uuid"
)

// DefaultRecentLimit is the number of entries returned by Recent when no limit is given
const DefaultRecentLimit = 20

const colAuditID = "id"

// AuditPublisher mirrors appended entries to an external channel (MQTT)
type AuditPublisher interface {
	PublishAudit(entry models.AuditLogEntry) error
}

// AuditSink appends entries to system_logs without ever failing the caller
type AuditSink struct {
	store     database.Store
	schema    *SchemaProbe
	now       func() time.Time
	publisher AuditPublisher

	wg     sync.WaitGroup
	subsMu sync.RWMutex
	subs   map[int]chan models.AuditLogEntry
	nextID int
}

// NewAuditSink creates a sink over store
func NewAuditSink(store database.Store, schema *SchemaProbe) *AuditSink {
	if schema == nil {
		schema = NewSchemaProbe()
	}
	return &AuditSink{
		store:  store,
		schema: schema,
		now:    time.Now,
		subs:   make(map[int]chan models.AuditLogEntry),
	}
}

// SetPublisher sets the mirror publisher. Call it before the first Record.
func (s *AuditSink) SetPublisher(p AuditPublisher) {
	s.publisher = p
}

// Record appends an entry in the background. Failures are logged and dropped.
func (s *AuditSink) Record(ctx context.Context, event models.AuditEvent, details, operator, guildID string) {
	entry := models.AuditLogEntry{
		ID:        uuid.NewString(),
		Event:     event,
		Details:   details,
		Operator:  operator,
		GuildID:   guildID,
		CreatedAt: s.now().UTC(),
	}

	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer apperrors.RecoverMiddleware()()
		s.append(detached, entry)
	}()
}

// Flush waits for every pending append
func (s *AuditSink) Flush() {
	s.wg.Wait()
}

func (s *AuditSink) append(ctx context.Context, entry models.AuditLogEntry) {
	err := s.insert(ctx, entry)
	if err != nil {
		auditAppends.WithLabelValues(string(entry.Event), "error").Inc()
		logger.Error(fmt.Sprintf("No se pudo registrar el evento %s: %v", entry.Event, err), "Audit")
		return
	}
	auditAppends.WithLabelValues(string(entry.Event), "ok").Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishAudit(entry); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo publicar el evento %s: %v", entry.Event, err), "Audit")
		}
	}
	s.broadcast(entry)
}

// insert writes entry, dropping each optional column the table turns out
// to lack. Any other failure is returned as is.
func (s *AuditSink) insert(ctx context.Context, entry models.AuditLogEntry) error {
	for {
		err := s.store.Insert(ctx, models.TableSystemLogs, s.auditRow(entry))
		col, ok := mismatchColumn(err)
		if !ok || !optionalAuditColumns[col] || s.schema.Missing(models.TableSystemLogs, col) {
			return err
		}
		s.schema.MarkMissing(models.TableSystemLogs, col, err)
	}
}

// Recent returns the newest entries first
func (s *AuditSink) Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.store.Select(ctx, models.TableSystemLogs, nil,
		database.OrderBy(models.ColCreatedAt, true),
		database.Limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("leyendo auditoría: %w", err)
	}

	entries := make([]models.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.AuditLogEntry{
			ID:        row.String(colAuditID),
			Event:     models.AuditEvent(row.String("event")),
			Details:   row.String("details"),
			Operator:  row.String("operator"),
			GuildID:   row.String(models.ColGuildID),
			CreatedAt: row.Time(models.ColCreatedAt),
		})
	}
	return entries, nil
}

// Subscribe returns a channel receiving every entry appended from now on and
// a function that ends the subscription. Slow subscribers miss entries.
func (s *AuditSink) Subscribe(buffer int) (<-chan models.AuditLogEntry, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan models.AuditLogEntry, buffer)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *AuditSink) broadcast(entry models.AuditLogEntry) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// optionalAuditColumns may be absent from system_logs; id is not part of
// the original table and guild_id came later
var optionalAuditColumns = map[string]bool{
	colAuditID:        true,
	models.ColGuildID: true,
}

func (s *AuditSink) auditRow(entry models.AuditLogEntry) database.Row {
	row := database.Row{
		"event":             string(entry.Event),
		"details":           entry.Details,
		"operator":          entry.Operator,
		models.ColCreatedAt: entry.CreatedAt,
	}
	if !s.schema.Missing(models.TableSystemLogs, colAuditID) {
		row[colAuditID] = entry.ID
	}
	if entry.GuildID != "" && !s.schema.Legacy(models.TableSystemLogs) {
		row[models.ColGuildID] = entry.GuildID
	}
	return row
}
