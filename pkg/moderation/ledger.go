package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
)

// WarnLedger counts warnings per user and guild
type WarnLedger struct {
	store  database.Store
	schema *SchemaProbe
	locks  keyedMutex
	now    func() time.Time
}

// NewWarnLedger creates a ledger over store
func NewWarnLedger(store database.Store, schema *SchemaProbe) *WarnLedger {
	if schema == nil {
		schema = NewSchemaProbe()
	}
	return &WarnLedger{
		store:  store,
		schema: schema,
		now:    time.Now,
	}
}

// RecordWarn adds one warning and returns the updated record. Warns for the
// same user and guild are serialized inside this process.
func (l *WarnLedger) RecordWarn(ctx context.Context, userID, guildID, reason string) (models.WarnRecord, error) {
	unlock := l.locks.Lock(userID + "/" + guildID)
	defer unlock()

	current, err := l.GetWarns(ctx, userID, guildID)
	if err != nil {
		return models.WarnRecord{}, err
	}

	rec := models.WarnRecord{
		UserID:         userID,
		GuildID:        guildID,
		WarnCount:      current.WarnCount + 1,
		LastWarnReason: reason,
		UpdatedAt:      l.now().UTC(),
	}

	if !l.schema.Legacy(models.TableUserWarns) {
		err = l.store.Upsert(ctx, models.TableUserWarns, scopedWarnRow(rec), models.ColUserID, models.ColGuildID)
		if err == nil {
			warnsRecorded.WithLabelValues("record", shapeLabel(false)).Inc()
			return rec, nil
		}
		if !missingGuildColumn(err) {
			return models.WarnRecord{}, fmt.Errorf("guardando advertencia: %w", err)
		}
		l.schema.MarkLegacy(models.TableUserWarns, err)
	}

	// same count as computed above, keyed on the user alone
	rec.GuildID = ""
	if err := l.store.Upsert(ctx, models.TableUserWarns, legacyWarnRow(rec), models.ColUserID); err != nil {
		return models.WarnRecord{}, fmt.Errorf("guardando advertencia: %w", err)
	}
	warnsRecorded.WithLabelValues("record", shapeLabel(true)).Inc()
	return rec, nil
}

// GetWarns returns the guild's record for the user, falling back to the
// guild-less record, or a zero-count record when neither exists.
func (l *WarnLedger) GetWarns(ctx context.Context, userID, guildID string) (models.WarnRecord, error) {
	if !l.schema.Legacy(models.TableUserWarns) {
		rec, found, err := l.findWarn(ctx, database.Filters{models.ColUserID: userID, models.ColGuildID: nullable(guildID)})
		switch {
		case missingGuildColumn(err):
			l.schema.MarkLegacy(models.TableUserWarns, err)
		case err != nil:
			return models.WarnRecord{}, fmt.Errorf("leyendo advertencias: %w", err)
		case found:
			return rec, nil
		case guildID == "":
			return models.WarnRecord{UserID: userID}, nil
		default:
			rec, found, err = l.findWarn(ctx, database.Filters{models.ColUserID: userID, models.ColGuildID: nil})
			if err != nil {
				return models.WarnRecord{}, fmt.Errorf("leyendo advertencias: %w", err)
			}
			if found {
				return rec, nil
			}
			return models.WarnRecord{UserID: userID, GuildID: guildID}, nil
		}
	}

	rec, found, err := l.findWarn(ctx, database.Filters{models.ColUserID: userID})
	if err != nil {
		return models.WarnRecord{}, fmt.Errorf("leyendo advertencias: %w", err)
	}
	if !found {
		return models.WarnRecord{UserID: userID}, nil
	}
	return rec, nil
}

// ClearWarns deletes the user's record in guildID and the guild-less record.
// Deleting a record that does not exist is not an error.
func (l *WarnLedger) ClearWarns(ctx context.Context, userID, guildID string) error {
	unlock := l.locks.Lock(userID + "/" + guildID)
	defer unlock()

	if !l.schema.Legacy(models.TableUserWarns) {
		err := l.store.Delete(ctx, models.TableUserWarns, database.Filters{models.ColUserID: userID, models.ColGuildID: nullable(guildID)})
		if err == nil && guildID != "" {
			err = l.store.Delete(ctx, models.TableUserWarns, database.Filters{models.ColUserID: userID, models.ColGuildID: nil})
		}
		if err == nil {
			warnsRecorded.WithLabelValues("clear", shapeLabel(false)).Inc()
			return nil
		}
		if !missingGuildColumn(err) {
			return fmt.Errorf("borrando advertencias: %w", err)
		}
		l.schema.MarkLegacy(models.TableUserWarns, err)
	}

	if err := l.store.Delete(ctx, models.TableUserWarns, database.Filters{models.ColUserID: userID}); err != nil {
		return fmt.Errorf("borrando advertencias: %w", err)
	}
	warnsRecorded.WithLabelValues("clear", shapeLabel(true)).Inc()
	logger.Debug(fmt.Sprintf("Advertencias de %s eliminadas (esquema antiguo)", userID), "Warns")
	return nil
}

func (l *WarnLedger) findWarn(ctx context.Context, filters database.Filters) (models.WarnRecord, bool, error) {
	rows, err := l.store.Select(ctx, models.TableUserWarns, filters, database.Limit(1))
	if err != nil || len(rows) == 0 {
		return models.WarnRecord{}, false, err
	}
	row := rows[0]
	return models.WarnRecord{
		UserID:         row.String(models.ColUserID),
		GuildID:        row.String(models.ColGuildID),
		WarnCount:      row.Int("warn_count"),
		LastWarnReason: row.String("last_warn_reason"),
		UpdatedAt:      row.Time("updated_at"),
	}, true, nil
}

func scopedWarnRow(rec models.WarnRecord) database.Row {
	row := legacyWarnRow(rec)
	row[models.ColGuildID] = nullable(rec.GuildID)
	return row
}

func legacyWarnRow(rec models.WarnRecord) database.Row {
	return database.Row{
		models.ColUserID:   rec.UserID,
		"warn_count":       rec.WarnCount,
		"last_warn_reason": rec.LastWarnReason,
		"updated_at":       rec.UpdatedAt,
	}
}

// nullable maps the empty scope onto a null column value
func nullable(guildID string) interface{} {
	if guildID == "" {
		return nil
	}
	return guildID
}

// keyedMutex hands out one mutex per key and forgets it when unused
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
