package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	err     error
}

func (p *recordingPublisher) PublishAudit(entry models.AuditLogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func newTestSink(opts ...database.MemoryOption) (*AuditSink, *database.MemoryStore, *fakeClock) {
	store := database.NewMemoryStore(opts...)
	clock := newFakeClock()
	s := NewAuditSink(store, NewSchemaProbe())
	s.now = clock.Now
	return s, store, clock
}

func TestAuditSink_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestSink()

	s.Record(ctx, models.AuditEventWarn, "WARN [1] -> u1", "mod#0001", "g1")
	s.Flush()
	clock.Advance(time.Second)
	s.Record(ctx, models.AuditEventIsolation, "AISLAMIENTO ACTIVADO", "owner", "g1")
	s.Flush()

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditEventIsolation, entries[0].Event)
	assert.Equal(t, models.AuditEventWarn, entries[1].Event)
	assert.Equal(t, "mod#0001", entries[1].Operator)
	assert.Equal(t, "g1", entries[1].GuildID)
	assert.NotEmpty(t, entries[1].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestAuditSink_RecentLimit(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestSink()

	for i := 0; i < 25; i++ {
		s.Record(ctx, models.AuditEventInfo, fmt.Sprintf("evento %d", i), "tester", "")
		s.Flush()
		clock.Advance(time.Second)
	}

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, DefaultRecentLimit)
	assert.Equal(t, "evento 24", entries[0].Details)

	entries, err = s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestAuditSink_FailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSink()
	pub := &recordingPublisher{}
	s.SetPublisher(pub)

	store.FailNext(models.TableSystemLogs, errors.New("insert rechazado"))
	assert.NotPanics(t, func() {
		s.Record(ctx, models.AuditEventFilter, "MSG_DEL", models.OperatorAutoMod, "g1")
		s.Flush()
	})

	assert.Equal(t, 0, store.Len(models.TableSystemLogs))
	assert.Equal(t, 0, pub.count(), "failed appends are not mirrored")
}

func TestAuditSink_LegacySchemaDropsGuild(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSink(database.WithMissingColumns(models.TableSystemLogs, models.ColGuildID))

	s.Record(ctx, models.AuditEventWarn, "WARN", "mod", "g1")
	s.Flush()

	assert.Equal(t, 1, store.Len(models.TableSystemLogs))
	assert.True(t, s.schema.Legacy(models.TableSystemLogs))

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].GuildID)
}

func TestAuditSink_TableWithoutID(t *testing.T) {
	ctx := context.Background()
	s, store, clock := newTestSink(database.WithMissingColumns(models.TableSystemLogs, "id"))

	s.Record(ctx, models.AuditEventWarn, "WARN", "mod", "g1")
	s.Flush()
	clock.Advance(time.Second)
	s.Record(ctx, models.AuditEventInfo, "INFO", "mod", "g1")
	s.Flush()

	assert.Equal(t, 2, store.Len(models.TableSystemLogs))
	assert.False(t, s.schema.Legacy(models.TableSystemLogs), "a missing id keeps guild scoping")

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "g1", entry.GuildID)
	}
}

func TestAuditSink_TableWithoutIDOrGuild(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSink(database.WithMissingColumns(models.TableSystemLogs, "id", models.ColGuildID))

	s.Record(ctx, models.AuditEventWarn, "WARN", "mod", "g1")
	s.Flush()
	s.Record(ctx, models.AuditEventWarn, "WARN", "mod", "g1")
	s.Flush()

	assert.Equal(t, 2, store.Len(models.TableSystemLogs))
	assert.True(t, s.schema.Legacy(models.TableSystemLogs))
}

func TestAuditSink_RequiredColumnMismatchIsNotFallback(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSink(database.WithMissingColumns(models.TableSystemLogs, "details"))

	s.Record(ctx, models.AuditEventWarn, "WARN", "mod", "g1")
	s.Flush()

	assert.Equal(t, 0, store.Len(models.TableSystemLogs))
	assert.False(t, s.schema.Legacy(models.TableSystemLogs))
	assert.False(t, s.schema.Missing(models.TableSystemLogs, "details"))
}

func TestAuditSink_PublishAndSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSink()
	pub := &recordingPublisher{err: errors.New("broker caído")}
	s.SetPublisher(pub)

	live, cancel := s.Subscribe(4)
	defer cancel()

	s.Record(ctx, models.AuditEventInfo, "CANAL CERRADO", "mod", "g1")
	s.Flush()

	assert.Equal(t, 1, pub.count(), "publisher errors do not stop the fan-out")
	select {
	case entry := <-live:
		assert.Equal(t, "CANAL CERRADO", entry.Details)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the entry")
	}

	cancel()
	_, open := <-live
	assert.False(t, open)
	assert.NotPanics(t, cancel, "cancel is idempotent")
}
