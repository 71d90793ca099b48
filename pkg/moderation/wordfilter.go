// Package moderation holds the rule cache and ledger of the bot: the
// blocked-word filter, the warn ledger, the audit sink and the message
// scanner that ties them together.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"golang.org/x/sync/singleflight"
)

// DefaultFilterTTL is how long a block-list snapshot is served before reloading
const DefaultFilterTTL = 60 * time.Second

// filterRetryDelay is how long a snapshot kept after a failed reload is
// served before the store is queried again
const filterRetryDelay = 5 * time.Second

var (
	// ErrWordAlreadyBlocked is returned when the word already exists in its scope
	ErrWordAlreadyBlocked = errors.New("la palabra ya está bloqueada")
	// ErrInvalidWord is returned for words that are empty after trimming
	ErrInvalidWord = errors.New("palabra inválida")
)

// filterSnapshot is an immutable view of the whole block-list
type filterSnapshot struct {
	words      []models.BlockedWord
	fetchedAt  time.Time
	generation uint64
}

// WordFilter caches the block-list and answers per-guild lookups
type WordFilter struct {
	store      database.Store
	schema     *SchemaProbe
	ttl        time.Duration
	now        func() time.Time
	current    atomic.Pointer[filterSnapshot]
	generation atomic.Uint64
	reloads    singleflight.Group
}

// NewWordFilter creates a filter over store. A non-positive ttl uses DefaultFilterTTL.
func NewWordFilter(store database.Store, schema *SchemaProbe, ttl time.Duration) *WordFilter {
	if ttl <= 0 {
		ttl = DefaultFilterTTL
	}
	if schema == nil {
		schema = NewSchemaProbe()
	}
	return &WordFilter{
		store:  store,
		schema: schema,
		ttl:    ttl,
		now:    time.Now,
	}
}

// BlockedWords returns the lower-cased words enforced in guildID: every
// global word plus the words scoped to that guild, without duplicates.
func (f *WordFilter) BlockedWords(ctx context.Context, guildID string) []string {
	snap := f.snapshot(ctx)
	filterLookups.Inc()

	seen := make(map[string]struct{}, len(snap.words))
	out := make([]string, 0, len(snap.words))
	for _, w := range snap.words {
		if !w.AppliesTo(guildID) {
			continue
		}
		if _, dup := seen[w.Word]; dup {
			continue
		}
		seen[w.Word] = struct{}{}
		out = append(out, w.Word)
	}
	return out
}

// Match reports the first blocked word contained in content. Matching is a
// plain case-insensitive substring test, so "ass" also matches "class".
func (f *WordFilter) Match(ctx context.Context, guildID, content string) (string, bool) {
	lowered := strings.ToLower(content)
	for _, word := range f.BlockedWords(ctx, guildID) {
		if strings.Contains(lowered, word) {
			filterHits.Inc()
			return word, true
		}
	}
	return "", false
}

// Size returns the number of words in the current snapshot
func (f *WordFilter) Size() int {
	if snap := f.current.Load(); snap != nil {
		return len(snap.words)
	}
	return 0
}

// Invalidate forces the next lookup to reload from the store
func (f *WordFilter) Invalidate() {
	f.generation.Add(1)
}

// BlockWord stores word in guildID's scope (empty guildID means global) and
// invalidates the cache. On a store without guild_id the word is stored
// globally; the returned record tells which scope was used.
func (f *WordFilter) BlockWord(ctx context.Context, word, guildID string) (models.BlockedWord, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return models.BlockedWord{}, ErrInvalidWord
	}

	entry := models.BlockedWord{Word: word, GuildID: guildID}
	if f.schema.Legacy(models.TableBlockedWords) {
		entry.GuildID = ""
	}

	exists, err := f.exists(ctx, entry)
	if err != nil {
		return models.BlockedWord{}, fmt.Errorf("consultando palabras bloqueadas: %w", err)
	}
	if exists {
		return entry, ErrWordAlreadyBlocked
	}

	err = f.store.Insert(ctx, models.TableBlockedWords, blockedWordRow(entry))
	if missingGuildColumn(err) && entry.GuildID != "" {
		f.schema.MarkLegacy(models.TableBlockedWords, err)
		logger.Warn(fmt.Sprintf("Palabra '%s' guardada como global: la tabla no admite servidores", word), "Filter")
		entry.GuildID = ""
		err = f.store.Insert(ctx, models.TableBlockedWords, blockedWordRow(entry))
	}
	if database.IsConflict(err) {
		return entry, ErrWordAlreadyBlocked
	}
	if err != nil {
		return models.BlockedWord{}, fmt.Errorf("guardando palabra bloqueada: %w", err)
	}

	f.Invalidate()
	logger.Info(fmt.Sprintf("Palabra bloqueada añadida: '%s' (%s)", word, scopeLabel(entry.GuildID)), "Filter")
	return entry, nil
}

// exists checks the scope by hand because SQL unique indexes let NULL scopes repeat
func (f *WordFilter) exists(ctx context.Context, entry models.BlockedWord) (bool, error) {
	rows, err := f.store.Select(ctx, models.TableBlockedWords, database.Filters{"word": entry.Word})
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.String(models.ColGuildID) == entry.GuildID {
			return true, nil
		}
	}
	return false, nil
}

func blockedWordRow(entry models.BlockedWord) database.Row {
	row := database.Row{"word": entry.Word}
	if entry.GuildID != "" {
		row[models.ColGuildID] = entry.GuildID
	}
	return row
}

func scopeLabel(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return "servidor " + guildID
}

// stale reports whether snap has expired or predates the last invalidation
func (f *WordFilter) stale(snap *filterSnapshot) bool {
	if snap.generation < f.generation.Load() {
		return true
	}
	return snap.fetchedAt.IsZero() || f.now().Sub(snap.fetchedAt) > f.ttl
}

// snapshot returns a fresh snapshot, reloading at most once concurrently
// per invalidation generation
func (f *WordFilter) snapshot(ctx context.Context) *filterSnapshot {
	if snap := f.current.Load(); snap != nil && !f.stale(snap) {
		return snap
	}

	gen := f.generation.Load()
	v, _, _ := f.reloads.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return f.reload(context.WithoutCancel(ctx), gen), nil
	})
	return v.(*filterSnapshot)
}

func (f *WordFilter) reload(ctx context.Context, gen uint64) *filterSnapshot {
	prev := f.current.Load()
	if prev != nil && !f.stale(prev) {
		return prev
	}

	rows, err := f.store.Select(ctx, models.TableBlockedWords, nil)
	if err != nil {
		filterReloads.WithLabelValues("error").Inc()
		logger.Warn(fmt.Sprintf("No se pudo recargar la lista de palabras, se mantiene la anterior: %v", err), "Filter")
		retained := &filterSnapshot{fetchedAt: f.retryStamp(), generation: gen}
		if prev != nil {
			retained.words = prev.words
		}
		f.current.Store(retained)
		return retained
	}

	words := make([]models.BlockedWord, 0, len(rows))
	for _, row := range rows {
		word := strings.ToLower(strings.TrimSpace(row.String("word")))
		if word == "" {
			continue
		}
		words = append(words, models.BlockedWord{Word: word, GuildID: row.String(models.ColGuildID)})
	}

	// an invalidation during the read leaves next behind the generation
	// counter, so stale reports it and the next lookup reloads
	next := &filterSnapshot{words: words, fetchedAt: f.now(), generation: gen}
	f.current.Store(next)

	filterReloads.WithLabelValues("ok").Inc()
	filterCacheSize.Set(float64(len(words)))
	logger.Debug(fmt.Sprintf("Lista de palabras recargada: %d entradas", len(words)), "Filter")
	return next
}

// retryStamp dates a retained snapshot so it expires after filterRetryDelay
func (f *WordFilter) retryStamp() time.Time {
	delay := filterRetryDelay
	if delay > f.ttl {
		delay = f.ttl
	}
	return f.now().Add(delay - f.ttl)
}
