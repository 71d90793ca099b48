package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord/discordtest"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct{ ready bool }

func (b fakeBot) IsReady() bool          { return b.ready }
func (b fakeBot) Uptime() time.Duration { return 90 * time.Second }

type fixture struct {
	server   *Server
	store    *database.MemoryStore
	services *moderation.Services
	platform *discordtest.Platform
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := database.NewMemoryStore()
	svc := moderation.NewServices(store, time.Minute)
	platform := discordtest.NewPlatform()

	s, err := NewServer(opts)
	require.NoError(t, err)
	SetupAPIRoutes(s, Deps{Services: svc, Bot: fakeBot{ready: true}, Guilds: platform})

	return &fixture{server: s, store: store, services: svc, platform: platform}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CORE_ONLINE", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestStatus(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.get("/api/status")

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Database struct {
			IsOnline bool `json:"isOnline"`
		} `json:"database"`
		Bot struct {
			IsOnline bool  `json:"isOnline"`
			Uptime   int64 `json:"uptime"`
		} `json:"bot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Database.IsOnline)
	assert.True(t, body.Bot.IsOnline)
	assert.Equal(t, int64(90), body.Bot.Uptime)
}

func TestGuilds(t *testing.T) {
	f := newFixture(t, Options{})
	f.platform.AddGuild(&discordgo.Guild{ID: "g1", Name: "Nucleo", MemberCount: 42})

	w := f.get("/api/guilds")

	assert.Equal(t, http.StatusOK, w.Code)
	var guilds []GuildSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &guilds))
	assert.Equal(t, []GuildSummary{{ID: "g1", Name: "Nucleo", MemberCount: 42}}, guilds)
}

func TestLogs_NewestFirstCappedAtTwenty(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		f.services.Audit.Record(ctx, models.AuditEventInfo, fmt.Sprintf("entrada %d", i), "tester", "g1")
	}
	f.services.Audit.Flush()

	w := f.get("/api/logs")

	assert.Equal(t, http.StatusOK, w.Code)
	var entries []models.AuditLogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 20)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt), "entries must be newest first")
	}
}

func TestLogs_StoreFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.FailNext(models.TableSystemLogs, errors.New("timeout"))

	w := f.get("/api/logs")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.get("/api/nada")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "La ruta solicitada no existe.")
}

func TestAllowedHosts(t *testing.T) {
	f := newFixture(t, Options{AllowedHosts: `^(.+\.)?nucleo\.example$`})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "evil.test"
	w := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "api.nucleo.example"
	w = httptest.NewRecorder()
	f.server.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidAllowedHosts(t *testing.T) {
	_, err := NewServer(Options{AllowedHosts: "("})
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Options{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, f.get("/api/health").Code)
	}
	w := f.get("/api/health")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, Options{Origins: []string{"https://dash.example"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://dash.example")
	w := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(w, req)

	assert.Equal(t, "https://dash.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Options{})
	f.get("/api/health")

	w := f.get("/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nucleo_bridge_requests_total")
}

func TestLogStream(t *testing.T) {
	f := newFixture(t, Options{})
	ts := httptest.NewServer(f.server.Engine())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/logs/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	f.services.Audit.Record(context.Background(), models.AuditEventWarn, "WARN [1] -> pepe", "root", "g1")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var entry models.AuditLogEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, models.AuditEventWarn, entry.Event)
	assert.Equal(t, "WARN [1] -> pepe", entry.Details)
}

func TestRunningFlag(t *testing.T) {
	var s *Server
	assert.False(t, s.Running())

	f := newFixture(t, Options{})
	assert.False(t, f.server.Running())
	assert.NoError(t, f.server.Shutdown(context.Background()))
}
