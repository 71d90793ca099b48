package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/config"
	"github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// recentLogs is how many audit entries /api/logs returns
const recentLogs = 20

// requestTimeout bounds the store reads behind each endpoint
const requestTimeout = 5 * time.Second

// BotState is what the bridge needs from the Discord client
type BotState interface {
	IsReady() bool
	Uptime() time.Duration
}

// GuildSource lists the guilds the bot is in
type GuildSource interface {
	Guilds() []*discordgo.Guild
}

// Deps are the read-only sources behind the API
type Deps struct {
	Services *moderation.Services
	Bot      BotState
	Guilds   GuildSource
}

// GuildSummary is one entry of /api/guilds
type GuildSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS middleware already restricts browser origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, deps Deps) {
	s.engine.GET("/", rootHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/status", statusHandler(deps))
		api.GET("/health", healthHandler)
		api.GET("/guilds", guildsHandler(deps))
		api.GET("/logs", logsHandler(deps))
		api.GET("/logs/stream", logStreamHandler(deps))
	}
}

// rootHandler answers the dashboard's liveness probe
func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "CORE_ONLINE",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusHandler returns the bot and store status
func statusHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		storeStatus, storeOnline := deps.Services.StoreStatus(ctx)

		botOnline := false
		var uptime time.Duration
		if deps.Bot != nil {
			botOnline = deps.Bot.IsReady()
			uptime = deps.Bot.Uptime()
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"database": gin.H{
				"status":   storeStatus,
				"isOnline": storeOnline,
			},
			"bot": gin.H{
				"isOnline": botOnline,
				"uptime":   int64(uptime.Seconds()),
			},
			"filter": gin.H{
				"cachedWords": deps.Services.Filter.Size(),
			},
			"version": config.Version,
		})
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "NucleoBot Go is running",
	})
}

func guildsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]GuildSummary, 0)
		if deps.Guilds != nil {
			for _, g := range deps.Guilds.Guilds() {
				out = append(out, GuildSummary{ID: g.ID, Name: g.Name, MemberCount: g.MemberCount})
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// logsHandler returns the newest audit entries first
func logsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		entries, err := deps.Services.Audit.Recent(ctx, recentLogs)
		if err != nil {
			logger.Error(fmt.Sprintf("Error leyendo auditoría: %v", err), "WebServer")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Store Unavailable",
				"message": "No se pudo leer el registro de auditoría.",
			})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// logStreamHandler pushes every new audit entry over a websocket
func logStreamHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Subscribe first so nothing appended during the handshake is lost
		entries, unsubscribe := deps.Services.Audit.Subscribe(32)
		defer unsubscribe()

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn(fmt.Sprintf("Upgrade websocket fallido: %v", err), "WebServer")
			return
		}
		defer conn.Close()

		// The reader only notices the peer closing
		closed := make(chan struct{})
		go func() {
			defer errors.RecoverMiddleware()()
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-closed:
				return
			case <-c.Request.Context().Done():
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case entry, ok := <-entries:
				if !ok {
					return
				}
				data, err := json.Marshal(entry)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}
}
