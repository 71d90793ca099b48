// Package web provides the read-only HTTP bridge consumed by the dashboard.
// It uses Gin framework for high-performance web handling.
package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Options configures the bridge server
type Options struct {
	// WebhookURL receives one embed per request when set
	WebhookURL string
	// AllowedHosts is a Host header regex; requests from other hosts are
	// rejected with 403. Empty accepts every host.
	AllowedHosts string
	// Origins allowed by CORS. Empty allows any origin.
	Origins []string
	// RequestsPerMinute per client IP
	RequestsPerMinute int
}

// Server represents the web server
type Server struct {
	engine           *gin.Engine
	webhookURL       string
	allowedHostRegex *regexp.Regexp
	webhookClient    *http.Client

	httpServer *http.Server
	running    atomic.Bool
	mu         sync.Mutex
}

var (
	server *Server
)

// Init initializes the global web server
func Init(opts Options) (*Server, error) {
	s, err := NewServer(opts)
	if err != nil {
		return nil, err
	}
	server = s
	return server, nil
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a new web server
func NewServer(opts Options) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:        engine,
		webhookURL:    opts.WebhookURL,
		webhookClient: &http.Client{Timeout: 5 * time.Second},
	}

	if opts.AllowedHosts != "" {
		re, err := regexp.Compile(opts.AllowedHosts)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_HOSTS inválido: %w", err)
		}
		s.allowedHostRegex = re
	}

	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 100
	}

	// Apply middlewares
	s.engine.Use(corsMiddleware(opts.Origins))
	s.engine.Use(s.logsMiddleware())
	s.engine.Use(newIPLimiter(opts.RequestsPerMinute).middleware())
	s.engine.Use(metricsMiddleware())

	// Set up error handlers
	s.setupErrorHandlers()

	return s, nil
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Running reports whether the listener is up
func (s *Server) Running() bool {
	if s == nil {
		return false
	}
	return s.running.Load()
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// logsMiddleware logs incoming requests and rejects unknown hosts
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.allowedHostRegex != nil && !s.allowedHostRegex.MatchString(c.Request.Host) {
			logger.Warn(fmt.Sprintf("[LOG] Solicitud Sospechosa: %s %s | %s", c.Request.Method, c.Request.URL.Path, c.ClientIP()), "WebServer")
			go s.sendLogToWebhook(requestSummary(c), true)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		logger.Debug(fmt.Sprintf("[LOG] Nueva solicitud: %s %s", c.Request.Method, c.Request.URL.Path), "WebServer")
		go s.sendLogToWebhook(requestSummary(c), false)
		c.Next()
	}
}

// summary is the part of a request reported to the webhook; gin.Context
// must not be used after the handler returns
type summary struct {
	Method  string
	Path    string
	IP      string
	Headers http.Header
	Query   string
}

func requestSummary(c *gin.Context) summary {
	return summary{
		Method:  c.Request.Method,
		Path:    c.Request.URL.Path,
		IP:      c.ClientIP(),
		Headers: c.Request.Header.Clone(),
		Query:   c.Request.URL.RawQuery,
	}
}

// sendLogToWebhook sends a log message to the Discord webhook
func (s *Server) sendLogToWebhook(req summary, suspicious bool) {
	if s.webhookURL == "" {
		return
	}

	title := fmt.Sprintf("💫 | Nueva solicitud al bridge de tipo %s", req.Method)
	color := 0x00AE86 // Green

	if suspicious {
		title = fmt.Sprintf("💫 | Solicitud Sospechosa Rechazada: %s %s", req.Method, req.Path)
		color = 0xFFA500 // Orange
	}

	headers, _ := json.Marshal(req.Headers)
	query := req.Query
	if query == "" {
		query = "{}"
	}

	payload := map[string]interface{}{
		"embeds": []interface{}{map[string]interface{}{
			"title": title,
			"description": fmt.Sprintf(
				"> **Ruta:** `%s`\n> **IP:** `%s`\n> **Headers:** ```%s``` \n> **Query:** ```%s```",
				req.Path, req.IP, string(headers), query,
			),
			"color":     color,
			"timestamp": time.Now().Format(time.RFC3339),
		}},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	resp, err := s.webhookClient.Post(s.webhookURL, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return
	}
	defer resp.Body.Close()
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	// 404 handler
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  404,
		})
	})

	// 405 handler
	s.engine.HandleMethodNotAllowed = true
	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  405,
		})
	})
}

// Start serves on port until Shutdown is called
func (s *Server) Start(port string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	logger.Info(fmt.Sprintf("🚀 Bridge escuchando en http://localhost:%s", port), "WebServer")
	s.running.Store(true)
	defer s.running.Store(false)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil {
			logger.Error(fmt.Sprintf("Error iniciando el bridge: %v", err), "WebServer")
		}
	}()
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ipLimiter hands out one token bucket per client IP
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perMinute int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			return
		}
		c.Next()
	}
}
