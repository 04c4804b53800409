// Package http exposes the attachment composer over REST plus a websocket
// stream of selection snapshots and notifications.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"satchel/internal/composer"
	"satchel/internal/config"
	"satchel/internal/knowledge"
	"satchel/internal/observability"
	"satchel/internal/picker"
)

// Server wires the composer to HTTP.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	hub        *Hub
	logger     *observability.Logger
}

// Deps carries everything the handlers need.
type Deps struct {
	Store        *composer.SelectionStore
	Orchestrator *composer.UploadOrchestrator
	Intake       *composer.BatchIntake
	Knowledge    knowledge.Provider
	Settings     composer.Settings
	DriveConfig  picker.Config
	Notifier     composer.Notifier
	Logger       *observability.Logger
}

func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(deps.Logger))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	engine.Use(cors.New(corsCfg))

	hub, _ := deps.Notifier.(*Hub)

	handler := newAPIHandler(deps)
	api := engine.Group("/api")
	{
		api.GET("/attachments", handler.listAttachments)
		api.POST("/attachments", handler.uploadAttachments)
		api.DELETE("/attachments/:itemId", handler.removeAttachment)
		api.POST("/attachments/drive", handler.importFromDrive)
		api.GET("/knowledge", handler.listKnowledgeBases)
		api.POST("/knowledge/select", handler.selectKnowledgeBase)
	}
	if hub != nil {
		engine.GET("/ws", hub.serveWS)
	}
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		hub:    hub,
		logger: deps.Logger.With("component", "HTTPServer"),
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains connections and closes the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	log := logger.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
