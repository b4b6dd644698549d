// Package http is the console's HTTP surface: a gin server that mounts the
// edge gate, translates requests into calls on the session, upload, list,
// memo and shipping services, and renders their state as JSON.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/config"
	"github.com/digitradex/trade-console/internal/gate"
)

// Server is the HTTP server adapter
type Server struct {
	config     config.ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	gate       *gate.Gate
	logger     *zap.Logger
}

// NewServer creates the HTTP server with the gate mounted ahead of every
// page route.
func NewServer(cfg config.ServerConfig, handlers *Handlers, g *gate.Gate, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   cfg,
		router:   gin.New(),
		handlers: handlers,
		gate:     g,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	// The gate runs on every request; its own exemption list skips health
	// probes and static assets.
	s.router.Use(s.gate.Middleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// setupRoutes configures all HTTP routes. The page routes mirror the
// console's navigation (/po/login, /po/upload, /po/list, /shipit); the /api
// group carries the operations those pages issue.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	// Pages: each GET returns the state its view renders from
	s.router.GET("/po/login", h.LoginPage)
	s.router.POST("/po/login", h.Login)
	s.router.GET("/po/upload", h.UploadPage)
	s.router.GET("/po/list", h.ListPage)
	s.router.GET("/shipit", h.ShippingPage)

	api := s.router.Group("/api")
	{
		api.GET("/session", h.SessionState)
		api.POST("/logout", h.Logout)
		api.POST("/dev-login", h.DevLogin)

		api.POST("/upload", h.UploadFile)
		api.GET("/upload/status", h.UploadStatus)
		api.GET("/upload/registrations", h.RegistrationHistory)
		api.GET("/upload/preview", h.UploadPreview)
		api.PATCH("/upload/draft", h.EditDraftField)
		api.POST("/upload/products", h.AddProduct)
		api.PATCH("/upload/products/:index", h.EditProduct)
		api.DELETE("/upload/products/:index", h.RemoveProduct)
		api.POST("/upload/register", h.RegisterDraft)
		api.POST("/upload/reset", h.ResetDraft)

		api.GET("/pos", h.ListPOs)
		api.GET("/pos/export", h.ExportPOs)
		api.PATCH("/pos/:id/status", h.UpdatePOStatus)
		api.DELETE("/pos", h.DeletePOs)
		api.POST("/pos/:id/memo/edit", h.BeginMemoEdit)
		api.PUT("/pos/:id/memo", h.SaveMemo)
		api.DELETE("/pos/memo/edit", h.CancelMemoEdit)

		api.GET("/shipping/destinations", h.ShippingDestinations)
		api.POST("/shipping/search", h.ShippingSearch)
		api.POST("/shipping/results/:index/tag", h.TagShippingResult)
		api.POST("/shipping/results/:index/feedback", h.ShippingFeedback)
	}
}

// Start runs the server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
