// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	wizardService service.WizardService,
	approvalService service.ApprovalService,
	exportService service.ExportService,
	referenceRepo port.ReferenceRepository,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(wizardService, approvalService, exportService, referenceRepo, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	// Health check
	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		// Reference data
		api.GET("/cost-centers", h.ListCostCenters)
		api.GET("/workers", h.ListWorkers)

		// Wizard sessions
		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.StartSession)
			sessions.GET("/:id", h.GetSession)
			sessions.DELETE("/:id", h.CloseSession)

			sessions.POST("/:id/next", h.NextStage)
			sessions.POST("/:id/prev", h.PrevStage)

			sessions.PUT("/:id/cost-center", h.SelectCostCenter)
			sessions.PUT("/:id/worker", h.SelectWorker)

			sessions.POST("/:id/items", h.AddItem)
			sessions.PUT("/:id/items/:itemID", h.UpdateItem)
			sessions.DELETE("/:id/items/:itemID", h.RemoveItem)
			sessions.POST("/:id/items/edit", h.BeginItemEdit)
			sessions.DELETE("/:id/items/edit", h.CancelItemEdit)

			sessions.PUT("/:id/signature", h.CaptureSignature)
			sessions.DELETE("/:id/signature", h.RemoveSignature)

			sessions.POST("/:id/submit", h.Submit)
		}

		// Submitted requests
		requests := api.Group("/requests")
		{
			requests.GET("/pending", h.ListPendingRequests)
			requests.GET("/ticket/:ticket", h.GetRequestByTicket)
			requests.GET("/:id", h.GetRequest)
			requests.GET("/:id/history", h.GetHistory)

			requests.POST("/:id/approve", h.ApproveRequest)
			requests.POST("/:id/reject", h.RejectRequest)
			requests.POST("/:id/notify", h.NotifyManager)

			requests.GET("/:id/export/excel", h.ExportExcel)
			requests.GET("/:id/export/pdf", h.ExportPDF)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

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
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
