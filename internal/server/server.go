package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustfabric/leakguard/pkg/config"
	"github.com/trustfabric/leakguard/pkg/dlp"
	"github.com/trustfabric/leakguard/pkg/logger"
)

// Server is the HTTP surface over the DLP facade.
type Server struct {
	service *dlp.Service
	log     *logger.Logger
	http    *http.Server
}

// New builds the server and its routes.
func New(service *dlp.Service, cfg *config.ServerConfig, log *logger.Logger) *Server {
	s := &Server{
		service: service,
		log:     log.WithField("component", "http_server"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1/dlp")
	{
		v1.POST("/scan", s.handleScan)
		v1.POST("/export/check", s.handleExportCheck)
		v1.GET("/statistics", s.handleStatistics)
	}

	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("request handled")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "leakguard"})
}
