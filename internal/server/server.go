// Package server exposes the document and farm-record pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"agrovet/internal/document"
	"agrovet/internal/logger"
	"agrovet/pkg/services"
)

const shutdownTimeout = 10 * time.Second

// DocumentProcessor runs the document pipeline on one upload.
type DocumentProcessor interface {
	Process(ctx context.Context, doc *document.Document) (*document.Analysis, error)
}

// Config wires the server collaborators.
type Config struct {
	Processor      DocumentProcessor
	Exporter       services.ReportExporter
	MaxUploadBytes int64
}

// Server is the HTTP surface. Every request is handled independently; no
// session state is kept between requests.
type Server struct {
	router    *gin.Engine
	processor DocumentProcessor
	exporter  services.ReportExporter
	maxUpload int64
	log       zerolog.Logger
}

// New builds the router.
func New(cfg Config) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = document.DefaultMaxBytes
	}

	s := &Server{
		router:    gin.New(),
		processor: cfg.Processor,
		exporter:  cfg.Exporter,
		maxUpload: maxUpload,
		log:       logger.WithComponent("server"),
	}
	s.router.MaxMultipartMemory = maxUpload
	s.router.Use(RequestID(), gin.CustomRecovery(s.recover))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.POST("/documents", s.handleDocument)

		records := api.Group("/farm-records")
		{
			records.POST("", s.handleFarmRecord)
			records.POST("/report.xlsx", s.handleReport(services.MIMEXLSX))
			records.POST("/report.pdf", s.handleReport(services.MIMEPDF))
			records.POST("/chart.png", s.handleReport(services.MIMEPNG))
		}
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) recover(c *gin.Context, recovered interface{}) {
	log := logger.FromContext(c.Request.Context())
	log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal error while processing the request."})
}
