// Package api exposes the web form and JSON API of the prediction service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yatis-tahmin-server/internal/domain"
	"github.com/yatis-tahmin-server/internal/service"
)

// predictor is the slice of the prediction service the handlers need.
type predictor interface {
	Predict(ctx context.Context, params service.PredictParams) (*domain.PredictionResult, error)
}

// catalogSource supplies the form options and whether they came from a real
// workbook.
type catalogSource interface {
	Catalog() *domain.OptionCatalog
	WorkbookFound() bool
}

// Server represents the HTTP server
type Server struct {
	logger    *logrus.Logger
	cfg       *domain.ServerConfig
	catalog   catalogSource
	predictor predictor
	router    *gin.Engine
	server    *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(logger *logrus.Logger, cfg *domain.ServerConfig, catalog catalogSource, predictor predictor) *Server {
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.SetHTMLTemplate(formTemplate)

	s := &Server{
		logger:    logger,
		cfg:       cfg,
		catalog:   catalog,
		predictor: predictor,
		router:    router,
	}
	s.setupRoutes()
	return s
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleForm)
	s.router.HEAD("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	s.router.POST("/tahmin", s.handleFormSubmit)

	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/options", s.handleOptions)
		api.POST("/predict", s.handlePredict)
	}
}
