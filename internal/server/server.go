// Package server exposes the scoring pipeline as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/metrics"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/worker"
)

// Service is the part of the pipeline the API calls
type Service interface {
	AnalyzeText(ctx context.Context, text string) (*model.Report, error)
	ScoreURL(ctx context.Context, rawURL string) (*model.Report, error)
	AnalyzeFile(ctx context.Context, name, contentType string, data []byte) (*model.Report, error)
	CrawlAndScore(ctx context.Context, seed string, maxDepth, maxPages int) (*model.CrawlReport, error)
	RecordFeedback(ctx context.Context, fb knowledge.Feedback) error
	AddExample(ctx context.Context, ex knowledge.Example) error
}

// Server routes API requests to a Service
type Server struct {
	svc       Service
	cfg       model.ServerConfig
	crawl     model.CrawlConfig
	engine    *gin.Engine
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// New builds the router. crawl supplies the defaults for crawl requests
// that omit depth or maxPages.
func New(svc Service, cfg model.ServerConfig, crawl model.CrawlConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:       svc,
		cfg:       cfg,
		crawl:     crawl,
		engine:    gin.New(),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
	s.attachRoutes()
	return s
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) attachRoutes() {
	r := s.engine
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(observe(s.logger))
	r.Use(cors.New(corsConfig(s.cfg.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	if s.cfg.RequestsPerSecond > 0 {
		api.Use(rateLimit(worker.NewLimiter(s.cfg.RequestsPerSecond, s.cfg.BurstSize)))
	}
	{
		api.POST("/analyze/text", s.analyzeText)
		api.POST("/analyze/url", s.analyzeURL)
		api.POST("/analyze/file", s.analyzeFile)
		api.POST("/crawl", s.crawlSite)
		api.POST("/feedback", s.feedback)
		api.POST("/training/add", s.addTraining)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("API listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down API")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
