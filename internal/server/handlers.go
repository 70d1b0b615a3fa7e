package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/truthguard/internal/knowledge"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/pipeline"
)

// analysisResponse is a score result plus where the text came from
type analysisResponse struct {
	model.ScoreResult
	Source    *model.Source     `json:"source,omitempty"`
	Language  string            `json:"language,omitempty"`
	CitedURLs []string          `json:"citedUrls,omitempty"`
	LLM       *model.LLMSummary `json:"llm,omitempty"`
}

func newAnalysisResponse(report *model.Report) analysisResponse {
	resp := analysisResponse{
		ScoreResult: report.Result,
		Language:    report.Language,
		CitedURLs:   report.CitedURLs,
		LLM:         report.LLM,
	}
	if report.Source != (model.Source{}) {
		src := report.Source
		resp.Source = &src
	}
	return resp
}

type textRequest struct {
	Content string `json:"content"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type crawlRequest struct {
	URL      string `json:"url"`
	Depth    *int   `json:"depth"`
	MaxPages *int   `json:"maxPages"`
}

type feedbackRequest struct {
	Content       string  `json:"content"`
	UserVerdict   string  `json:"user_verdict"`
	SystemVerdict string  `json:"system_verdict"`
	Confidence    float64 `json:"confidence"`
}

type trainingRequest struct {
	Content string `json:"content"`
	IsTrue  *bool  `json:"is_true"`
	Title   string `json:"title"`
	Source  string `json:"source"`
}

func (s *Server) analyzeText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "Content is required")
		return
	}

	report, err := s.svc.AnalyzeText(c.Request.Context(), req.Content)
	if err != nil {
		s.fail(c, err, "Failed to analyze text")
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(report))
}

func (s *Server) analyzeURL(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		badRequest(c, "URL is required")
		return
	}

	report, err := s.svc.ScoreURL(c.Request.Context(), req.URL)
	if err != nil {
		s.fail(c, err, "Failed to fetch and analyze URL")
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(report))
}

func (s *Server) analyzeFile(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		if c.Request.ContentLength > s.cfg.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
			return
		}
		badRequest(c, "File is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, err, "Failed to analyze file")
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, err, "Failed to analyze file")
		return
	}

	// Browsers send octet-stream for unknown types; sniff instead
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	report, err := s.svc.AnalyzeFile(c.Request.Context(), header.Filename, contentType, data)
	if err != nil {
		s.fail(c, err, "Failed to analyze file")
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(report))
}

func (s *Server) crawlSite(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		badRequest(c, "URL is required")
		return
	}

	depth, maxPages := s.crawl.MaxDepth, s.crawl.MaxPages
	if req.Depth != nil {
		depth = *req.Depth
	}
	if req.MaxPages != nil {
		maxPages = *req.MaxPages
	}
	if s.cfg.MaxCrawlPages > 0 && maxPages > s.cfg.MaxCrawlPages {
		badRequest(c, "maxPages exceeds the server limit")
		return
	}

	report, err := s.svc.CrawlAndScore(c.Request.Context(), req.URL, depth, maxPages)
	if err != nil {
		s.fail(c, err, "Failed to crawl website")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "Content is required")
		return
	}
	if req.UserVerdict != "correct" && req.UserVerdict != "incorrect" {
		badRequest(c, "user_verdict must be correct or incorrect")
		return
	}

	err := s.svc.RecordFeedback(c.Request.Context(), knowledge.Feedback{
		Content:       req.Content,
		UserVerdict:   req.UserVerdict,
		SystemVerdict: req.SystemVerdict,
		Confidence:    req.Confidence,
	})
	if err != nil {
		s.fail(c, err, "Failed to record feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) addTraining(c *gin.Context) {
	var req trainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		badRequest(c, "Content is required")
		return
	}
	if req.IsTrue == nil {
		badRequest(c, "is_true is required")
		return
	}

	err := s.svc.AddExample(c.Request.Context(), knowledge.Example{
		Title:   strings.TrimSpace(s.sanitizer.Sanitize(req.Title)),
		Content: content,
		Source:  strings.TrimSpace(s.sanitizer.Sanitize(req.Source)),
		IsTrue:  *req.IsTrue,
	})
	if err != nil {
		s.fail(c, err, "Failed to add training example")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps pipeline errors to a status. Input errors carry their own
// message; everything else gets the generic one.
func (s *Server) fail(c *gin.Context, err error, generic string) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrUnsupportedFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, knowledge.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is unavailable"})
	default:
		var fe *pipeline.FetchError
		if errors.As(err, &fe) {
			s.logger.Warn("fetch failed", "url", fe.URL, "status", fe.StatusCode, "error", fe.Err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": generic})
	}
}
