package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pkarpov/verity/internal/media"
	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/queue"
	"github.com/pkarpov/verity/internal/store"
)

// Processor runs the verification pipeline for a stored claim
type Processor interface {
	Process(ctx context.Context, claimID string) error
}

// Server is the intake HTTP API: claim submission, result retrieval, and
// per-user history.
type Server struct {
	store     store.Store
	publisher queue.Publisher // nil when no queue is configured
	uploader  media.Uploader
	processor Processor
	logger    *slog.Logger

	allowedOrigins []string
	inlineTimeout  time.Duration
}

// ServerOptions configures the intake server
type ServerOptions struct {
	Store          store.Store
	Publisher      queue.Publisher
	Uploader       media.Uploader
	Processor      Processor
	Logger         *slog.Logger
	AllowedOrigins []string
	InlineTimeout  time.Duration
}

// NewServer wires the intake server from its collaborators
func NewServer(opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Uploader == nil {
		opts.Uploader = media.NoopUploader{}
	}
	if opts.InlineTimeout <= 0 {
		opts.InlineTimeout = 5 * time.Minute
	}
	return &Server{
		store:          opts.Store,
		publisher:      opts.Publisher,
		uploader:       opts.Uploader,
		processor:      opts.Processor,
		logger:         opts.Logger,
		allowedOrigins: opts.AllowedOrigins,
		inlineTimeout:  opts.InlineTimeout,
	}
}

// Router constructs the Gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.corsMiddleware())

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/claims", s.handleSubmitClaim)
		v1.GET("/claims/:id", s.handleGetClaim)
		v1.GET("/verifications/:id", s.handleGetVerification)
		v1.GET("/users/:id/claims", s.handleUserHistory)
	}
	return r
}

// corsMiddleware answers preflights and stamps the allowed origin
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitClaimRequest is the intake payload. Either text or an image must
// be present.
type submitClaimRequest struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64"`
	ContentType string `json:"image_content_type"`
	SourceURL   string `json:"source_url"`
	Language    string `json:"language"`
	Priority    string `json:"priority"`
	UserID      string `json:"user_id"`
}

const maxImageBytes = 8 << 20

// handleSubmitClaim accepts a claim, persists it as submitted, and routes
// it to a processing path: inline for high priority, queued otherwise.
// POST /api/v1/claims
func (s *Server) handleSubmitClaim(c *gin.Context) {
	var req submitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload: " + err.Error()})
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" && req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either text or image_base64 is required"})
		return
	}

	claim := &model.Claim{
		ID:          uuid.NewString(),
		Text:        req.Text,
		SourceURL:   req.SourceURL,
		Language:    req.Language,
		Priority:    model.ParsePriority(req.Priority),
		UserID:      req.UserID,
		Status:      model.StatusSubmitted,
		SubmittedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}
	if claim.Language == "" {
		claim.Language = "auto"
	}

	if req.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil || len(data) == 0 || len(data) > maxImageBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 must be valid base64 up to 8 MiB"})
			return
		}
		contentType := req.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		imageRef, err := s.uploader.UploadImage(c.Request.Context(), claim.ID, bytes.NewReader(data), contentType)
		if err != nil {
			s.logger.Error("image upload failed", "claim_id", claim.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image storage failed"})
			return
		}
		claim.ImageRef = imageRef
	}

	if err := s.store.SaveClaim(c.Request.Context(), claim); err != nil {
		s.logger.Error("claim save failed", "claim_id", claim.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist claim"})
		return
	}

	s.dispatch(claim)

	c.JSON(http.StatusAccepted, gin.H{
		"claim_id":     claim.ID,
		"status":       claim.Status,
		"priority":     claim.Priority,
		"submitted_at": claim.SubmittedAt,
	})
}

// dispatch routes a saved claim: high priority runs inline, normal priority
// goes through the queue. A publish failure degrades to inline processing
// so intake keeps working when the broker is down.
func (s *Server) dispatch(claim *model.Claim) {
	if claim.Priority != model.PriorityHigh && s.publisher != nil {
		msg := queue.Message{
			ClaimID:     claim.ID,
			Priority:    claim.Priority,
			SubmittedAt: claim.SubmittedAt,
		}
		if err := s.publisher.Publish(context.Background(), msg); err == nil {
			return
		} else {
			s.logger.Warn("queue publish failed, processing inline", "claim_id", claim.ID, "error", err)
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.inlineTimeout)
		defer cancel()
		if err := s.processor.Process(ctx, claim.ID); err != nil {
			s.logger.Error("inline processing failed", "claim_id", claim.ID, "error", err)
		}
	}()
}

// handleGetClaim returns the claim record with its current status.
// GET /api/v1/claims/:id
func (s *Server) handleGetClaim(c *gin.Context) {
	claim, err := s.store.GetClaim(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load claim"})
		return
	}
	c.JSON(http.StatusOK, claim)
}

// handleGetVerification returns the terminal result for a completed claim,
// or the in-progress status otherwise.
// GET /api/v1/verifications/:id
func (s *Server) handleGetVerification(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	result, err := s.store.GetVerification(ctx, id)
	if err == nil {
		c.JSON(http.StatusOK, result)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load verification"})
		return
	}

	claim, err := s.store.GetClaim(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load claim"})
		return
	}

	body := gin.H{
		"claim_id":     claim.ID,
		"status":       claim.Status,
		"submitted_at": claim.SubmittedAt,
	}
	if claim.Status == model.StatusFailed {
		body["error"] = claim.Error
	}
	c.JSON(http.StatusOK, body)
}

// handleUserHistory lists a user's claims, newest first.
// GET /api/v1/users/:id/claims?offset=0&limit=20
func (s *Server) handleUserHistory(c *gin.Context) {
	offset := parseIntParam(c.Query("offset"), 0)
	limit := parseIntParam(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}

	summaries, total, err := s.store.ListUserClaims(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list claims"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"claims": summaries,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
