package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RishiKendai/argus/internal/config"
	"github.com/RishiKendai/argus/internal/intake"
	"github.com/RishiKendai/argus/internal/models"
	"github.com/RishiKendai/argus/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PingFunc checks one backing dependency for the health endpoint.
type PingFunc func(ctx context.Context) error

// Processor runs the submission pipeline.
type Processor interface {
	Process(ctx context.Context, submission *models.Submission, source string) error
}

type SubmissionStore interface {
	GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
}

type FeedbackStore interface {
	ListFeedbackBySubmission(ctx context.Context, submissionID string) ([]models.FeedbackItem, error)
	UpdateFeedbackStatus(ctx context.Context, id string, status models.FeedbackStatus) (*models.FeedbackItem, error)
}

type ReportStore interface {
	ListReportsByAssignment(ctx context.Context, assignmentID string) ([]models.PlagiarismReport, error)
	GetReportByID(ctx context.Context, id string) (*models.PlagiarismReport, error)
	MarkReviewed(ctx context.Context, id, reviewedBy, notes string) (*models.PlagiarismReport, error)
	Dismiss(ctx context.Context, id, reviewedBy, notes string) (*models.PlagiarismReport, error)
}

// ScanStatusReader reports plagiarism scan progress for a submission.
type ScanStatusReader interface {
	Get(ctx context.Context, submissionID string) (models.Step, error)
}

// Handler exposes the HTTP surface over the stores and the intake
// pipeline.
type Handler struct {
	cfg            *config.Config
	processor      Processor
	submissions    SubmissionStore
	feedback       FeedbackStore
	reports        ReportStore
	scanStatus     ScanStatusReader
	mongoPing      PingFunc
	redisPing      PingFunc
	processSem     chan struct{} // one slot per in-flight pipeline
	processTimeout time.Duration
}

func NewHandler(
	cfg *config.Config,
	processor Processor,
	submissions SubmissionStore,
	feedback FeedbackStore,
	reports ReportStore,
	scanStatus ScanStatusReader,
	mongoPing PingFunc,
	redisPing PingFunc,
) *Handler {
	return &Handler{
		cfg:            cfg,
		processor:      processor,
		submissions:    submissions,
		feedback:       feedback,
		reports:        reports,
		scanStatus:     scanStatus,
		mongoPing:      mongoPing,
		redisPing:      redisPing,
		processSem:     make(chan struct{}, cfg.MaxConcurrentScans),
		processTimeout: cfg.ProcessTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	mongoStatus := h.pingStatus(ctx, h.mongoPing)
	redisStatus := h.pingStatus(ctx, h.redisPing)
	if mongoStatus != "up" || redisStatus != "up" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"mongo":         mongoStatus,
		"redis":         redisStatus,
		"ai_configured": h.cfg.AIConfigured(),
	})
}

func (h *Handler) pingStatus(ctx context.Context, ping PingFunc) string {
	if ping == nil {
		return "unknown"
	}
	if err := ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check dependency ping failed")
		return "down"
	}
	return "up"
}

// UploadSubmission accepts a submission and processes it asynchronously.
// The response is 202: analysis and the plagiarism scan happen after the
// client is gone.
func (h *Handler) UploadSubmission(c *gin.Context) {
	var req models.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	submission := &models.Submission{
		ID:           uuid.New().String(),
		StudentID:    req.StudentID,
		AssignmentID: req.AssignmentID,
		Filename:     req.Filename,
		FileType:     models.FileTypeOf(req.Filename),
		Content:      req.Content,
		Status:       models.StatusUploaded,
	}

	// Block until a pipeline slot frees up or the client gives up
	select {
	case h.processSem <- struct{}{}:
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	}

	c.JSON(http.StatusAccepted, models.UploadResponse{
		SubmissionID: submission.ID,
		Status:       models.StatusUploaded,
	})

	go h.processSubmission(submission)
}

// processSubmission runs the pipeline after the 202 went out
func (h *Handler) processSubmission(submission *models.Submission) {
	defer func() { <-h.processSem }()

	ctx, cancel := context.WithTimeout(context.Background(), h.processTimeout)
	defer cancel()

	if err := h.processor.Process(ctx, submission, intake.SourceAPI); err != nil {
		log.Error().Err(err).
			Str("submissionId", submission.ID).
			Msg("Submission processing failed")
		return
	}

	log.Debug().Str("submissionId", submission.ID).Msg("Submission processing completed")
}

func (h *Handler) GetSubmission(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	submission, err := h.submissions.GetSubmissionByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("submissionId", id).Msg("Failed to load submission")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load submission",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if submission == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Submission not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	feedback, err := h.feedback.ListFeedbackBySubmission(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("submissionId", id).Msg("Failed to load feedback")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load feedback",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	scanStep := models.StepIdle
	if h.scanStatus != nil {
		if step, err := h.scanStatus.Get(ctx, id); err == nil {
			scanStep = step
		} else {
			log.Warn().Err(err).Str("submissionId", id).Msg("Failed to read scan status")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"submission": submission,
		"feedback":   feedback,
		"scanStatus": scanStep,
	})
}

func (h *Handler) ApproveFeedback(c *gin.Context) {
	h.moderateFeedback(c, models.FeedbackApproved)
}

func (h *Handler) RejectFeedback(c *gin.Context) {
	h.moderateFeedback(c, models.FeedbackRejected)
}

func (h *Handler) moderateFeedback(c *gin.Context, status models.FeedbackStatus) {
	id := c.Param("id")

	item, err := h.feedback.UpdateFeedbackStatus(c.Request.Context(), id, status)
	if err != nil {
		log.Error().Err(err).Str("feedbackId", id).Msg("Failed to update feedback status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to update feedback",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Feedback item not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) ListReports(c *gin.Context) {
	assignmentID := c.Query("assignment_id")
	if assignmentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "assignment_id query parameter is required",
			Code:  "MISSING_ASSIGNMENT_ID",
		})
		return
	}

	reports, err := h.reports.ListReportsByAssignment(c.Request.Context(), assignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Failed to list reports")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to list reports",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignmentId": assignmentID,
		"reports":      reports,
		"count":        len(reports),
	})
}

func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.reports.GetReportByID(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("reportId", id).Msg("Failed to load report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load report",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Report not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) ReviewReport(c *gin.Context) {
	h.settleReport(c, func(ctx context.Context, id string, req models.ReviewRequest) (*models.PlagiarismReport, error) {
		return h.reports.MarkReviewed(ctx, id, req.ReviewedBy, req.Notes)
	})
}

func (h *Handler) DismissReport(c *gin.Context) {
	h.settleReport(c, func(ctx context.Context, id string, req models.ReviewRequest) (*models.PlagiarismReport, error) {
		return h.reports.Dismiss(ctx, id, req.ReviewedBy, req.Notes)
	})
}

func (h *Handler) settleReport(c *gin.Context, transition func(ctx context.Context, id string, req models.ReviewRequest) (*models.PlagiarismReport, error)) {
	id := c.Param("id")

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "reviewedBy is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	report, err := transition(c.Request.Context(), id, req)
	if errors.Is(err, repository.ErrAlreadySettled) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Report was already reviewed or dismissed",
			Code:  "ALREADY_SETTLED",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("reportId", id).Msg("Failed to transition report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to update report",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Report not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
