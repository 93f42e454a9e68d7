// Package intake runs the submission pipeline: persist the upload,
// generate feedback, then hand the submission to the plagiarism scanner.
// The HTTP upload handler and the stream consumer both feed it.
package intake

import (
	"context"
	"fmt"

	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/RishiKendai/argus/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Values for the source label on processed submissions.
const (
	SourceAPI    = "api"
	SourceStream = "stream"
)

type SubmissionStore interface {
	InsertSubmission(ctx context.Context, submission *models.Submission) error
	UpdateSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus) error
}

type FeedbackStore interface {
	ReplaceFeedbackForSubmission(ctx context.Context, submissionID string, items []models.FeedbackItem) error
}

// FileStore persists submission content on disk.
type FileStore interface {
	SaveFile(assignmentID, submissionID, filename, content string) (string, error)
}

// Analyzer produces feedback for a piece of code and names the source
// that produced it.
type Analyzer interface {
	Analyze(ctx context.Context, code, fileType string) ([]models.FeedbackItem, string)
}

// PlagiarismScanner checks a stored submission against its siblings.
type PlagiarismScanner interface {
	ScanAndReport(ctx context.Context, submission *models.Submission) error
}

// EventSink publishes pipeline milestones. Failures are logged, never fatal.
type EventSink interface {
	SubmissionAnalyzed(ctx context.Context, submissionID, assignmentID string, feedbackCount int, source string) error
}

type Service struct {
	submissions SubmissionStore
	feedback    FeedbackStore
	files       FileStore
	analyzer    Analyzer
	scanner     PlagiarismScanner
	events      EventSink
}

func NewService(
	submissions SubmissionStore,
	feedback FeedbackStore,
	files FileStore,
	analyzer Analyzer,
	scanner PlagiarismScanner,
	events EventSink,
) *Service {
	return &Service{
		submissions: submissions,
		feedback:    feedback,
		files:       files,
		analyzer:    analyzer,
		scanner:     scanner,
		events:      events,
	}
}

// Process runs the full pipeline for one submission. The submission
// carries its content inline; a failed disk write falls back to that
// copy. Errors mean the submission was not fully processed and the
// caller may retry; the plagiarism scan is best-effort and never fails
// the pipeline.
func (s *Service) Process(ctx context.Context, submission *models.Submission, source string) error {
	logger := log.With().
		Str("submissionId", submission.ID).
		Str("assignmentId", submission.AssignmentID).
		Str("source", source).
		Logger()

	filePath, err := s.files.SaveFile(submission.AssignmentID, submission.ID, submission.Filename, submission.Content)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to write submission file, keeping inline copy only")
		filePath = ""
	}
	submission.FilePath = filePath
	submission.Status = models.StatusUploaded

	if err := s.submissions.InsertSubmission(ctx, submission); err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}

	s.setStatus(ctx, logger, submission.ID, models.StatusAnalyzing)

	items, analysisSource := s.analyzer.Analyze(ctx, submission.Content, submission.FileType)
	for i := range items {
		items[i].SubmissionID = submission.ID
	}

	if err := s.feedback.ReplaceFeedbackForSubmission(ctx, submission.ID, items); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	s.setStatus(ctx, logger, submission.ID, models.StatusPendingReview)

	if s.events != nil {
		if err := s.events.SubmissionAnalyzed(ctx, submission.ID, submission.AssignmentID, len(items), analysisSource); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish submission analyzed event")
		}
	}

	metrics.SubmissionsProcessed.WithLabelValues(source).Inc()
	logger.Info().
		Int("feedbackCount", len(items)).
		Str("analysisSource", analysisSource).
		Msg("Submission processed")

	if s.scanner != nil {
		if err := s.scanner.ScanAndReport(ctx, submission); err != nil {
			logger.Error().Err(err).Msg("Plagiarism scan failed")
		}
	}

	return nil
}

func (s *Service) setStatus(ctx context.Context, logger zerolog.Logger, id string, status models.SubmissionStatus) {
	if err := s.submissions.UpdateSubmissionStatus(ctx, id, status); err != nil {
		logger.Warn().Err(err).Str("status", string(status)).Msg("Failed to update submission status")
	}
}
