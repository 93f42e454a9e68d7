// Package events publishes domain events for the notification layer.
// Publishing is best-effort: callers log errors and move on, and the
// producer degrades to a no-op when no brokers are configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/segmentio/kafka-go"
)

// Event types carried in every payload.
const (
	TypeSubmissionAnalyzed = "submission.analyzed"
	TypePlagiarismFlagged  = "plagiarism.flagged"
)

type SubmissionAnalyzedEvent struct {
	Type          string    `json:"type"`
	SubmissionID  string    `json:"submission_id"`
	AssignmentID  string    `json:"assignment_id"`
	FeedbackCount int       `json:"feedback_count"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

type PlagiarismFlaggedEvent struct {
	Type            string    `json:"type"`
	ReportID        string    `json:"report_id"`
	Submission1     string    `json:"submission1"`
	Submission2     string    `json:"submission2"`
	SimilarityScore float64   `json:"similarity_score"`
	Timestamp       time.Time `json:"timestamp"`
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a Kafka producer for the event topic. An empty
// broker list yields a disabled producer whose publishes are no-ops.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return &Producer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{writer: writer}
}

// Enabled reports whether events actually leave the process.
func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// SubmissionAnalyzed announces that feedback for a submission is ready.
func (p *Producer) SubmissionAnalyzed(ctx context.Context, submissionID, assignmentID string, feedbackCount int, source string) error {
	return p.publish(ctx, submissionID, SubmissionAnalyzedEvent{
		Type:          TypeSubmissionAnalyzed,
		SubmissionID:  submissionID,
		AssignmentID:  assignmentID,
		FeedbackCount: feedbackCount,
		Source:        source,
		Timestamp:     time.Now(),
	})
}

// ReportFlagged announces a newly created plagiarism report.
func (p *Producer) ReportFlagged(ctx context.Context, report *models.PlagiarismReport) error {
	return p.publish(ctx, report.Submission1, PlagiarismFlaggedEvent{
		Type:            TypePlagiarismFlagged,
		ReportID:        report.ID,
		Submission1:     report.Submission1,
		Submission2:     report.Submission2,
		SimilarityScore: report.SimilarityScore,
		Timestamp:       time.Now(),
	})
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	if p.writer == nil {
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
