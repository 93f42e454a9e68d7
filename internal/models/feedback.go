package models

import (
	"time"
)

type Severity string

const (
	SeveritySuggestion Severity = "suggestion"
	SeverityWarning    Severity = "warning"
	SeverityCritical   Severity = "critical"
)

type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "pending"
	FeedbackApproved FeedbackStatus = "approved"
	FeedbackRejected FeedbackStatus = "rejected"
)

// FeedbackItem represents one automated review remark on a submission
type FeedbackItem struct {
	ID           string         `bson:"_id" json:"id"`
	SubmissionID string         `bson:"submissionId" json:"submissionId"`
	Line         int            `bson:"line" json:"line"`
	Severity     Severity       `bson:"severity" json:"severity"`
	Category     string         `bson:"category" json:"category"` // style, logic, performance, best_practice
	Message      string         `bson:"message" json:"message"`
	Source       string         `bson:"source" json:"source"` // heuristic, remote
	Status       FeedbackStatus `bson:"status" json:"status"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
}
