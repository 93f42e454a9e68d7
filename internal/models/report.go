package models

import (
	"time"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepStarted   Step = "started"
	StepScanning  Step = "scanning"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

type ReportStatus string

const (
	ReportFlagged   ReportStatus = "flagged"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

// PlagiarismReport represents one flagged submission pair stored in MongoDB.
// The pair is unordered: Submission1 always holds the lexicographically
// smaller id so the unique index sees both orderings as the same record.
type PlagiarismReport struct {
	ID              string       `bson:"_id" json:"id"`
	Submission1     string       `bson:"submission1" json:"submission1"`
	Submission2     string       `bson:"submission2" json:"submission2"`
	SimilarityScore float64      `bson:"similarityScore" json:"similarityScore"`
	MatchedLines    []int        `bson:"matchedLines" json:"matchedLines"`
	AssignmentID    string       `bson:"assignmentId" json:"assignmentId"`
	Status          ReportStatus `bson:"status" json:"status"` // flagged, reviewed, dismissed
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
	ReviewedAt      *time.Time   `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewedBy      string       `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	InstructorNotes string       `bson:"instructorNotes,omitempty" json:"instructorNotes,omitempty"`
}

// ReviewRequest carries reviewer identity and notes for report transitions
type ReviewRequest struct {
	ReviewedBy string `json:"reviewedBy" binding:"required"`
	Notes      string `json:"notes"`
}
