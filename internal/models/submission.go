package models

import (
	"path/filepath"
	"strings"
	"time"
)

type SubmissionStatus string

const (
	StatusUploaded      SubmissionStatus = "uploaded"
	StatusAnalyzing     SubmissionStatus = "analyzing"
	StatusPendingReview SubmissionStatus = "pending_review"
)

// Submission represents a student code submission stored in MongoDB
type Submission struct {
	ID           string           `bson:"_id" json:"id"`
	StudentID    string           `bson:"studentId" json:"studentId"`
	AssignmentID string           `bson:"assignmentId" json:"assignmentId"`
	Filename     string           `bson:"filename" json:"filename"`
	FileType     string           `bson:"fileType" json:"fileType"` // py, java, cpp, ...
	FilePath     string           `bson:"filePath" json:"-"`
	Content      string           `bson:"content" json:"-"` // inline copy, fallback when the file is gone
	Status       SubmissionStatus `bson:"status" json:"status"`
	SubmittedAt  time.Time        `bson:"submittedAt" json:"submittedAt"`
}

// UploadRequest represents the submission upload payload
type UploadRequest struct {
	StudentID    string `json:"studentId" binding:"required"`
	AssignmentID string `json:"assignmentId" binding:"required"`
	Filename     string `json:"filename" binding:"required"`
	Content      string `json:"content" binding:"required"`
}

// UploadResponse acknowledges an accepted upload
type UploadResponse struct {
	SubmissionID string           `json:"submissionId"`
	Status       SubmissionStatus `json:"status"`
}

// FileTypeOf derives the file-type tag from a filename extension
func FileTypeOf(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return strings.ToLower(ext)
}
