package stream

import (
	"fmt"

	"github.com/RishiKendai/argus/internal/models"
)

// StreamMessage is one raw entry read from the submission stream.
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// requiredFields are the stream fields a submission message must carry.
var requiredFields = []string{
	"submission_id",
	"student_id",
	"assignment_id",
	"filename",
	"content",
}

// ParseSubmission validates a stream message and builds the submission it
// describes. Messages missing a required field are rejected so the
// consumer can acknowledge and drop them instead of retrying forever.
func ParseSubmission(msg *StreamMessage) (*models.Submission, error) {
	for _, field := range requiredFields {
		if msg.Fields[field] == "" {
			return nil, fmt.Errorf("message %s missing required field %q", msg.ID, field)
		}
	}

	filename := msg.Fields["filename"]

	return &models.Submission{
		ID:           msg.Fields["submission_id"],
		StudentID:    msg.Fields["student_id"],
		AssignmentID: msg.Fields["assignment_id"],
		Filename:     filename,
		FileType:     models.FileTypeOf(filename),
		Content:      msg.Fields["content"],
		Status:       models.StatusUploaded,
	}, nil
}
