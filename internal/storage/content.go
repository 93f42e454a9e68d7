// Package storage resolves submission text. Files live on disk under a
// configured root; every submission also carries an inline copy that
// serves as the fallback when the file is missing or unreadable.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/rs/zerolog/log"
)

// SubmissionSource looks up submission metadata for content resolution
type SubmissionSource interface {
	GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error)
}

type ContentStore struct {
	dir         string
	submissions SubmissionSource
}

func NewContentStore(dir string, submissions SubmissionSource) *ContentStore {
	return &ContentStore{
		dir:         dir,
		submissions: submissions,
	}
}

// SaveFile writes the submission content to disk and returns the relative
// path to store on the submission record.
func (s *ContentStore) SaveFile(assignmentID, submissionID, filename, content string) (string, error) {
	relPath := filepath.Join(assignmentID, submissionID+"_"+filepath.Base(filename))
	fullPath := filepath.Join(s.dir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create submission directory: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write submission file: %w", err)
	}

	return relPath, nil
}

// GetText returns the text of a submission. The file on disk wins; an
// unreadable or missing file falls back to the inline copy. An unknown
// submission id yields empty text, not an error, so scans skip it.
func (s *ContentStore) GetText(ctx context.Context, submissionID string) (string, error) {
	submission, err := s.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve submission: %w", err)
	}
	if submission == nil {
		return "", nil
	}

	if submission.FilePath != "" {
		data, err := os.ReadFile(filepath.Join(s.dir, submission.FilePath))
		if err == nil {
			return string(data), nil
		}
		log.Warn().Err(err).
			Str("submissionId", submissionID).
			Str("filePath", submission.FilePath).
			Msg("Submission file unreadable, using inline copy")
	}

	return submission.Content, nil
}
