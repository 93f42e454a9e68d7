package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProducerIsNoOp(t *testing.T) {
	producer := NewProducer(nil, "submission-events")

	assert.False(t, producer.Enabled())

	err := producer.SubmissionAnalyzed(context.Background(), "sub-1", "hw-1", 3, "remote")
	assert.NoError(t, err)

	err = producer.ReportFlagged(context.Background(), &models.PlagiarismReport{
		ID:              "rep-1",
		Submission1:     "sub-1",
		Submission2:     "sub-2",
		SimilarityScore: 0.95,
	})
	assert.NoError(t, err)

	assert.NoError(t, producer.Close())
}

func TestEnabledProducerHasWriter(t *testing.T) {
	producer := NewProducer([]string{"localhost:9092"}, "submission-events")

	assert.True(t, producer.Enabled())
	assert.NoError(t, producer.Close())
}

func TestSubmissionAnalyzedEventShape(t *testing.T) {
	event := SubmissionAnalyzedEvent{
		Type:          TypeSubmissionAnalyzed,
		SubmissionID:  "sub-1",
		AssignmentID:  "hw-1",
		FeedbackCount: 2,
		Source:        "heuristic",
		Timestamp:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "submission.analyzed", decoded["type"])
	assert.Equal(t, "sub-1", decoded["submission_id"])
	assert.Equal(t, "hw-1", decoded["assignment_id"])
	assert.Equal(t, float64(2), decoded["feedback_count"])
	assert.Equal(t, "heuristic", decoded["source"])
}

func TestPlagiarismFlaggedEventShape(t *testing.T) {
	event := PlagiarismFlaggedEvent{
		Type:            TypePlagiarismFlagged,
		ReportID:        "rep-1",
		Submission1:     "sub-a",
		Submission2:     "sub-b",
		SimilarityScore: 0.93,
		Timestamp:       time.Now(),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "plagiarism.flagged", decoded["type"])
	assert.Equal(t, "sub-a", decoded["submission1"])
	assert.Equal(t, "sub-b", decoded["submission2"])
	assert.InDelta(t, 0.93, decoded["similarity_score"].(float64), 1e-9)
}
