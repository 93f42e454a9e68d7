package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	items []models.FeedbackItem
	err   error
	calls int
}

func (s *stubAnalyzer) Analyze(context.Context, string, string) ([]models.FeedbackItem, error) {
	s.calls++
	return s.items, s.err
}

func TestService_UsesRemoteWhenItSucceeds(t *testing.T) {
	remote := &stubAnalyzer{items: []models.FeedbackItem{{Line: 4, Message: "from the model", Source: SourceRemote}}}
	heuristic := &stubAnalyzer{items: []models.FeedbackItem{{Line: 1, Message: "from the rules", Source: SourceHeuristic}}}

	items, source := NewService(remote, heuristic).Analyze(context.Background(), "print(1)", "py")

	assert.Equal(t, SourceRemote, source)
	require.Len(t, items, 1)
	assert.Equal(t, "from the model", items[0].Message)
	assert.Equal(t, 0, heuristic.calls)
}

func TestService_FallsBackOnRemoteError(t *testing.T) {
	remote := &stubAnalyzer{err: errors.New("endpoint down")}
	heuristic := &stubAnalyzer{items: []models.FeedbackItem{{Line: 1, Message: "from the rules", Source: SourceHeuristic}}}

	items, source := NewService(remote, heuristic).Analyze(context.Background(), "print(1)", "py")

	assert.Equal(t, SourceHeuristic, source)
	require.Len(t, items, 1)
	assert.Equal(t, "from the rules", items[0].Message)
	assert.Equal(t, 1, remote.calls)
}

func TestService_SkipsRemoteWhenUnconfigured(t *testing.T) {
	heuristic := &stubAnalyzer{items: []models.FeedbackItem{{Line: 1, Source: SourceHeuristic}}}

	items, source := NewService(nil, heuristic).Analyze(context.Background(), "print(1)", "py")

	assert.Equal(t, SourceHeuristic, source)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, heuristic.calls)
}

func TestService_RealHeuristicFallbackEndToEnd(t *testing.T) {
	remote := &stubAnalyzer{err: errors.New("timeout")}

	items, source := NewService(remote, NewHeuristicAnalyzer()).Analyze(context.Background(), "import *", "py")

	assert.Equal(t, SourceHeuristic, source)
	require.Len(t, items, 1)
	assert.Equal(t, models.SeverityWarning, items[0].Severity)
}
