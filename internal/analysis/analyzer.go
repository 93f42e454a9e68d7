// Package analysis generates automated review feedback for submitted
// code. Two analyzers exist: a remote LLM call and a local heuristic
// rule table. The Service prefers the remote path when configured and
// falls back to the heuristics on any remote error.
package analysis

import (
	"context"

	"github.com/RishiKendai/argus/internal/models"
)

// Feedback sources, recorded on every item.
const (
	SourceHeuristic = "heuristic"
	SourceRemote    = "remote"
)

// Analyzer produces review feedback for one submission's code. Items
// carry line numbers, severity, category and message; the caller assigns
// the submission id.
type Analyzer interface {
	Analyze(ctx context.Context, code, fileType string) ([]models.FeedbackItem, error)
}
