package analysis

import (
	"context"

	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/RishiKendai/argus/internal/models"
	"github.com/rs/zerolog/log"
)

// Service selects between the remote and heuristic analyzers. The
// fallback decision lives here and nowhere else: any remote error means
// the heuristic result is served instead.
type Service struct {
	remote    Analyzer
	heuristic Analyzer
}

// NewService builds the selector. remote may be nil when no endpoint is
// configured; the heuristic analyzer is required.
func NewService(remote, heuristic Analyzer) *Service {
	return &Service{
		remote:    remote,
		heuristic: heuristic,
	}
}

// Analyze reviews the code and reports which analyzer produced the
// result. It never fails: the heuristic path has no error modes.
func (s *Service) Analyze(ctx context.Context, code, fileType string) ([]models.FeedbackItem, string) {
	if s.remote != nil {
		items, err := s.remote.Analyze(ctx, code, fileType)
		if err == nil {
			return items, SourceRemote
		}
		metrics.AnalysisFallbacks.Inc()
		log.Warn().Err(err).
			Str("fileType", fileType).
			Msg("Remote analysis failed, falling back to heuristic rules")
	}

	items, _ := s.heuristic.Analyze(ctx, code, fileType)
	return items, SourceHeuristic
}
