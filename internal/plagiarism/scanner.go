// Package plagiarism drives pairwise similarity scans over the sibling
// submissions of an assignment. Detection is separated from recording:
// Scan only scores and filters, ScanAndReport persists the flagged pairs.
package plagiarism

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/RishiKendai/argus/internal/models"
	"github.com/RishiKendai/argus/internal/similarity"
	"github.com/rs/zerolog/log"
)

// Scorer computes the similarity of two raw texts, in [0,1].
type Scorer interface {
	Score(textA, textB string) float64
}

// ContentSource resolves submission text. Absence is ("", nil), never an
// error, so the scanner can skip silently.
type ContentSource interface {
	GetText(ctx context.Context, submissionID string) (string, error)
}

// SiblingLister returns the other submission ids for an assignment.
type SiblingLister interface {
	ListSiblings(ctx context.Context, assignmentID, excludeID string) ([]string, error)
}

// ReportStore persists flagged pairs with get-or-create semantics. The
// returned flag says whether this call created the record.
type ReportStore interface {
	Upsert(ctx context.Context, submissionA, submissionB, assignmentID string, score float64, matchedLines []int) (*models.PlagiarismReport, bool, error)
}

// StatusTracker records scan progress for a submission. Updates are
// best-effort; failures are logged and ignored.
type StatusTracker interface {
	Update(ctx context.Context, submissionID string, step models.Step) error
}

// FlagNotifier is told about each newly created report.
type FlagNotifier interface {
	ReportFlagged(ctx context.Context, report *models.PlagiarismReport) error
}

// Candidate is one sibling whose similarity to the scanned submission
// exceeded the flagging threshold.
type Candidate struct {
	SubmissionID string
	Score        float64
	MatchedLines []int
}

// Config carries the scan policy. Threshold is exclusive: a pair is
// flagged only when its score is strictly greater.
type Config struct {
	Threshold  float64
	ScanBudget time.Duration
}

type Scanner struct {
	cfg      Config
	scorer   Scorer
	content  ContentSource
	siblings SiblingLister
	reports  ReportStore
	pool     *WorkerPool
	status   StatusTracker
	notifier FlagNotifier
}

// NewScanner wires a scanner. status and notifier may be nil, in which
// case progress tracking and event emission are skipped.
func NewScanner(
	cfg Config,
	scorer Scorer,
	content ContentSource,
	siblings SiblingLister,
	reports ReportStore,
	pool *WorkerPool,
	status StatusTracker,
	notifier FlagNotifier,
) *Scanner {
	return &Scanner{
		cfg:      cfg,
		scorer:   scorer,
		content:  content,
		siblings: siblings,
		reports:  reports,
		pool:     pool,
		status:   status,
		notifier: notifier,
	}
}

// scoreJob scores one fetched pair on the worker pool. Every job signals
// done exactly once; only pairs above the threshold produce a result.
type scoreJob struct {
	scorer      Scorer
	targetText  string
	siblingID   string
	siblingText string
	threshold   float64
	results     chan<- Candidate
	done        chan<- struct{}
}

func (j *scoreJob) Execute(ctx context.Context) error {
	defer func() {
		select {
		case j.done <- struct{}{}:
		default:
		}
	}()

	score := j.scorer.Score(j.targetText, j.siblingText)
	metrics.PairsCompared.Inc()

	if score <= j.threshold {
		return nil
	}

	candidate := Candidate{
		SubmissionID: j.siblingID,
		Score:        score,
		MatchedLines: similarity.MatchedLines(j.targetText, j.siblingText),
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.results <- candidate:
		return nil
	}
}

// Scan scores the submission against every sibling and returns the pairs
// strictly above the threshold, best score first. It never mutates state.
// A sibling whose text is absent or unreadable is skipped; the scan keeps
// going for the rest.
func (s *Scanner) Scan(ctx context.Context, submission *models.Submission) ([]Candidate, error) {
	siblings, err := s.siblings.ListSiblings(ctx, submission.AssignmentID, submission.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list siblings: %w", err)
	}
	if len(siblings) == 0 {
		return []Candidate{}, nil
	}

	targetText, err := s.content.GetText(ctx, submission.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission text: %w", err)
	}
	if targetText == "" {
		log.Debug().Str("submissionId", submission.ID).Msg("Submission has no text, nothing to scan")
		return []Candidate{}, nil
	}

	// One scoped read at a time; a failed or empty sibling is skipped.
	type fetched struct {
		id   string
		text string
	}
	pairs := make([]fetched, 0, len(siblings))
	for _, siblingID := range siblings {
		if ctx.Err() != nil {
			log.Warn().Str("submissionId", submission.ID).Msg("Scan budget exhausted while fetching siblings")
			break
		}
		text, err := s.content.GetText(ctx, siblingID)
		if err != nil {
			log.Warn().Err(err).
				Str("submissionId", submission.ID).
				Str("siblingId", siblingID).
				Msg("Skipping sibling, content unavailable")
			continue
		}
		if text == "" {
			continue
		}
		pairs = append(pairs, fetched{id: siblingID, text: text})
	}

	// Comparisons are independent; fan them out to the pool.
	resultChan := make(chan Candidate, len(pairs))
	doneChan := make(chan struct{}, len(pairs))

	submitted := 0
	for _, pair := range pairs {
		job := &scoreJob{
			scorer:      s.scorer,
			targetText:  targetText,
			siblingID:   pair.id,
			siblingText: pair.text,
			threshold:   s.cfg.Threshold,
			results:     resultChan,
			done:        doneChan,
		}
		if err := s.pool.Submit(job); err != nil {
			log.Error().Err(err).Str("siblingId", pair.id).Msg("Failed to submit comparison job")
			continue
		}
		submitted++
	}

	candidates := make([]Candidate, 0)
	for done := 0; done < submitted; {
		select {
		case <-ctx.Done():
			log.Warn().
				Str("submissionId", submission.ID).
				Int("completed", done).
				Int("submitted", submitted).
				Msg("Scan budget exhausted while scoring, returning partial results")
			return sortCandidates(drain(resultChan, candidates)), nil
		case candidate := <-resultChan:
			candidates = append(candidates, candidate)
		case <-doneChan:
			done++
		}
	}

	return sortCandidates(drain(resultChan, candidates)), nil
}

// drain empties buffered results left behind after the done signals.
func drain(results <-chan Candidate, candidates []Candidate) []Candidate {
	for {
		select {
		case candidate := <-results:
			candidates = append(candidates, candidate)
		default:
			return candidates
		}
	}
}

func sortCandidates(candidates []Candidate) []Candidate {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// ScanAndReport is the entry point the intake flow calls once a
// submission's text is available. It scans under the configured budget
// and upserts one report per flagged pair. A failed upsert is logged and
// does not abort the remaining candidates; callers treat the whole call
// as best-effort.
func (s *Scanner) ScanAndReport(ctx context.Context, submission *models.Submission) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ScanBudget)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	s.trackStatus(ctx, submission.ID, models.StepStarted)
	s.trackStatus(ctx, submission.ID, models.StepScanning)

	candidates, err := s.Scan(ctx, submission)
	if err != nil {
		s.trackStatus(ctx, submission.ID, models.StepFailed)
		metrics.ScanCount.WithLabelValues("failed").Inc()
		return fmt.Errorf("plagiarism scan failed: %w", err)
	}

	for _, candidate := range candidates {
		report, created, err := s.reports.Upsert(
			ctx,
			submission.ID,
			candidate.SubmissionID,
			submission.AssignmentID,
			candidate.Score,
			candidate.MatchedLines,
		)
		if err != nil {
			log.Error().Err(err).
				Str("submissionId", submission.ID).
				Str("siblingId", candidate.SubmissionID).
				Msg("Failed to upsert plagiarism report")
			continue
		}
		if !created {
			continue
		}

		metrics.ReportsFlagged.Inc()
		log.Info().
			Str("reportId", report.ID).
			Str("submission1", report.Submission1).
			Str("submission2", report.Submission2).
			Float64("score", report.SimilarityScore).
			Msg("Plagiarism report flagged")

		if s.notifier != nil {
			if err := s.notifier.ReportFlagged(ctx, report); err != nil {
				log.Warn().Err(err).Str("reportId", report.ID).Msg("Failed to emit report flagged event")
			}
		}
	}

	s.trackStatus(ctx, submission.ID, models.StepCompleted)
	metrics.ScanCount.WithLabelValues("completed").Inc()

	log.Info().
		Str("submissionId", submission.ID).
		Int("flagged", len(candidates)).
		Dur("took", time.Since(start)).
		Msg("Plagiarism scan completed")

	return nil
}

func (s *Scanner) trackStatus(ctx context.Context, submissionID string, step models.Step) {
	if s.status == nil {
		return
	}
	if err := s.status.Update(ctx, submissionID, step); err != nil {
		log.Warn().Err(err).
			Str("submissionId", submissionID).
			Str("step", string(step)).
			Msg("Failed to update scan status")
	}
}
